package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/simonyos/geochat/internal/tui/layout"
	"github.com/simonyos/geochat/internal/tui/theme"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
}

// BuiltinCommands lists all built-in slash commands
var BuiltinCommands = []Command{
	{Name: "/help", Description: "Show keyboard shortcuts and commands"},
	{Name: "/clear", Description: "Clear the screen"},
	{Name: "/reset", Description: "Start the conversation over"},
	{Name: "/tools", Description: "List available tools"},
	{Name: "/profiles", Description: "List assistant profiles"},
	{Name: "/results", Description: "Toggle the results panel"},
	{Name: "/map", Description: "Write the last results as GeoJSON"},
	{Name: "/config", Description: "Show configuration"},
	{Name: "/quit", Description: "Exit GeoChat"},
}

// Suggestions completes slash commands as they are typed. The list hides
// once the input stops being a bare command, e.g. after "/map " when the
// user moves on to the argument.
type Suggestions struct {
	visible  bool
	commands []Command
	selected int
	width    int
}

func NewSuggestions() *Suggestions {
	return &Suggestions{commands: BuiltinCommands}
}

func (s *Suggestions) SetWidth(width int) {
	s.width = width
}

// Filter narrows the list to commands starting with input
func (s *Suggestions) Filter(input string) {
	s.visible = strings.HasPrefix(input, "/") && !strings.ContainsAny(input, " \t\n")
	if !s.visible {
		return
	}

	s.commands = s.commands[:0:0]
	for _, cmd := range BuiltinCommands {
		if strings.HasPrefix(cmd.Name, input) {
			s.commands = append(s.commands, cmd)
		}
	}
	if s.selected >= len(s.commands) {
		s.selected = 0
	}
}

func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.commands) > 0
}

func (s *Suggestions) Hide() {
	s.visible = false
}

// MoveUp and MoveDown wrap around the list
func (s *Suggestions) MoveUp() {
	if n := len(s.commands); n > 0 {
		s.selected = (s.selected - 1 + n) % n
	}
}

func (s *Suggestions) MoveDown() {
	if n := len(s.commands); n > 0 {
		s.selected = (s.selected + 1) % n
	}
}

// GetSelected returns the highlighted command name, or ""
func (s *Suggestions) GetSelected() string {
	if s.selected < len(s.commands) {
		return s.commands[s.selected].Name
	}
	return ""
}

// View renders the suggestions
func (s *Suggestions) View() string {
	if !s.visible || len(s.commands) == 0 {
		return ""
	}

	t := theme.Current

	name := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(12)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted)
	marker := lipgloss.NewStyle().Foreground(t.Primary)
	box := layout.Panel{
		Title:   "Commands",
		Footer:  "↑↓ move · tab complete · esc cancel",
		Width:   s.width,
		PadX:    1,
		Focused: true,
	}

	rows := make([]string, len(s.commands))
	for i, cmd := range s.commands {
		if i != s.selected {
			rows[i] = marker.Render("  ") + name.Render(cmd.Name) + desc.Render(cmd.Description)
			continue
		}
		rows[i] = lipgloss.NewStyle().
			Background(t.BackgroundSecondary).
			Foreground(t.Text).
			Width(box.InnerWidth()).
			Render(marker.Render("› ") + name.Render(cmd.Name) + desc.Render(cmd.Description))
	}
	return box.Render(strings.Join(rows, "\n"))
}
