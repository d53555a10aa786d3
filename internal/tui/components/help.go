package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/simonyos/geochat/internal/tui/layout"
	"github.com/simonyos/geochat/internal/tui/theme"
)

// HelpDialog lists the key bindings and slash commands
type HelpDialog struct {
	Width int
}

func NewHelpDialog() *HelpDialog {
	return &HelpDialog{Width: 60}
}

var keyBindings = [][2]string{
	{"enter", "Send message"},
	{"esc", "Cancel the running turn"},
	{"ctrl+r", "Toggle results panel"},
	{"ctrl+l", "Clear chat"},
	{"pgup/pgdn", "Scroll messages"},
	{"ctrl+c", "Quit"},
}

// View renders the key bindings followed by the slash commands
func (h *HelpDialog) View() string {
	t := theme.Current
	key := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(t.Text)

	rows := make([]string, 0, len(keyBindings)+len(BuiltinCommands)+1)
	for _, kv := range keyBindings {
		rows = append(rows, key.Render(kv[0])+desc.Render(kv[1]))
	}
	rows = append(rows, "")
	for _, cmd := range BuiltinCommands {
		rows = append(rows, key.Render(cmd.Name)+desc.Render(cmd.Description))
	}

	return layout.Panel{
		Title:   "Keys",
		Footer:  "press any key to close",
		Width:   h.Width,
		PadX:    2,
		PadY:    1,
		Focused: true,
	}.Render(strings.Join(rows, "\n"))
}

// PlaceOverlay centers the dialog on a blank screen of the given size
func PlaceOverlay(overlay string, width, height int) string {
	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(theme.Current.Background),
	)
}
