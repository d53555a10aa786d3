package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/simonyos/geochat/internal/tui/theme"
)

// Message represents a chat message
type Message struct {
	Role     string // "user", "assistant", "tool", "system", "error"
	Content  string
	ToolName string
	ToolArgs string
	Running  bool
	Failed   bool
}

// Messages is the scrollable message list component
type Messages struct {
	viewport viewport.Model
	messages []Message
	renderer *glamour.TermRenderer
	width    int
	height   int
	welcome  string
	pending  string // set while the model is deciding the next step
}

// newMarkdown picks the dark style explicitly so glamour never queries the
// terminal for its background
func newMarkdown(width int) *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width-10),
	)
	if err != nil {
		return nil
	}
	return r
}

func NewMessages(width, height int) *Messages {
	return &Messages{
		viewport: viewport.New(width, height),
		messages: []Message{},
		renderer: newMarkdown(width),
		width:    width,
		height:   height,
	}
}

// SetSize updates the component dimensions
func (m *Messages) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height

	m.renderer = newMarkdown(width)
	m.updateContent()
}

// AddMessage adds a new message
func (m *Messages) AddMessage(msg Message) {
	m.messages = append(m.messages, msg)
	m.updateContent()
}

// Clear removes all messages
func (m *Messages) Clear() {
	m.messages = []Message{}
	m.pending = ""
	m.updateContent()
}

// Len returns the number of messages shown
func (m *Messages) Len() int {
	return len(m.messages)
}

// GetViewport returns the viewport for handling scroll input
func (m *Messages) GetViewport() *viewport.Model {
	return &m.viewport
}

// SetWelcome sets the welcome message to show when empty
func (m *Messages) SetWelcome(welcome string) {
	m.welcome = welcome
	m.updateContent()
}

// SetPending shows a placeholder line under the last message
func (m *Messages) SetPending(text string) {
	m.pending = text
	m.updateContent()
}

// FinishTool completes the most recent running call of the named tool
func (m *Messages) FinishTool(name, result string, failed bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := &m.messages[i]
		if msg.Role == "tool" && msg.Running && msg.ToolName == name {
			msg.Running = false
			msg.Failed = failed
			msg.Content = result
			break
		}
	}
	m.updateContent()
}

// maxToolPreview caps the characters of a tool result shown inline
const maxToolPreview = 300

func (m *Messages) updateContent() {
	if len(m.messages) == 0 && m.welcome != "" {
		m.viewport.SetContent(m.welcomeView())
		return
	}

	blocks := make([]string, 0, len(m.messages)+1)
	for _, msg := range m.messages {
		if b := m.renderMessage(msg); b != "" {
			blocks = append(blocks, b)
		}
	}
	if m.pending != "" {
		blocks = append(blocks, assistantHeader()+"\n"+lipgloss.NewStyle().
			Foreground(theme.Current.TextMuted).
			Italic(true).
			PaddingLeft(2).
			Render(m.pending))
	}

	m.viewport.SetContent(strings.Join(blocks, "\n\n") + "\n")
	m.viewport.GotoBottom()
}

func (m *Messages) renderMessage(msg Message) string {
	t := theme.Current
	body := lipgloss.NewStyle().Foreground(t.Text).PaddingLeft(2).Width(m.width - 4)

	switch msg.Role {
	case "user":
		return lipgloss.NewStyle().Foreground(t.Info).Bold(true).Render("◉") + " " +
			lipgloss.NewStyle().Foreground(t.Text).Bold(true).Render("You") + "\n" +
			body.Render(msg.Content)
	case "assistant":
		return assistantHeader() + "\n" + body.Render(m.markdown(msg.Content))
	case "tool":
		return m.renderTool(msg)
	case "system":
		return lipgloss.NewStyle().Foreground(t.Info).Render("ℹ") + " " +
			lipgloss.NewStyle().Foreground(t.TextMuted).Italic(true).Render(msg.Content)
	case "error":
		return lipgloss.NewStyle().Foreground(t.Error).Bold(true).Render("✗") + " " +
			lipgloss.NewStyle().Foreground(t.Error).Render(msg.Content)
	}
	return ""
}

// renderTool draws "◐ name args" while running, then the result under it
func (m *Messages) renderTool(msg Message) string {
	t := theme.Current
	icon, color := "✓", t.Success
	switch {
	case msg.Running:
		icon, color = "◐", t.Warning
	case msg.Failed:
		icon, color = "✗", t.Error
	}

	muted := lipgloss.NewStyle().Foreground(t.TextMuted)
	line := "  " + lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon) + " " +
		muted.Bold(true).Render(msg.ToolName)
	if msg.ToolArgs != "" {
		line += muted.Render(" " + msg.ToolArgs)
	}
	if msg.Running || msg.Content == "" {
		return line
	}

	resultColor := t.TextMuted
	if msg.Failed {
		resultColor = t.Error
	}
	return line + "\n" + lipgloss.NewStyle().
		Foreground(resultColor).
		PaddingLeft(4).
		Width(m.width-10).
		Render("└ "+preview(msg.Content, maxToolPreview))
}

func (m *Messages) markdown(text string) string {
	if m.renderer == nil {
		return text
	}
	out, err := m.renderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(out)
}

// preview cuts s to n runes
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + " ⋯"
}

func assistantHeader() string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Primary).
		Bold(true).
		Render("◎ GeoChat")
}

func (m *Messages) welcomeView() string {
	t := theme.Current
	var sb strings.Builder

	logoStyle := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	logo := `
    ___             ___ _         _
   / __|___ ___    / __| |_  __ _| |_
  | (_ / -_) _ \  | (__| ' \/ _' |  _|
   \___\___\___/   \___|_||_\__,_|\__|`

	sb.WriteString(logoStyle.Render(logo) + "\n\n")

	taglineStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Bold(true)
	sb.WriteString(taglineStyle.Render("   "+m.welcome) + "\n\n")

	sepStyle := lipgloss.NewStyle().
		Foreground(t.Border)
	sb.WriteString(sepStyle.Render("   "+strings.Repeat("─", 40)) + "\n\n")

	tipHeaderStyle := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)
	sb.WriteString(tipHeaderStyle.Render("   Try asking") + "\n\n")

	tipStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted)
	iconStyle := lipgloss.NewStyle().
		Foreground(t.Accent)

	tips := []string{
		"How far is Bangalore from Mumbai?",
		"Which web map tile at zoom 12 covers the Eiffel Tower?",
		"How many hospitals are there in Koramangala?",
		"Find low-cloud Sentinel-2 scenes over Lake Tahoe from last summer",
	}
	for _, tip := range tips {
		sb.WriteString("   " + iconStyle.Render("›") + " " + tipStyle.Render(tip) + "\n")
	}

	sb.WriteString("\n")

	cmdStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Italic(true)
	sb.WriteString(cmdStyle.Render("   Type /help for commands • Enter to send") + "\n")

	return sb.String()
}

// View renders the messages
func (m *Messages) View() string {
	return m.viewport.View()
}
