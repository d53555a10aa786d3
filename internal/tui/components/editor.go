package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/simonyos/geochat/internal/tui/layout"
	"github.com/simonyos/geochat/internal/tui/theme"
)

const (
	askPlaceholder  = "Ask about a place, a route or a map tile..."
	busyPlaceholder = "waiting for the answer, esc cancels"
)

// Editor is the question input. It is blurred while a turn runs.
type Editor struct {
	textarea textarea.Model
	box      layout.Panel
}

func NewEditor(width, height int) *Editor {
	ta := textarea.New()
	ta.Placeholder = askPlaceholder
	ta.Prompt = "┃ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.Current.TextMuted)
	ta.BlurredStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.Current.TextMuted).Italic(true)
	ta.Focus()

	e := &Editor{
		textarea: ta,
		box:      layout.Panel{Title: "Ask", PadX: 1, Focused: true},
	}
	e.SetSize(width, height)
	return e
}

// SetSize fits the textarea inside a panel of the given outer size
func (e *Editor) SetSize(width, height int) {
	e.box.Width = width
	e.box.Height = height
	e.textarea.SetWidth(e.box.InnerWidth())
	e.textarea.SetHeight(max(height-2, 1))
}

func (e *Editor) Focus() {
	e.box.Focused = true
	e.textarea.Placeholder = askPlaceholder
	e.textarea.Focus()
}

func (e *Editor) Blur() {
	e.box.Focused = false
	e.textarea.Placeholder = busyPlaceholder
	e.textarea.Blur()
}

// Focused reports whether keys go to the editor
func (e *Editor) Focused() bool {
	return e.box.Focused
}

// Value returns the current text with terminal escape replies removed
func (e *Editor) Value() string {
	return strings.TrimSpace(stripOSC(e.textarea.Value()))
}

// stripOSC removes OSC sequences (ESC ] ... BEL or ESC ] ... ESC \) that some
// terminals leak into the input when answering colour queries
func stripOSC(val string) string {
	for {
		start := strings.Index(val, "\x1b]")
		if start == -1 {
			return val
		}
		rest := val[start:]
		end := strings.IndexByte(rest, '\x07')
		size := 1
		if st := strings.Index(rest, "\x1b\\"); st != -1 && (end == -1 || st < end) {
			end, size = st, 2
		}
		if end == -1 {
			return val[:start]
		}
		val = val[:start] + rest[end+size:]
	}
}

func (e *Editor) Reset() {
	e.textarea.Reset()
}

func (e *Editor) SetValue(value string) {
	e.textarea.SetValue(value)
}

func (e *Editor) Update(msg tea.Msg) (*Editor, tea.Cmd) {
	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(msg)
	return e, cmd
}

func (e *Editor) View() string {
	return e.box.Render(e.textarea.View())
}
