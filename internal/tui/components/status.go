package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/simonyos/geochat/internal/tui/layout"
	"github.com/simonyos/geochat/internal/tui/theme"
)

// Status is the bottom row: key hints or a transient message, then the model
type Status struct {
	Width      int
	Model      string
	Thinking   bool
	Message    string
	TokenCount int
}

// NewStatus creates a new status bar
func NewStatus(width int) *Status {
	return &Status{
		Width: width,
	}
}

// SetWidth updates the status bar width
func (s *Status) SetWidth(width int) {
	s.Width = width
}

func (s *Status) SetThinking(thinking bool) {
	s.Thinking = thinking
}

// SetMessage sets the status message
func (s *Status) SetMessage(msg string) {
	s.Message = msg
}

func (s *Status) SetModel(model string) {
	s.Model = model
}

// SetTokens sets the session token total
func (s *Status) SetTokens(n int) {
	s.TokenCount = n
}

const defaultHint = "enter send · ctrl+r results · esc cancel · ctrl+c quit"

// View renders the hint on the left and the model badge on the right. The
// badge turns into a spinner label while a turn runs.
func (s *Status) View() string {
	t := theme.Current

	hint := s.Message
	if hint == "" {
		hint = defaultHint
	}

	var badge string
	switch {
	case s.Thinking:
		badge = lipgloss.NewStyle().Foreground(t.Primary).Render("● thinking...")
	case s.TokenCount > 0:
		badge = badgeStyle().Render(fmt.Sprintf("%s · %d tok", s.Model, s.TokenCount))
	default:
		badge = badgeStyle().Render(s.Model)
	}

	return layout.Bar(s.Width, lipgloss.NewStyle().Foreground(t.TextMuted).Render(hint), badge)
}

func badgeStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(theme.Current.TextMuted).
		Background(theme.Current.BackgroundSecondary).
		Padding(0, 1)
}
