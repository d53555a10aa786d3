package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/simonyos/geochat/internal/tui/layout"
	"github.com/simonyos/geochat/internal/tui/theme"
)

// Header shows the app name, the active profile and the session id
type Header struct {
	Width     int
	Version   string
	Profile   string
	SessionID string
}

func NewHeader(width int, version, profile, sessionID string) *Header {
	return &Header{
		Width:     width,
		Version:   version,
		Profile:   profile,
		SessionID: sessionID,
	}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the title row and a rule under it
func (h *Header) View() string {
	t := theme.Current

	id := h.SessionID
	if len(id) > 8 {
		id = id[:8]
	}

	left := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("◎ GeoChat") +
		"  " +
		lipgloss.NewStyle().
			Foreground(t.TextMuted).
			Background(t.BackgroundSecondary).
			Padding(0, 1).
			Render("v"+h.Version)

	right := lipgloss.NewStyle().Foreground(t.Success).Render("●") + " " +
		lipgloss.NewStyle().Foreground(t.Text).Bold(true).Render(h.Profile) +
		lipgloss.NewStyle().Foreground(t.TextMuted).Render(" · "+id)

	rule := lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", max(h.Width, 0)))
	return layout.Bar(h.Width, left, right) + "\n" + rule
}
