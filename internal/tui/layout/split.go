package layout

import (
	"github.com/charmbracelet/lipgloss"
)

// SplitPane divides the chat area between messages and an optional side panel
type SplitPane struct {
	Width  int
	Height int

	// Horizontal split ratio (left vs right)
	LeftRatio float64

	// Whether right panel is visible
	ShowRight bool
}

// NewSplitPane creates a split pane layout
func NewSplitPane(width, height int) *SplitPane {
	return &SplitPane{
		Width:     width,
		Height:    height,
		LeftRatio: 0.65,
		ShowRight: false,
	}
}

// SetSize updates the pane dimensions
func (s *SplitPane) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// Toggle shows or hides the right panel
func (s *SplitPane) Toggle() {
	s.ShowRight = !s.ShowRight
}

// GetLeftWidth returns the width of the left panel
func (s *SplitPane) GetLeftWidth() int {
	if !s.ShowRight {
		return s.Width
	}
	return int(float64(s.Width) * s.LeftRatio)
}

// GetRightWidth returns the width of the right panel
func (s *SplitPane) GetRightWidth() int {
	if !s.ShowRight {
		return 0
	}
	return s.Width - s.GetLeftWidth()
}

// Render joins the panels side by side at the pane height
func (s *SplitPane) Render(left, right string) string {
	if !s.ShowRight || right == "" {
		return lipgloss.NewStyle().Width(s.Width).Height(s.Height).Render(left)
	}

	leftStyle := lipgloss.NewStyle().Width(s.GetLeftWidth()).Height(s.Height)
	rightStyle := lipgloss.NewStyle().Width(s.GetRightWidth()).Height(s.Height)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftStyle.Render(left),
		rightStyle.Render(right),
	)
}
