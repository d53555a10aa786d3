package layout

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar lays out one row with left pinned to the start and right to the end.
// When both do not fit, right wins and left is cut.
func Bar(width int, left, right string) string {
	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap >= 1 {
		return left + strings.Repeat(" ", gap) + right
	}
	room := width - lipgloss.Width(right) - 1
	if room < 1 {
		return right
	}
	return lipgloss.NewStyle().MaxWidth(room).Render(left) + " " + right
}
