package layout

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/simonyos/geochat/internal/tui/theme"
)

// Panel is a rounded box with its title set into the top border. Width and
// Height are outer sizes, border included. A zero Height fits the content;
// otherwise body lines that overflow are cut and counted, and the footer
// always stays visible.
type Panel struct {
	Title   string
	Footer  string
	Width   int
	Height  int
	PadX    int
	PadY    int
	Focused bool
}

// InnerWidth is the width left for content
func (p Panel) InnerWidth() int {
	w := p.Width - 2 - 2*p.PadX
	if w < 1 {
		return 1
	}
	return w
}

// Render draws body inside the panel
func (p Panel) Render(body string) string {
	t := theme.Current
	color := t.Border
	if p.Focused {
		color = t.BorderFocus
	}

	lines := strings.Split(lipgloss.NewStyle().Width(p.InnerWidth()).Render(body), "\n")

	var footer []string
	if p.Footer != "" {
		hint := lipgloss.NewStyle().
			Foreground(t.TextMuted).
			Italic(true).
			Width(p.InnerWidth()).
			Render(p.Footer)
		footer = append([]string{""}, strings.Split(hint, "\n")...)
	}

	if p.Height > 0 {
		room := p.Height - 2 - 2*p.PadY - len(footer)
		if room < 1 {
			room = 1
		}
		if len(lines) > room {
			hidden := len(lines) - room + 1
			lines = append(lines[:room-1], lipgloss.NewStyle().
				Foreground(t.TextMuted).
				Render(fmt.Sprintf("… %d more lines", hidden)))
		}
	}
	lines = append(lines, footer...)

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder(), false, true, true, true).
		BorderForeground(color).
		Padding(p.PadY, p.PadX).
		Width(p.Width - 2)
	if p.Height > 0 {
		box = box.Height(p.Height - 2)
	}

	return p.top(color) + "\n" + box.Render(strings.Join(lines, "\n"))
}

// top draws "╭─ Title ───╮", dropping a title that does not fit
func (p Panel) top(color lipgloss.Color) string {
	b := lipgloss.RoundedBorder()
	edge := lipgloss.NewStyle().Foreground(color)
	span := p.Width - 2
	if span < 0 {
		span = 0
	}

	label := ""
	if p.Title != "" {
		label = lipgloss.NewStyle().
			Foreground(theme.Current.Primary).
			Bold(true).
			Render(" " + p.Title + " ")
	}
	if label == "" || lipgloss.Width(label)+1 > span {
		return edge.Render(b.TopLeft + strings.Repeat(b.Top, span) + b.TopRight)
	}

	rest := span - 1 - lipgloss.Width(label)
	return edge.Render(b.TopLeft+b.Top) + label + edge.Render(strings.Repeat(b.Top, rest)+b.TopRight)
}
