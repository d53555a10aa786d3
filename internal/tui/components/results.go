package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/simonyos/geochat/internal/tui/layout"
	"github.com/simonyos/geochat/internal/tui/theme"
)

// ResultLine is one tool result as shown in the side panel
type ResultLine struct {
	Tool   string
	Text   string
	Failed bool
}

// ResultsPanel lists the tool results of the latest turn
type ResultsPanel struct {
	Width  int
	Height int

	lines []ResultLine
	stats string
}

// NewResultsPanel creates an empty results panel
func NewResultsPanel(width, height int) *ResultsPanel {
	return &ResultsPanel{Width: width, Height: height}
}

// SetSize updates the panel dimensions
func (p *ResultsPanel) SetSize(width, height int) {
	p.Width = width
	p.Height = height
}

// SetResults replaces the listed results and the turn statistics line
func (p *ResultsPanel) SetResults(lines []ResultLine, stats string) {
	p.lines = lines
	p.stats = stats
}

// Add appends a single result while a turn is still running
func (p *ResultsPanel) Add(line ResultLine) {
	p.lines = append(p.lines, line)
}

// Reset clears the panel
func (p *ResultsPanel) Reset() {
	p.lines = nil
	p.stats = ""
}

// View renders the panel
func (p *ResultsPanel) View() string {
	t := theme.Current
	box := layout.Panel{
		Title:  "Results",
		Footer: p.stats,
		Width:  p.Width,
		Height: p.Height,
		PadX:   1,
	}

	if len(p.lines) == 0 {
		return box.Render(lipgloss.NewStyle().
			Foreground(t.TextMuted).
			Italic(true).
			Render("No tool results yet"))
	}

	tool := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	ok := lipgloss.NewStyle().Foreground(t.Success).Render("✓")
	bad := lipgloss.NewStyle().Foreground(t.Error).Render("✗")
	text := lipgloss.NewStyle().Foreground(t.Text).PaddingLeft(2).Width(box.InnerWidth())

	rows := make([]string, 0, len(p.lines))
	for _, line := range p.lines {
		if line.Failed {
			rows = append(rows, bad+" "+tool.Render(line.Tool)+"\n"+text.Foreground(t.Error).Render(line.Text))
			continue
		}
		rows = append(rows, ok+" "+tool.Render(line.Tool)+"\n"+text.Render(line.Text))
	}
	return box.Render(strings.Join(rows, "\n"))
}
