package layout

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestPanelRender(t *testing.T) {
	tests := []struct {
		name      string
		panel     Panel
		body      string
		wantLines int
		contains  []string
		absent    []string
	}{
		{
			name:      "fits content",
			panel:     Panel{Title: "Results", Width: 20},
			body:      "a\nb",
			wantLines: 4,
			contains:  []string{"Results", "a", "b"},
		},
		{
			name:      "cuts overflow",
			panel:     Panel{Title: "Results", Width: 30, Height: 8, PadX: 1},
			body:      strings.TrimSuffix(strings.Repeat("row\n", 21), "\n"),
			wantLines: 8,
			contains:  []string{"16 more lines"},
		},
		{
			name:      "footer survives overflow",
			panel:     Panel{Width: 30, Height: 6, Footer: "3/5 model calls"},
			body:      strings.TrimSuffix(strings.Repeat("row\n", 10), "\n"),
			wantLines: 6,
			contains:  []string{"3/5 model calls", "more lines"},
		},
		{
			name:      "title too long is dropped",
			panel:     Panel{Title: strings.Repeat("x", 40), Width: 20},
			body:      "ok",
			wantLines: 3,
			absent:    []string{"xxxx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tt.panel.Render(tt.body)
			lines := strings.Split(out, "\n")
			if len(lines) != tt.wantLines {
				t.Fatalf("got %d lines, want %d:\n%s", len(lines), tt.wantLines, out)
			}
			for i, line := range lines {
				if w := lipgloss.Width(line); w != tt.panel.Width {
					t.Errorf("line %d width = %d, want %d: %q", i, w, tt.panel.Width, line)
				}
			}
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output missing %q:\n%s", want, out)
				}
			}
			for _, bad := range tt.absent {
				if strings.Contains(out, bad) {
					t.Errorf("output should not contain %q:\n%s", bad, out)
				}
			}
		})
	}
}

func TestBar(t *testing.T) {
	got := Bar(20, "left", "right")
	if lipgloss.Width(got) != 20 || !strings.HasPrefix(got, "left") || !strings.HasSuffix(got, "right") {
		t.Errorf("Bar() = %q", got)
	}

	got = Bar(8, "longleftpart", "right")
	if lipgloss.Width(got) != 8 || !strings.HasSuffix(got, " right") {
		t.Errorf("narrow Bar() = %q, want left cut to fit", got)
	}

	if got = Bar(3, "a", "right"); got != "right" {
		t.Errorf("Bar() without room = %q, want right only", got)
	}
}

func TestSplitPaneToggle(t *testing.T) {
	s := NewSplitPane(100, 10)
	if s.GetLeftWidth() != 100 || s.GetRightWidth() != 0 {
		t.Fatalf("hidden widths = %d/%d", s.GetLeftWidth(), s.GetRightWidth())
	}

	s.Toggle()
	if s.GetLeftWidth() != 65 || s.GetRightWidth() != 35 {
		t.Errorf("shown widths = %d/%d, want 65/35", s.GetLeftWidth(), s.GetRightWidth())
	}
	if lines := strings.Split(s.Render("chat", "results"), "\n"); len(lines) != 10 {
		t.Errorf("Render() = %d lines, want 10", len(lines))
	}
}
