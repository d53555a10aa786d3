package components

import (
	"strings"
	"testing"
)

func TestStripOSC(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "distance from [12.9; 77.6]", "distance from [12.9; 77.6]"},
		{"bell terminated", "\x1b]11;rgb:0000/0000/0000\x07hello", "hello"},
		{"st terminated", "hi\x1b]10;rgb:ffff/ffff/ffff\x1b\\ there", "hi there"},
		{"unterminated", "where\x1b]11;rgb:00", "where"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripOSC(tt.in); got != tt.want {
				t.Errorf("stripOSC(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSuggestionsFilter(t *testing.T) {
	s := NewSuggestions()

	s.Filter("/p")
	if !s.IsVisible() {
		t.Fatal("expected suggestions for /p")
	}
	if got := s.GetSelected(); got != "/profiles" {
		t.Errorf("expected /profiles, got %s", got)
	}

	s.Filter("/r")
	s.MoveDown()
	if got := s.GetSelected(); got != "/results" {
		t.Errorf("expected /results after moving down, got %s", got)
	}

	s.MoveDown()
	if got := s.GetSelected(); got != "/reset" {
		t.Errorf("expected selection to wrap to /reset, got %s", got)
	}
	s.MoveUp()
	if got := s.GetSelected(); got != "/results" {
		t.Errorf("expected MoveUp to wrap to /results, got %s", got)
	}

	s.Filter("how far")
	if s.IsVisible() {
		t.Error("plain text should hide suggestions")
	}

	s.Filter("/map out.geojson")
	if s.IsVisible() {
		t.Error("typing an argument should hide suggestions")
	}

	s.Filter("/zzz")
	if s.IsVisible() {
		t.Error("no match should hide suggestions")
	}
}

func TestMessagesFinishTool(t *testing.T) {
	m := NewMessages(80, 20)
	m.AddMessage(Message{Role: "tool", ToolName: "geocode", Running: true})
	m.AddMessage(Message{Role: "tool", ToolName: "distance", Running: true})

	m.FinishTool("geocode", "12.97, 77.59", false)
	m.FinishTool("distance", "failed: boom", true)

	if m.messages[0].Running || m.messages[0].Content != "12.97, 77.59" {
		t.Errorf("geocode not finished: %+v", m.messages[0])
	}
	if !m.messages[1].Failed {
		t.Errorf("distance should be failed: %+v", m.messages[1])
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 messages, got %d", m.Len())
	}
}

func TestResultsPanelView(t *testing.T) {
	p := NewResultsPanel(40, 12)
	if !strings.Contains(p.View(), "No tool results yet") {
		t.Error("empty panel should say so")
	}

	p.SetResults([]ResultLine{
		{Tool: "distance", Text: "1000.00 km"},
		{Tool: "tile", Text: "failed: zoom out of range", Failed: true},
	}, "done · 3/5 model calls")

	view := p.View()
	for _, want := range []string{"distance", "1000.00 km", "zoom out of range", "3/5 model calls"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	p.Reset()
	if !strings.Contains(p.View(), "No tool results yet") {
		t.Error("reset panel should be empty")
	}
}

func TestHelpListsEveryCommand(t *testing.T) {
	view := NewHelpDialog().View()
	for _, cmd := range BuiltinCommands {
		if !strings.Contains(view, cmd.Name) {
			t.Errorf("help is missing %s", cmd.Name)
		}
	}
}

func TestSuggestionsView(t *testing.T) {
	s := NewSuggestions()
	s.SetWidth(60)
	if s.View() != "" {
		t.Error("hidden suggestions should render nothing")
	}

	s.Filter("/t")
	view := s.View()
	if !strings.Contains(view, "Commands") || !strings.Contains(view, "/tools") {
		t.Errorf("view = %q", view)
	}
	if strings.Contains(view, "/quit") {
		t.Error("filtered view should not list /quit")
	}
}

func TestEditorBlurWhileBusy(t *testing.T) {
	e := NewEditor(60, 5)
	if !e.Focused() {
		t.Fatal("new editor should take input")
	}
	if lines := strings.Split(e.View(), "\n"); len(lines) != 5 {
		t.Errorf("View() = %d lines, want 5", len(lines))
	}

	e.Blur()
	if e.Focused() || !strings.Contains(e.View(), "esc cancels") {
		t.Errorf("blurred editor should show the busy hint:\n%s", e.View())
	}

	e.Focus()
	if !e.Focused() || !strings.Contains(e.View(), "Ask about a place") {
		t.Errorf("refocused editor should show the question hint:\n%s", e.View())
	}
}

func TestPreviewCutsRunes(t *testing.T) {
	if got := preview("Zürich", 10); got != "Zürich" {
		t.Errorf("short text changed: %q", got)
	}
	if got := preview("Zürich–Genève", 3); got != "Zür ⋯" {
		t.Errorf("preview() = %q, want %q", got, "Zür ⋯")
	}
}

func TestMessagesRenderTool(t *testing.T) {
	m := NewMessages(80, 20)
	running := m.renderMessage(Message{Role: "tool", ToolName: "geocode", ToolArgs: "Pune", Running: true})
	if !strings.Contains(running, "◐") || strings.Contains(running, "└") {
		t.Errorf("running tool = %q", running)
	}

	done := m.renderMessage(Message{Role: "tool", ToolName: "geocode", Content: "18.52, 73.85"})
	if !strings.Contains(done, "✓") || !strings.Contains(done, "└ 18.52, 73.85") {
		t.Errorf("finished tool = %q", done)
	}

	if m.renderMessage(Message{Role: "unknown"}) != "" {
		t.Error("unknown roles should render nothing")
	}
}
