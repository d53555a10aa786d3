package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/simonyos/geochat/internal/agent"
	"github.com/simonyos/geochat/internal/tools"
)

func TestResultLines(t *testing.T) {
	lines := resultLines([]tools.Result{
		tools.Success("call_1", "distance", tools.Distance{Kilometers: 845.2}),
		tools.Failure("call_2", "tile", errors.New("zoom must be between 0 and 22")),
	})

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Tool != "distance" || lines[0].Text != "845.20 km" || lines[0].Failed {
		t.Errorf("line 0 = %+v", lines[0])
	}
	if !lines[1].Failed || !strings.Contains(lines[1].Text, "zoom") {
		t.Errorf("line 1 = %+v", lines[1])
	}
}

func TestTurnStats(t *testing.T) {
	if got := turnStats(agent.Turn{}); got != "" {
		t.Errorf("empty turn should have no stats, got %q", got)
	}

	turn := agent.Turn{
		ID:            "t1",
		State:         agent.Done,
		StartedAt:     time.Now(),
		ModelCalls:    3,
		MaxModelCalls: 5,
	}
	turn.Usage.TotalTokens = 120

	got := turnStats(turn)
	for _, want := range []string{"done", "3/5 model calls", "120 tokens"} {
		if !strings.Contains(got, want) {
			t.Errorf("turnStats() = %q, missing %q", got, want)
		}
	}
}

func TestFirstSentence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Geocode a place. Returns latitude and longitude.", "Geocode a place."},
		{"Single sentence", "Single sentence"},
		{"  padded.  ", "padded."},
	}
	for _, tt := range tests {
		if got := firstSentence(tt.in); got != tt.want {
			t.Errorf("firstSentence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestReadNextEvent(t *testing.T) {
	events := make(chan agent.StreamEvent, 4)
	events <- agent.StreamEvent{Type: "start"}
	events <- agent.StreamEvent{Type: "tool_start", ToolName: "geocode", ToolArgs: "Paris"}
	events <- agent.StreamEvent{Type: "done", Turn: agent.Turn{Answer: "48.86, 2.35"}}
	close(events)

	msg := readNextEvent(events)()
	start, ok := msg.(streamToolStartMsg)
	if !ok {
		t.Fatalf("expected tool start (start is skipped), got %T", msg)
	}
	if start.name != "geocode" || start.args != "Paris" {
		t.Errorf("tool start = %+v", start)
	}

	msg = readNextEvent(events)()
	done, ok := msg.(streamDoneMsg)
	if !ok {
		t.Fatalf("expected done, got %T", msg)
	}
	if done.event.Turn.Answer != "48.86, 2.35" {
		t.Errorf("answer = %q", done.event.Turn.Answer)
	}

	if _, ok := readNextEvent(events)().(streamDoneMsg); !ok {
		t.Error("closed channel should report done")
	}
}
