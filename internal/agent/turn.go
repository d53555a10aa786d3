package agent

import (
	"time"

	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/tools"
)

// State is the position of a turn in the tool-routing loop
type State int

const (
	AwaitingModel State = iota
	AwaitingTool
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case AwaitingModel:
		return "awaiting_model"
	case AwaitingTool:
		return "awaiting_tool"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Turn tracks one user turn: its state, the queued tool calls, the results so
// far and the tokens spent. It is passed into and returned from each step.
type Turn struct {
	ID            string
	State         State
	StartedAt     time.Time
	ModelCalls    int
	MaxModelCalls int

	// Pending holds tool calls from the last model response not yet run
	Pending []llm.ToolCall
	Results []tools.Result
	Usage   llm.Usage

	// Answer is the final assistant text (Done) or the diagnostic (Failed)
	Answer string
	Err    error
}

// Finished reports whether the turn reached Done or Failed
func (t Turn) Finished() bool {
	return t.State == Done || t.State == Failed
}

// Duration returns how long the turn has been running
func (t Turn) Duration() time.Duration {
	return time.Since(t.StartedAt)
}

// Summary returns a summary of the turn for logs and the API
func (t Turn) Summary() map[string]any {
	s := map[string]any{
		"id":              t.ID,
		"state":           t.State.String(),
		"started_at":      t.StartedAt,
		"duration":        t.Duration().String(),
		"model_calls":     t.ModelCalls,
		"max_model_calls": t.MaxModelCalls,
		"tool_results":    len(t.Results),
		"total_tokens":    t.Usage.TotalTokens,
	}
	if t.Err != nil {
		s["error"] = t.Err.Error()
	}
	return s
}
