package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/tools"
)

// DefaultMaxModelCalls bounds model calls per user turn
const DefaultMaxModelCalls = 5

// EventHandler receives callbacks during agent execution
type EventHandler interface {
	OnThinking()
	OnToolUse(name string, args map[string]any)
	OnToolResult(name string, result tools.Result)
	OnFinish(turn Turn)
}

// Options configures an Agent
type Options struct {
	MaxModelCalls int
	Temperature   float64
	Logger        *slog.Logger
}

// Agent runs the tool-routing loop against a provider and a tool registry.
// It holds no conversation state; callers own the Conversation and Turn.
type Agent struct {
	provider      llm.Provider
	registry      *tools.Registry
	maxModelCalls int
	temperature   float64
	handler       EventHandler
	logger        *slog.Logger
}

// New creates a new agent
func New(provider llm.Provider, registry *tools.Registry, opts Options) *Agent {
	if opts.MaxModelCalls <= 0 {
		opts.MaxModelCalls = DefaultMaxModelCalls
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Agent{
		provider:      provider,
		registry:      registry,
		maxModelCalls: opts.MaxModelCalls,
		temperature:   opts.Temperature,
		logger:        opts.Logger,
	}
}

// SetEventHandler sets the callback handler for agent events
func (a *Agent) SetEventHandler(h EventHandler) {
	a.handler = h
}

// Registry returns the agent's tools
func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// Provider returns the agent's model backend
func (a *Agent) Provider() llm.Provider {
	return a.provider
}

// Begin appends the user's message and opens a turn awaiting the model
func (a *Agent) Begin(conv Conversation, text string) (Conversation, Turn) {
	turn := Turn{
		ID:            uuid.NewString(),
		State:         AwaitingModel,
		StartedAt:     time.Now(),
		MaxModelCalls: a.maxModelCalls,
	}
	return conv.Append(userMessage(text)), turn
}

// Run processes one user turn to completion. It never returns an error: a
// failed turn ends in Failed with a diagnostic assistant message appended,
// and the conversation stays usable.
func (a *Agent) Run(ctx context.Context, conv Conversation, text string) (Conversation, Turn) {
	conv, turn := a.Begin(conv, text)
	for !turn.Finished() {
		conv, turn = a.Step(ctx, conv, turn)
	}
	return conv, turn
}

// Step performs one transition of the loop
func (a *Agent) Step(ctx context.Context, conv Conversation, turn Turn) (Conversation, Turn) {
	switch turn.State {
	case AwaitingModel:
		return a.stepModel(ctx, conv, turn)
	case AwaitingTool:
		return a.stepTool(ctx, conv, turn)
	}
	return conv, turn
}

func (a *Agent) stepModel(ctx context.Context, conv Conversation, turn Turn) (Conversation, Turn) {
	if turn.ModelCalls >= turn.MaxModelCalls {
		return a.fail(conv, turn, &LoopBudgetExceededError{Limit: turn.MaxModelCalls})
	}
	if err := ctx.Err(); err != nil {
		return a.fail(conv, turn, &ModelServiceError{Provider: a.provider.Name(), Err: err})
	}

	if a.handler != nil {
		a.handler.OnThinking()
	}

	turn.ModelCalls++
	start := time.Now()
	resp, err := a.provider.Generate(ctx, llm.Request{
		Messages:          conv.LLMMessages(),
		Tools:             a.registry.Definitions(),
		ParallelToolCalls: false,
		Temperature:       a.temperature,
	})
	if err != nil {
		return a.fail(conv, turn, &ModelServiceError{Provider: a.provider.Name(), Err: err})
	}
	if resp == nil {
		return a.fail(conv, turn, &ModelServiceError{
			Provider: a.provider.Name(),
			Err:      fmt.Errorf("%w: empty response", llm.ErrMalformedResponse),
		})
	}
	turn.Usage = turn.Usage.Add(resp.Usage)

	a.logger.Debug("model_call",
		"turn_id", turn.ID,
		"model_calls", turn.ModelCalls,
		"tool_calls", len(resp.ToolCalls),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	calls, err := normalizeCalls(resp.ToolCalls)
	if err != nil {
		return a.fail(conv, turn, &ModelServiceError{Provider: a.provider.Name(), Err: err})
	}

	if len(calls) == 0 {
		if strings.TrimSpace(resp.Content) == "" {
			return a.fail(conv, turn, &ModelServiceError{
				Provider: a.provider.Name(),
				Err:      fmt.Errorf("%w: no content and no tool calls", llm.ErrMalformedResponse),
			})
		}
		conv = conv.Append(assistantMessage(resp.Content, nil))
		turn.State = Done
		turn.Answer = resp.Content
		a.finish(turn)
		return conv, turn
	}

	conv = conv.Append(assistantMessage(resp.Content, calls))
	turn.Pending = calls
	turn.State = AwaitingTool
	return conv, turn
}

func (a *Agent) stepTool(ctx context.Context, conv Conversation, turn Turn) (Conversation, Turn) {
	if len(turn.Pending) == 0 {
		turn.State = AwaitingModel
		return conv, turn
	}

	call := turn.Pending[0]
	turn.Pending = turn.Pending[1:]

	if a.handler != nil {
		args, _ := call.DecodeArguments()
		a.handler.OnToolUse(call.Name, args)
	}

	res := a.registry.Invoke(ctx, call)

	if a.handler != nil {
		a.handler.OnToolResult(call.Name, res)
	}

	conv = conv.Append(toolMessage(call, res))
	turn.Results = append(turn.Results, res)
	if len(turn.Pending) == 0 {
		turn.State = AwaitingModel
	}
	return conv, turn
}

// fail ends the turn with a diagnostic message the user can see
func (a *Agent) fail(conv Conversation, turn Turn, err error) (Conversation, Turn) {
	a.logger.Error("turn_failed",
		"turn_id", turn.ID,
		"model_calls", turn.ModelCalls,
		"error", err.Error(),
	)
	turn.State = Failed
	turn.Err = err
	turn.Pending = nil
	turn.Answer = diagnostic(err)
	conv = conv.Append(assistantMessage(turn.Answer, nil))
	a.finish(turn)
	return conv, turn
}

func (a *Agent) finish(turn Turn) {
	a.logger.Info("turn_finished",
		"turn_id", turn.ID,
		"state", turn.State.String(),
		"model_calls", turn.ModelCalls,
		"tool_results", len(turn.Results),
		"total_tokens", turn.Usage.TotalTokens,
	)
	if a.handler != nil {
		a.handler.OnFinish(turn)
	}
}

func diagnostic(err error) string {
	switch e := err.(type) {
	case *LoopBudgetExceededError:
		return fmt.Sprintf("Sorry, I could not finish this request within %d model calls. Try asking a narrower question.", e.Limit)
	default:
		return fmt.Sprintf("Sorry, the language model is unavailable right now (%v). Please try again.", err)
	}
}

// normalizeCalls assigns ids to calls that lack one and rejects calls the
// loop cannot route.
func normalizeCalls(calls []llm.ToolCall) ([]llm.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	out := make([]llm.ToolCall, 0, len(calls))
	for i, c := range calls {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("%w: tool call %d has no name", llm.ErrMalformedResponse, i)
		}
		if _, err := c.DecodeArguments(); err != nil {
			return nil, fmt.Errorf("%w: arguments for %s are not a JSON object", llm.ErrMalformedResponse, c.Name)
		}
		if c.ID == "" {
			c.ID = "call_" + uuid.NewString()
		}
		out = append(out, c)
	}
	return out, nil
}

// FormatArgs creates a display string for tool arguments
func FormatArgs(toolName string, args map[string]any) string {
	switch toolName {
	case "geocode", "geometry", "network":
		place, _ := args["place"].(string)
		if toolName == "network" {
			if kind, ok := args["network_type"].(string); ok {
				return place + " (" + kind + ")"
			}
		}
		if toolName == "geometry" {
			tags, _ := json.Marshal(args["tags"])
			return place + " " + string(tags)
		}
		return place
	case "web_search":
		if q, ok := args["query"].(string); ok {
			return q
		}
	case "distance":
		return fmt.Sprintf("(%v, %v) → (%v, %v)", args["lat1"], args["lon1"], args["lat2"], args["lon2"])
	case "tile", "stac_search":
		s := fmt.Sprintf("%v, %v", args["latitude"], args["longitude"])
		if toolName == "tile" {
			return s + fmt.Sprintf(" z%v", args["zoom"])
		}
		return s + fmt.Sprintf(" %v..%v", args["start"], args["end"])
	}
	bytes, _ := json.Marshal(args)
	return string(bytes)
}
