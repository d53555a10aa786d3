package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/simonyos/geochat/internal/llm"
	"github.com/simonyos/geochat/internal/logging"
	"github.com/simonyos/geochat/internal/tools"
)

// MockProvider replays scripted responses and records every request
type MockProvider struct {
	mu        sync.Mutex
	responses []func(req llm.Request) (*llm.Response, error)
	requests  []llm.Request
	fallback  func(req llm.Request) (*llm.Response, error)
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if len(m.responses) == 0 {
		if m.fallback != nil {
			return m.fallback(req)
		}
		return &llm.Response{Content: "final response"}, nil
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next(req)
}

func (m *MockProvider) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func reply(text string) func(llm.Request) (*llm.Response, error) {
	return func(llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: text, Usage: llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}}, nil
	}
}

func toolCalls(calls ...llm.ToolCall) func(llm.Request) (*llm.Response, error) {
	return func(llm.Request) (*llm.Response, error) {
		return &llm.Response{ToolCalls: calls, Usage: llm.Usage{PromptTokens: 20, CompletionTokens: 3, TotalTokens: 23}}, nil
	}
}

// MockEventHandler records events for testing
type MockEventHandler struct {
	ThinkingCalls  int
	ToolUseCalls   []string
	ToolResultLogs []string
	Finished       []Turn
}

func (h *MockEventHandler) OnThinking() {
	h.ThinkingCalls++
}

func (h *MockEventHandler) OnToolUse(name string, args map[string]any) {
	h.ToolUseCalls = append(h.ToolUseCalls, name)
}

func (h *MockEventHandler) OnToolResult(name string, result tools.Result) {
	status := "ok"
	if !result.OK() {
		status = "error"
	}
	h.ToolResultLogs = append(h.ToolResultLogs, name+":"+status)
}

func (h *MockEventHandler) OnFinish(turn Turn) {
	h.Finished = append(h.Finished, turn)
}

func newTestAgent(t *testing.T, provider llm.Provider, extra ...tools.Tool) *Agent {
	t.Helper()
	reg := tools.NewRegistry()
	reg.SetLogger(logging.Discard())
	if err := reg.Register(tools.NewDistanceTool()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	for _, tool := range extra {
		if err := reg.Register(tool); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	return New(provider, reg, Options{Logger: logging.Discard()})
}

func TestNewAgent(t *testing.T) {
	a := newTestAgent(t, &MockProvider{})
	if a.maxModelCalls != DefaultMaxModelCalls {
		t.Errorf("maxModelCalls = %d, want %d", a.maxModelCalls, DefaultMaxModelCalls)
	}
	if a.Registry() == nil || a.Provider() == nil {
		t.Error("New() should keep registry and provider")
	}
}

func TestAgent_Run_SimpleResponse(t *testing.T) {
	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){reply("Hello! Ask me about places.")}}
	a := newTestAgent(t, provider)
	handler := &MockEventHandler{}
	a.SetEventHandler(handler)

	conv := NewConversation("system prompt")
	conv, turn := a.Run(context.Background(), conv, "Hi there")

	if turn.State != Done {
		t.Fatalf("State = %v, want done", turn.State)
	}
	if turn.Answer != "Hello! Ask me about places." {
		t.Errorf("Answer = %q", turn.Answer)
	}
	if conv.Len() != 3 {
		t.Errorf("conversation length = %d, want 3 (system, user, assistant)", conv.Len())
	}
	if handler.ThinkingCalls != 1 || len(handler.Finished) != 1 {
		t.Errorf("events: thinking=%d finished=%d", handler.ThinkingCalls, len(handler.Finished))
	}
	if turn.Usage.TotalTokens != 15 {
		t.Errorf("Usage.TotalTokens = %d, want 15", turn.Usage.TotalTokens)
	}

	req := provider.requests[0]
	if req.ParallelToolCalls {
		t.Error("requests must disable parallel tool calls")
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != "distance" {
		t.Errorf("request tools = %+v", req.Tools)
	}
	if req.Messages[0].Role != llm.RoleSystem || req.Messages[1].Content != "Hi there" {
		t.Errorf("request messages = %+v", req.Messages)
	}
}

func TestAgent_DistanceScenario(t *testing.T) {
	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
		toolCalls(llm.ToolCall{ID: "call_d", Name: "distance", Arguments: `{"lat1":12.9,"lon1":77.6,"lat2":19.0,"lon2":72.8}`}),
		func(req llm.Request) (*llm.Response, error) {
			last := req.Messages[len(req.Messages)-1]
			if last.Role != llm.RoleTool || last.ToolCallID != "call_d" {
				return nil, fmt.Errorf("model did not see the tool result: %+v", last)
			}
			return &llm.Response{Content: "The distance is " + last.Content}, nil
		},
	}}
	a := newTestAgent(t, provider)

	conv, turn := a.Run(context.Background(), NewConversation("sys"), "distance between (12.9,77.6) and (19.0,72.8)")

	if turn.State != Done {
		t.Fatalf("State = %v (err %v), want done", turn.State, turn.Err)
	}
	if len(turn.Results) != 1 || !turn.Results[0].OK() {
		t.Fatalf("Results = %+v", turn.Results)
	}
	d, ok := turn.Results[0].Payload.(tools.Distance)
	if !ok {
		t.Fatalf("payload = %T, want Distance", turn.Results[0].Payload)
	}
	want := tools.GeodesicKm(12.9, 77.6, 19.0, 72.8)
	if d.Kilometers != want || d.Kilometers < 700 || d.Kilometers > 900 {
		t.Errorf("Kilometers = %v, want %v", d.Kilometers, want)
	}
	if !strings.Contains(turn.Answer, fmt.Sprintf("%.3f", want)) {
		t.Errorf("Answer %q should mention %.3f", turn.Answer, want)
	}
	// system, user, assistant(call), tool, assistant
	if conv.Len() != 5 {
		t.Errorf("conversation length = %d, want 5", conv.Len())
	}
	if turn.ModelCalls != 2 {
		t.Errorf("ModelCalls = %d, want 2", turn.ModelCalls)
	}
}

func TestAgent_GeometryFailureScenario(t *testing.T) {
	geometry := tools.NewFuncTool(tools.ToolDefinition{
		Name: "geometry",
		Parameters: &tools.JSONSchema{
			Type: "object",
			Properties: map[string]*tools.JSONSchema{
				"place": {Type: "string"},
				"tags":  {Type: "object"},
			},
			Required: []string{"place", "tags"},
		},
	}, func(ctx context.Context, args map[string]any) (tools.Payload, error) {
		return nil, errors.New("dial tcp: network is unreachable")
	})

	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
		toolCalls(llm.ToolCall{ID: "call_g", Name: "geometry", Arguments: `{"place":"Bangalore","tags":{"amenity":"hospital"}}`}),
		func(req llm.Request) (*llm.Response, error) {
			last := req.Messages[len(req.Messages)-1]
			if !strings.HasPrefix(last.Content, "error:") {
				return nil, fmt.Errorf("expected failure text, got %q", last.Content)
			}
			return &llm.Response{Content: "I could not find hospital data for Bangalore."}, nil
		},
	}}
	a := newTestAgent(t, provider, geometry)
	handler := &MockEventHandler{}
	a.SetEventHandler(handler)

	_, turn := a.Run(context.Background(), NewConversation("sys"), "hospitals in Bangalore")

	if turn.State != Done {
		t.Fatalf("State = %v (err %v), want done", turn.State, turn.Err)
	}
	if len(turn.Results) != 1 || turn.Results[0].OK() {
		t.Fatalf("want one failure result, got %+v", turn.Results)
	}
	if !errors.Is(turn.Results[0].Err, tools.ErrToolExecution) {
		t.Errorf("result error = %v, want ToolExecutionError", turn.Results[0].Err)
	}
	if strings.Join(handler.ToolResultLogs, ",") != "geometry:error" {
		t.Errorf("ToolResultLogs = %v", handler.ToolResultLogs)
	}
}

func TestAgent_PanickingToolDoesNotFailTurn(t *testing.T) {
	boom := tools.NewFuncTool(tools.ToolDefinition{Name: "boom"}, func(ctx context.Context, args map[string]any) (tools.Payload, error) {
		panic("index out of range")
	})
	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
		toolCalls(llm.ToolCall{ID: "c1", Name: "boom", Arguments: `{}`}),
		reply("That tool is broken."),
	}}
	a := newTestAgent(t, provider, boom)

	_, turn := a.Run(context.Background(), NewConversation("sys"), "go")
	if turn.State != Done {
		t.Fatalf("State = %v, want done", turn.State)
	}
	if turn.Results[0].OK() {
		t.Error("panicking tool should give a failure result")
	}
}

func TestAgent_UnknownToolIsRecovered(t *testing.T) {
	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
		toolCalls(llm.ToolCall{ID: "c1", Name: "teleport", Arguments: `{}`}),
		reply("No such tool."),
	}}
	a := newTestAgent(t, provider)

	_, turn := a.Run(context.Background(), NewConversation("sys"), "beam me up")
	if turn.State != Done {
		t.Fatalf("State = %v, want done", turn.State)
	}
	var unknown *tools.UnknownToolError
	if !errors.As(turn.Results[0].Err, &unknown) {
		t.Errorf("result error = %v, want UnknownToolError", turn.Results[0].Err)
	}
}

func TestAgent_BudgetExceeded(t *testing.T) {
	n := 0
	provider := &MockProvider{fallback: func(llm.Request) (*llm.Response, error) {
		n++
		return &llm.Response{ToolCalls: []llm.ToolCall{{
			ID: fmt.Sprintf("c%d", n), Name: "distance", Arguments: `{"lat1":0,"lon1":0,"lat2":0,"lon2":1}`,
		}}}, nil
	}}

	for _, limit := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("limit %d", limit), func(t *testing.T) {
			before := provider.calls()
			reg := tools.NewRegistry()
			_ = reg.Register(tools.NewDistanceTool())
			a := New(provider, reg, Options{MaxModelCalls: limit, Logger: logging.Discard()})
			handler := &MockEventHandler{}
			a.SetEventHandler(handler)

			conv, turn := a.Run(context.Background(), NewConversation("sys"), "loop forever")

			if got := provider.calls() - before; got != limit {
				t.Errorf("model calls = %d, want %d", got, limit)
			}
			if turn.State != Failed {
				t.Fatalf("State = %v, want failed", turn.State)
			}
			var budget *LoopBudgetExceededError
			if !errors.As(turn.Err, &budget) || budget.Limit != limit {
				t.Errorf("Err = %v, want LoopBudgetExceededError{%d}", turn.Err, limit)
			}
			if !errors.Is(turn.Err, ErrLoopBudgetExceeded) {
				t.Error("error should match ErrLoopBudgetExceeded")
			}
			last, _ := conv.Last()
			if last.Role != llm.RoleAssistant || !strings.Contains(last.Content, "model calls") {
				t.Errorf("last message = %+v, want diagnostic", last)
			}
			if len(handler.Finished) != 1 || handler.Finished[0].State != Failed {
				t.Errorf("OnFinish not reported once with Failed: %+v", handler.Finished)
			}
		})
	}
}

func TestAgent_ModelErrorLeavesSessionUsable(t *testing.T) {
	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
		func(llm.Request) (*llm.Response, error) { return nil, errors.New("connection refused") },
		reply("Back online."),
	}}
	a := newTestAgent(t, provider)

	conv, turn := a.Run(context.Background(), NewConversation("sys"), "first")
	if turn.State != Failed {
		t.Fatalf("State = %v, want failed", turn.State)
	}
	var mse *ModelServiceError
	if !errors.As(turn.Err, &mse) || mse.Provider != "mock" {
		t.Errorf("Err = %v, want ModelServiceError from mock", turn.Err)
	}
	if conv.Len() != 3 {
		t.Errorf("conversation length = %d, want 3 (system, user, diagnostic)", conv.Len())
	}

	conv, turn = a.Run(context.Background(), conv, "second")
	if turn.State != Done || turn.Answer != "Back online." {
		t.Errorf("second turn = %v %q", turn.State, turn.Answer)
	}
	if conv.Len() != 5 {
		t.Errorf("conversation length = %d, want 5", conv.Len())
	}
}

func TestAgent_MalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		resp *llm.Response
	}{
		{"no response", nil},
		{"empty", &llm.Response{}},
		{"blank text", &llm.Response{Content: "  \n"}},
		{"nameless call", &llm.Response{ToolCalls: []llm.ToolCall{{ID: "x", Arguments: `{}`}}}},
		{"arguments not an object", &llm.Response{ToolCalls: []llm.ToolCall{{ID: "x", Name: "distance", Arguments: `"oops"`}}}},
		{"arguments null", &llm.Response{ToolCalls: []llm.ToolCall{{ID: "x", Name: "distance", Arguments: `null`}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.resp
			provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
				func(llm.Request) (*llm.Response, error) { return resp, nil },
			}}
			a := newTestAgent(t, provider)

			conv, turn := a.Run(context.Background(), NewConversation("sys"), "hi")
			if turn.State != Failed {
				t.Fatalf("State = %v, want failed", turn.State)
			}
			if !errors.Is(turn.Err, llm.ErrMalformedResponse) || !errors.Is(turn.Err, ErrModelService) {
				t.Errorf("Err = %v, want malformed model response", turn.Err)
			}
			// no tool-call message may be left without its results
			if conv.Len() != 3 {
				t.Errorf("conversation length = %d, want 3", conv.Len())
			}
		})
	}
}

func TestAgent_ThreeCallsRunInOrder(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(name string) tools.Tool {
		return tools.NewFuncTool(tools.ToolDefinition{Name: name}, func(ctx context.Context, args map[string]any) (tools.Payload, error) {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return tools.Text{Text: name + " done"}, nil
		})
	}

	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
		toolCalls(
			llm.ToolCall{ID: "1", Name: "geocode_a"},
			llm.ToolCall{ID: "2", Name: "geocode_b"},
			llm.ToolCall{ID: "3", Name: "geocode_c"},
		),
		func(req llm.Request) (*llm.Response, error) {
			// all three results precede the next model call
			n := len(req.Messages)
			for i, id := range []string{"1", "2", "3"} {
				m := req.Messages[n-3+i]
				if m.Role != llm.RoleTool || m.ToolCallID != id {
					return nil, fmt.Errorf("message %d = %+v", n-3+i, m)
				}
			}
			return &llm.Response{Content: "all done"}, nil
		},
	}}
	a := newTestAgent(t, provider, record("geocode_c"), record("geocode_a"), record("geocode_b"))
	handler := &MockEventHandler{}
	a.SetEventHandler(handler)

	_, turn := a.Run(context.Background(), NewConversation("sys"), "three things")
	if turn.State != Done {
		t.Fatalf("State = %v (err %v), want done", turn.State, turn.Err)
	}
	if got := strings.Join(order, ","); got != "geocode_a,geocode_b,geocode_c" {
		t.Errorf("invocation order = %s", got)
	}
	if got := strings.Join(handler.ToolUseCalls, ","); got != "geocode_a,geocode_b,geocode_c" {
		t.Errorf("ToolUseCalls = %s", got)
	}
}

func TestAgent_StepByStep(t *testing.T) {
	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
		toolCalls(llm.ToolCall{Name: "distance", Arguments: `{"lat1":0,"lon1":0,"lat2":1,"lon2":0}`}),
		reply("done"),
	}}
	a := newTestAgent(t, provider)

	conv, turn := a.Begin(NewConversation("sys"), "how far")
	if turn.State != AwaitingModel || conv.Len() != 2 {
		t.Fatalf("after Begin: state %v len %d", turn.State, conv.Len())
	}

	conv, turn = a.Step(context.Background(), conv, turn)
	if turn.State != AwaitingTool || len(turn.Pending) != 1 {
		t.Fatalf("after model step: state %v pending %d", turn.State, len(turn.Pending))
	}
	request, _ := conv.Last()
	id := request.ToolCalls[0].ID
	if !strings.HasPrefix(id, "call_") {
		t.Errorf("generated call id = %q", id)
	}

	before := conv.Len()
	conv, turn = a.Step(context.Background(), conv, turn)
	if conv.Len() != before+1 || turn.State != AwaitingModel {
		t.Fatalf("after tool step: len %d state %v", conv.Len(), turn.State)
	}
	// request and result together add exactly two messages
	if conv.Len()-(before-1) != 2 {
		t.Errorf("round trip added %d messages", conv.Len()-(before-1))
	}
	result, _ := conv.Last()
	if result.ToolCallID != id || result.Result == nil || result.Result.CallID != id {
		t.Errorf("tool message reference = %q, want %q", result.ToolCallID, id)
	}

	conv, turn = a.Step(context.Background(), conv, turn)
	if turn.State != Done {
		t.Fatalf("final state = %v", turn.State)
	}

	// a finished turn is left untouched
	again, same := a.Step(context.Background(), conv, turn)
	if again.Len() != conv.Len() || same.State != Done || provider.calls() != 2 {
		t.Error("Step on a finished turn should be a no-op")
	}
}

func TestAgent_CancelledContextFails(t *testing.T) {
	provider := &MockProvider{}
	a := newTestAgent(t, provider)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, turn := a.Run(ctx, NewConversation("sys"), "hi")
	if turn.State != Failed || !errors.Is(turn.Err, context.Canceled) {
		t.Errorf("turn = %v %v, want failed with context.Canceled", turn.State, turn.Err)
	}
	if provider.calls() != 0 {
		t.Errorf("provider called %d times after cancel", provider.calls())
	}
}

func TestAgent_Stream(t *testing.T) {
	provider := &MockProvider{responses: []func(llm.Request) (*llm.Response, error){
		toolCalls(llm.ToolCall{ID: "s1", Name: "distance", Arguments: `{"lat1":0,"lon1":0,"lat2":0,"lon2":1}`}),
		reply("about 111 km"),
	}}
	a := newTestAgent(t, provider)

	var types []string
	var last StreamEvent
	for ev := range a.Stream(context.Background(), NewConversation("sys"), "how far") {
		types = append(types, ev.Type)
		last = ev
		if ev.Type == "tool_start" && ev.ToolArgs != "(0, 0) → (0, 1)" {
			t.Errorf("ToolArgs = %q", ev.ToolArgs)
		}
	}

	want := "start,thinking,tool_start,tool_result,thinking,done"
	if got := strings.Join(types, ","); got != want {
		t.Errorf("events = %s, want %s", got, want)
	}
	if last.FinalResponse != "about 111 km" || last.Conversation.Len() != 5 {
		t.Errorf("done event = %q, len %d", last.FinalResponse, last.Conversation.Len())
	}
}

func TestFormatArgs(t *testing.T) {
	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{"geocode", map[string]any{"place": "Pune"}, "Pune"},
		{"network", map[string]any{"place": "Pune", "network_type": "walk"}, "Pune (walk)"},
		{"geometry", map[string]any{"place": "Pune", "tags": map[string]any{"amenity": "school"}}, `Pune {"amenity":"school"}`},
		{"tile", map[string]any{"latitude": 1.5, "longitude": 2.0, "zoom": 9.0}, "1.5, 2 z9"},
		{"web_search", map[string]any{"query": "tallest tower"}, "tallest tower"},
		{"other", map[string]any{"k": "v"}, `{"k":"v"}`},
	}
	for _, tt := range tests {
		if got := FormatArgs(tt.tool, tt.args); got != tt.want {
			t.Errorf("FormatArgs(%s) = %q, want %q", tt.tool, got, tt.want)
		}
	}
}
