package agent

import (
	"context"

	"github.com/simonyos/geochat/internal/tools"
)

// NopHandler ignores every event; embed it to implement only some callbacks
type NopHandler struct{}

func (NopHandler) OnThinking()                                {}
func (NopHandler) OnToolUse(name string, args map[string]any) {}
func (NopHandler) OnToolResult(name string, res tools.Result) {}
func (NopHandler) OnFinish(turn Turn)                         {}

// MultiHandler fans events out to several handlers in order
type MultiHandler []EventHandler

func (m MultiHandler) OnThinking() {
	for _, h := range m {
		h.OnThinking()
	}
}

func (m MultiHandler) OnToolUse(name string, args map[string]any) {
	for _, h := range m {
		h.OnToolUse(name, args)
	}
}

func (m MultiHandler) OnToolResult(name string, res tools.Result) {
	for _, h := range m {
		h.OnToolResult(name, res)
	}
}

func (m MultiHandler) OnFinish(turn Turn) {
	for _, h := range m {
		h.OnFinish(turn)
	}
}

// Combine joins handlers, skipping nils
func Combine(handlers ...EventHandler) EventHandler {
	var m MultiHandler
	for _, h := range handlers {
		if h != nil {
			m = append(m, h)
		}
	}
	switch len(m) {
	case 0:
		return nil
	case 1:
		return m[0]
	}
	return m
}

// StreamEvent represents progress of a turn running in the background
type StreamEvent struct {
	Type string // "start", "thinking", "tool_start", "tool_result", "done", "error"

	// For tool events
	ToolName   string
	ToolArgs   string
	ToolResult string
	ToolError  bool
	Result     *tools.Result

	// For done and error events
	FinalResponse string
	Conversation  Conversation
	Turn          Turn
	Error         error
}

type streamHandler struct {
	ctx    context.Context
	events chan<- StreamEvent
}

func (h streamHandler) send(ev StreamEvent) {
	select {
	case h.events <- ev:
	case <-h.ctx.Done():
	}
}

func (h streamHandler) OnThinking() {
	h.send(StreamEvent{Type: "thinking"})
}

func (h streamHandler) OnToolUse(name string, args map[string]any) {
	h.send(StreamEvent{Type: "tool_start", ToolName: name, ToolArgs: FormatArgs(name, args)})
}

func (h streamHandler) OnToolResult(name string, res tools.Result) {
	r := res
	h.send(StreamEvent{
		Type:       "tool_result",
		ToolName:   name,
		ToolResult: res.Content(),
		ToolError:  !res.OK(),
		Result:     &r,
	})
}

func (h streamHandler) OnFinish(turn Turn) {}

// Stream runs a turn on a background goroutine and reports progress on the
// returned channel. The last event is "done" or "error" and carries the
// updated conversation; the channel is closed afterwards.
func (a *Agent) Stream(ctx context.Context, conv Conversation, text string) <-chan StreamEvent {
	events := make(chan StreamEvent)

	go func() {
		defer close(events)

		sh := streamHandler{ctx: ctx, events: events}
		loop := *a
		loop.handler = Combine(a.handler, sh)

		sh.send(StreamEvent{Type: "start"})
		conv, turn := loop.Run(ctx, conv, text)

		final := StreamEvent{
			Type:          "done",
			FinalResponse: turn.Answer,
			Conversation:  conv,
			Turn:          turn,
		}
		if turn.State == Failed {
			final.Type = "error"
			final.Error = turn.Err
		}
		// the final event is delivered even after cancellation so the
		// caller always gets the conversation back
		events <- final
	}()

	return events
}
