package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/simonyos/geochat/internal/llm"
)

// DefaultTimeout bounds a single tool invocation
const DefaultTimeout = 30 * time.Second

// Registry manages tool registration and invocation. Names are unique and a
// registered tool is never replaced or removed.
type Registry struct {
	mu      sync.RWMutex
	tools   map[string]Tool
	timeout time.Duration
	logger  *slog.Logger
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools:   make(map[string]Tool),
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}
}

// SetTimeout changes the per-call deadline
func (r *Registry) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultTimeout
	}
	r.mu.Lock()
	r.timeout = d
	r.mu.Unlock()
}

// SetLogger replaces the registry logger
func (r *Registry) SetLogger(l *slog.Logger) {
	if l == nil {
		return
	}
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("%w: nil tool", ErrInvalidTool)
	}
	name := tool.Definition().Name
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidTool)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return &DuplicateNameError{Name: name}
	}
	r.tools[name] = tool
	return nil
}

// Resolve retrieves a tool by name
func (r *Registry) Resolve(name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	if !ok {
		return nil, &UnknownToolError{Name: name}
	}
	return t, nil
}

// Names returns the registered names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// List returns all registered tool definitions, sorted by name
func (r *Registry) List() []ToolDefinition {
	names := r.Names()
	defs := make([]ToolDefinition, 0, len(names))
	for _, name := range names {
		t, err := r.Resolve(name)
		if err != nil {
			continue
		}
		defs = append(defs, t.Definition())
	}
	return defs
}

// Definitions returns tool definitions in the shape sent to the model
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := r.List()
	result := make([]llm.ToolDefinition, 0, len(defs))
	for _, def := range defs {
		result = append(result, llm.ToolDefinition{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  jsonSchemaToMap(def.Parameters),
		})
	}
	return result
}

// Subset builds a new registry holding only the named tools. An empty list
// copies every tool.
func (r *Registry) Subset(names []string) (*Registry, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	sub := NewRegistry()
	r.mu.RLock()
	sub.timeout = r.timeout
	sub.logger = r.logger
	r.mu.RUnlock()

	for _, name := range names {
		t, err := r.Resolve(name)
		if err != nil {
			return nil, err
		}
		if err := sub.Register(t); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// Invoke resolves, validates and runs a tool call. Every failure, including
// unknown names, bad arguments, handler errors, panics and timeouts, comes
// back as a failure-tagged Result.
func (r *Registry) Invoke(ctx context.Context, call llm.ToolCall) Result {
	r.mu.RLock()
	timeout, logger := r.timeout, r.logger
	r.mu.RUnlock()

	tool, err := r.Resolve(call.Name)
	if err != nil {
		logger.Warn("tool_unknown", "tool", call.Name, "call_id", call.ID)
		return Failure(call.ID, call.Name, err)
	}

	args, err := call.DecodeArguments()
	if err != nil {
		return Failure(call.ID, call.Name, &SchemaValidationError{
			Tool:   call.Name,
			Fields: []FieldError{{Field: "arguments", Reason: "not a JSON object"}},
		})
	}

	if err := tool.Validate(args); err != nil {
		logger.Warn("tool_args_invalid", "tool", call.Name, "call_id", call.ID, "error", err.Error())
		var schemaErr *SchemaValidationError
		if !errors.As(err, &schemaErr) {
			err = &SchemaValidationError{Tool: call.Name, Fields: []FieldError{{Field: "arguments", Reason: err.Error()}}}
		}
		return Failure(call.ID, call.Name, err)
	}

	start := time.Now()
	payload, err := run(ctx, tool, args, timeout)
	if err == nil && payload == nil {
		err = ErrNoResult
	}
	if err != nil {
		logger.Warn("tool_invoke_failed",
			"tool", call.Name,
			"call_id", call.ID,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err.Error(),
		)
		return Failure(call.ID, call.Name, &ToolExecutionError{Tool: call.Name, Err: err})
	}

	logger.Debug("tool_invoked",
		"tool", call.Name,
		"call_id", call.ID,
		"kind", string(payload.Kind()),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return Success(call.ID, call.Name, payload)
}

type outcome struct {
	payload Payload
	err     error
}

// run executes the handler on its own goroutine so a handler that ignores
// its context still cannot hold the caller past the deadline.
func run(ctx context.Context, tool Tool, args map[string]any, timeout time.Duration) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		p, err := tool.Execute(ctx, args)
		done <- outcome{payload: p, err: err}
	}()

	select {
	case o := <-done:
		return o.payload, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
