package llm

import "context"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a chat message
type Message struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // assistant only
	ToolCallID string     `json:"tool_call_id,omitempty"` // tool only
	Name       string     `json:"name,omitempty"`         // tool name for tool messages
	IsError    bool       `json:"is_error,omitempty"`     // tool only, the call failed
}

// Request is a single call to the model service
type Request struct {
	Messages          []Message
	Tools             []ToolDefinition
	ParallelToolCalls bool
	Temperature       float64
}

// Response is the model's next action: text, tool calls, or both
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     Usage
}

// Provider is the interface for LLM backends
type Provider interface {
	// Name identifies the backend in logs and the UI
	Name() string

	// Generate asks the model for its next action
	Generate(ctx context.Context, req Request) (*Response, error)
}
