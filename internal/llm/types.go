package llm

import (
	"encoding/json"
	"errors"
)

var (
	// ErrMalformedResponse is returned when the model reply cannot be interpreted
	ErrMalformedResponse = errors.New("malformed model response")

	// ErrMissingAPIKey is returned when a hosted provider has no key configured
	ErrMissingAPIKey = errors.New("API key not configured")
)

// ToolDefinition describes a tool in the shape sent to the model
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolCall is a tool invocation requested by the model
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON object
}

// DecodeArguments parses the raw JSON arguments into a map.
// An empty argument string decodes to an empty map.
func (c ToolCall) DecodeArguments() (map[string]any, error) {
	args := map[string]any{}
	if c.Arguments == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(c.Arguments), &args); err != nil {
		return nil, err
	}
	if args == nil {
		return nil, ErrMalformedResponse
	}
	return args, nil
}

// Usage counts tokens spent on model calls
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add returns the sum of two usage records
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + other.PromptTokens,
		CompletionTokens: u.CompletionTokens + other.CompletionTokens,
		TotalTokens:      u.TotalTokens + other.TotalTokens,
	}
}
