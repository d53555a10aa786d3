package tools

import (
	"context"
	"fmt"
)

// Tool is the interface all tools must implement
type Tool interface {
	// Definition returns the structured tool definition
	Definition() ToolDefinition

	// Execute runs the tool with validated arguments
	Execute(ctx context.Context, args map[string]any) (Payload, error)

	// Validate checks if the arguments are valid
	Validate(args map[string]any) error
}

// BaseTool provides common functionality for tools
type BaseTool struct {
	Def ToolDefinition
}

// Definition returns the tool definition
func (b *BaseTool) Definition() ToolDefinition {
	return b.Def
}

// Validate checks arguments against the parameter schema
func (b *BaseTool) Validate(args map[string]any) error {
	return ValidateArgs(b.Def.Name, b.Def.Parameters, args)
}

// HandlerFunc is the invocation handle of a FuncTool
type HandlerFunc func(ctx context.Context, args map[string]any) (Payload, error)

// FuncTool adapts a plain function into a Tool
type FuncTool struct {
	BaseTool
	Handler HandlerFunc
}

// NewFuncTool creates a tool from a definition and a handler
func NewFuncTool(def ToolDefinition, handler HandlerFunc) *FuncTool {
	return &FuncTool{BaseTool: BaseTool{Def: def}, Handler: handler}
}

// Execute calls the handler
func (f *FuncTool) Execute(ctx context.Context, args map[string]any) (Payload, error) {
	if f.Handler == nil {
		return nil, fmt.Errorf("%s: no handler", f.Def.Name)
	}
	return f.Handler(ctx, args)
}
