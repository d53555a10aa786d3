package tools

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrDuplicateName    = errors.New("duplicate tool name")
	ErrSchemaValidation = errors.New("invalid tool arguments")
	ErrToolExecution    = errors.New("tool execution failed")
	ErrInvalidTool      = errors.New("invalid tool")
	ErrNoResult         = errors.New("tool returned no result")
	ErrResponseTooLarge = errors.New("response too large")
)

// UnknownToolError is returned when a name is not registered
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool: %s", e.Name)
}

func (e *UnknownToolError) Is(target error) bool {
	return target == ErrUnknownTool
}

// DuplicateNameError is returned when a name is registered twice
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("tool %s already registered", e.Name)
}

func (e *DuplicateNameError) Is(target error) bool {
	return target == ErrDuplicateName
}

// FieldError describes one offending argument
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// SchemaValidationError lists every argument that failed validation
type SchemaValidationError struct {
	Tool   string
	Fields []FieldError
}

func (e *SchemaValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Reason)
	}
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, strings.Join(parts, "; "))
}

func (e *SchemaValidationError) Is(target error) bool {
	return target == ErrSchemaValidation
}

// ToolExecutionError wraps a failure raised by a tool's handler, including
// panics and timeouts.
type ToolExecutionError struct {
	Tool string
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

func (e *ToolExecutionError) Is(target error) bool {
	return target == ErrToolExecution
}
