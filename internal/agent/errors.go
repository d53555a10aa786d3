package agent

import (
	"errors"
	"fmt"
)

var (
	ErrModelService       = errors.New("model service error")
	ErrLoopBudgetExceeded = errors.New("model call budget exceeded")
)

// ModelServiceError means the model could not be reached or its reply could
// not be used. It fails the turn.
type ModelServiceError struct {
	Provider string
	Err      error
}

func (e *ModelServiceError) Error() string {
	return fmt.Sprintf("model service %s: %v", e.Provider, e.Err)
}

func (e *ModelServiceError) Unwrap() error {
	return e.Err
}

func (e *ModelServiceError) Is(target error) bool {
	return target == ErrModelService
}

// LoopBudgetExceededError means the turn needed more model calls than allowed
type LoopBudgetExceededError struct {
	Limit int
}

func (e *LoopBudgetExceededError) Error() string {
	return fmt.Sprintf("stopped after %d model calls without a final answer", e.Limit)
}

func (e *LoopBudgetExceededError) Is(target error) bool {
	return target == ErrLoopBudgetExceeded
}
