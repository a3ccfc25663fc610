package engine

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType classifies severity and retry behavior.
type ErrorType string

const (
	// ErrorTypeTransient signals the operation can be retried.
	ErrorTypeTransient ErrorType = "transient"
	// ErrorTypePermanent signals the operation should not be retried.
	ErrorTypePermanent ErrorType = "permanent"
	// ErrorTypeTimeout signals the operation was cancelled by a deadline.
	// Timeouts are retryable under the owning state's policy.
	ErrorTypeTimeout ErrorType = "timeout"
)

// Known error codes emitted by the engine itself. External services may
// surface any string code.
const (
	ErrorCodeRuntimeError     = "RUNTIME_ERROR"
	ErrorCodeDeadlineExceeded = "DEADLINE_EXCEEDED"
	ErrorCodeContextCancelled = "CONTEXT_CANCELLED"
	ErrorCodeRetriesExhausted = "RETRIES_EXHAUSTED"
)

// WorkflowError is the canonical error propagated through an execution.
// Branch-level errors never cross back to the engine raw; they are
// converted to typed branch outcomes first.
type WorkflowError struct {
	Type     ErrorType `json:"type"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	State    State     `json:"state"`
	Attempts int       `json:"attempts"`
	Cause    error     `json:"-"`
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("[%s/%s] %s (state: %s, attempts: %d)", e.Type, e.Code, e.Message, e.State, e.Attempts)
}

func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether a state's retry policy may re-attempt after
// this error.
func (e *WorkflowError) Retryable() bool {
	return e.Type != ErrorTypePermanent
}

// classify converts an arbitrary error into a WorkflowError for the given
// state. Deadline expiry maps to the timeout type; everything else is
// assumed transient unless already classified.
func classify(err error, state State) *WorkflowError {
	var wfErr *WorkflowError
	if errors.As(err, &wfErr) {
		if wfErr.State == "" {
			wfErr.State = state
		}
		return wfErr
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &WorkflowError{
			Type:    ErrorTypeTimeout,
			Code:    ErrorCodeDeadlineExceeded,
			Message: err.Error(),
			State:   state,
			Cause:   err,
		}
	case errors.Is(err, context.Canceled):
		return &WorkflowError{
			Type:    ErrorTypePermanent,
			Code:    ErrorCodeContextCancelled,
			Message: err.Error(),
			State:   state,
			Cause:   err,
		}
	default:
		return &WorkflowError{
			Type:    ErrorTypeTransient,
			Code:    ErrorCodeRuntimeError,
			Message: err.Error(),
			State:   state,
			Cause:   err,
		}
	}
}

// Permanent wraps err as a non-retryable workflow error.
func Permanent(code string, err error) *WorkflowError {
	return &WorkflowError{
		Type:    ErrorTypePermanent,
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}
