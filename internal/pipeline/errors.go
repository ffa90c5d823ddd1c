package pipeline

import (
	"errors"
	"fmt"
)

// RunError represents an error detected while driving a pipeline run.
//
// Run errors include:
//   - Missing callable: a hook's callable_ref is not in the registry
//   - Hook failure: a fail-fast phase hook returned an error
//   - Cancellation: the run's context was cancelled mid-run
//
// RunError includes structured fields for diagnostics; the underlying
// hook error (if any) is available via errors.Unwrap.
type RunError struct {
	// Code identifies the error category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// HookID identifies the affected hook, when one is known.
	HookID string

	// Phase identifies the phase in which the error occurred.
	Phase Phase

	// Err is the underlying cause, if any.
	Err error
}

// RunErrorCode categorizes run errors.
type RunErrorCode string

const (
	// ErrCodeMissingCallable indicates a callable_ref absent from the registry.
	ErrCodeMissingCallable RunErrorCode = "MISSING_CALLABLE"

	// ErrCodeHookFailed indicates a fail-fast phase hook returned an error.
	ErrCodeHookFailed RunErrorCode = "HOOK_FAILED"

	// ErrCodeCancelled indicates the run context was cancelled.
	ErrCodeCancelled RunErrorCode = "CANCELLED"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if e.HookID != "" {
		return fmt.Sprintf("%s: %s (hook=%s, phase=%s)", e.Code, e.Message, e.HookID, e.Phase)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, enabling errors.Is/errors.As
// against the original hook error.
func (e *RunError) Unwrap() error {
	return e.Err
}

// IsMissingCallable returns true if the error is a missing-callable error.
// Uses errors.As to handle wrapped errors.
func IsMissingCallable(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeMissingCallable
	}
	return false
}

// IsHookFailure returns true if the error is a fail-fast hook failure.
// Uses errors.As to handle wrapped errors.
func IsHookFailure(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeHookFailed
	}
	return false
}

// NewMissingCallableError creates a RunError for an unresolved callable_ref.
func NewMissingCallableError(hookID string, phase Phase, ref string) *RunError {
	return &RunError{
		Code:    ErrCodeMissingCallable,
		Message: fmt.Sprintf("callable_ref %q not found in registry", ref),
		HookID:  hookID,
		Phase:   phase,
	}
}

// NewHookFailedError wraps a hook error raised in a fail-fast phase.
func NewHookFailedError(hookID string, phase Phase, err error) *RunError {
	return &RunError{
		Code:    ErrCodeHookFailed,
		Message: err.Error(),
		HookID:  hookID,
		Phase:   phase,
		Err:     err,
	}
}

// newCancelledError wraps a context cancellation observed between hooks.
func newCancelledError(phase Phase, err error) *RunError {
	return &RunError{
		Code:    ErrCodeCancelled,
		Message: "run cancelled",
		Phase:   phase,
		Err:     err,
	}
}
