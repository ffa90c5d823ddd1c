package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// HookError is one captured continue-on-error failure.
//
// ErrorType is a stable classification of the failure: the RunError code
// when the error is a RunError, otherwise the Go type name of the error
// value. Message is the error's text.
type HookError struct {
	HookID    string `json:"hook_id"`
	Phase     string `json:"phase"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// Result is the outcome of one pipeline run.
//
// Success is true iff Errors is empty. A run that "completed" without an
// abort still reports Success=false when any continue-on-error phase
// captured at least one failure.
type Result struct {
	Success bool
	Errors  []HookError
	Context *Context
}

func newResult(pc *Context) *Result {
	return &Result{Success: true, Context: pc}
}

// addError appends a captured hook failure and flips Success to false.
func (r *Result) addError(hookID string, phase Phase, err error) {
	r.Errors = append(r.Errors, HookError{
		HookID:    hookID,
		Phase:     phase.String(),
		ErrorType: errorTypeName(err),
		Message:   err.Error(),
	})
	r.Success = false
}

// errorTypeName classifies an error for result entries.
// RunErrors report their code; other errors report their Go type name
// with package path and pointer marker stripped.
func errorTypeName(err error) string {
	var re *RunError
	if errors.As(err, &re) {
		return string(re.Code)
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return name
}
