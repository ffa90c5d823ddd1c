package harness

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/encore/internal/pipeline"
)

// EvaluateAssertions checks every scenario assertion against a report.
// Returns one message per failed assertion; an empty slice means all
// assertions held.
func EvaluateAssertions(report *Report, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if msg := evaluateAssertion(report, &a); msg != "" {
			failures = append(failures, fmt.Sprintf("assertions[%d] (%s): %s", i, a.Type, msg))
		}
	}
	return failures
}

func evaluateAssertion(report *Report, a *Assertion) string {
	switch a.Type {
	case AssertOrder:
		got := report.ExecutedHooks()
		if !slices.Equal(got, a.Hooks) {
			return fmt.Sprintf("execution order %v, want %v", got, a.Hooks)
		}

	case AssertErrors:
		if report.Result == nil {
			return "no result captured"
		}
		if len(report.Result.Errors) != a.Count {
			return fmt.Sprintf("captured %d error entries, want %d", len(report.Result.Errors), a.Count)
		}

	case AssertSuccess:
		if report.Result == nil {
			return "no result captured"
		}
		if report.Result.Success != a.Value {
			return fmt.Sprintf("success=%v, want %v", report.Result.Success, a.Value)
		}

	case AssertAborts:
		if report.RunErr == nil {
			return fmt.Sprintf("run completed without aborting, want abort from hook %q", a.Hook)
		}
		var re *pipeline.RunError
		if !errors.As(report.RunErr, &re) || re.Code != pipeline.ErrCodeHookFailed {
			return fmt.Sprintf("run aborted with %v, want hook failure", report.RunErr)
		}
		if re.HookID != a.Hook {
			return fmt.Sprintf("run aborted at hook %q, want %q", re.HookID, a.Hook)
		}

	default:
		return fmt.Sprintf("unknown assertion type %q", a.Type)
	}

	return ""
}
