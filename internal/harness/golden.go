package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/encore/internal/canonical"
)

// RunWithGolden executes a scenario and compares its trace snapshot
// against a golden file under testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files serve as the source of truth for expected run behavior;
// any change to phase ordering, failure policy, or trace shape shows up
// as a golden diff.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Report, error) {
	t.Helper()

	report, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	snapshot, err := canonical.Marshal(report.snapshotMap())
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshot)

	return report, nil
}

// snapshotMap projects a report into a canonical-JSON-friendly map.
// Timestamps and random values are excluded: the trace captures shape and
// order, while value-level determinism is asserted by replay tests.
func (r *Report) snapshotMap() map[string]any {
	traceList := make([]any, len(r.Trace))
	for i, ev := range r.Trace {
		eventMap := map[string]any{
			"hook":  ev.Hook,
			"phase": ev.Phase,
			"event": ev.Event,
		}
		if ev.Draws > 0 {
			eventMap["draws"] = ev.Draws
		}
		if ev.Effect != "" {
			eventMap["effect"] = ev.Effect
		}
		if ev.Error != "" {
			eventMap["error"] = ev.Error
		}
		traceList[i] = eventMap
	}

	snapshot := map[string]any{
		"scenario": r.Scenario,
		"aborted":  r.RunErr != nil,
		"trace":    traceList,
	}

	if r.Result != nil {
		snapshot["success"] = r.Result.Success

		errorList := make([]any, len(r.Result.Errors))
		for i, he := range r.Result.Errors {
			errorList[i] = map[string]any{
				"hook_id":    he.HookID,
				"phase":      he.Phase,
				"error_type": he.ErrorType,
				"message":    he.Message,
			}
		}
		snapshot["errors"] = errorList
	}

	return snapshot
}
