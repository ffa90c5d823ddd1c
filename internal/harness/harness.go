// Package harness provides a conformance testing framework for the
// pipeline runner and replay layer.
//
// Scenarios are YAML files describing a pipeline of scripted hooks. The
// harness builds a real execution plan, runs it through the real runner
// under a recording session, and exposes the execution trace, the run
// result, and the captured manifest for assertions and golden-file
// comparison.
//
// Determinism: the harness wires a stepping clock and sequential session
// IDs, so two runs of the same scenario produce byte-identical traces and
// manifests. That makes golden files stable and lets tests replay a
// scenario's manifest and compare outcomes exactly.
package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/encore/internal/pipeline"
	"github.com/roach88/encore/internal/replay"
	"github.com/roach88/encore/internal/testutil"
)

// TraceEvent is one executed hook in the run trace.
type TraceEvent struct {
	Hook   string
	Phase  string
	Event  string // "ok" or "fail"
	Draws  int    // random floats consumed
	Effect string // effect type recorded, if any
	Error  string // error message when Event is "fail"
}

// Report is the outcome of running a scenario.
type Report struct {
	Scenario string
	Result   *pipeline.Result
	RunErr   error // fail-fast error returned by the runner, if any
	Trace    []TraceEvent
	Manifest *replay.Manifest
}

// Run executes a scenario and returns its report.
//
// The scenario runs under a fresh recording session with deterministic
// time and session identity; the pipeline and registry are rebuilt per
// run, so scenarios are isolated from each other.
func Run(scenario *Scenario) (*Report, error) {
	hooks := make([]pipeline.Hook, 0, len(scenario.Hooks))
	for _, h := range scenario.Hooks {
		phase, err := pipeline.ParsePhase(h.Phase)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		hooks = append(hooks, pipeline.Hook{
			ID:          h.ID,
			Phase:       phase,
			CallableRef: "scripted:" + h.ID,
		})
	}

	plan, err := pipeline.NewPlan(hooks)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: build plan: %w", scenario.Name, err)
	}

	report := &Report{Scenario: scenario.Name}

	registry := make(pipeline.MapRegistry, len(scenario.Hooks))
	for _, h := range scenario.Hooks {
		registry["scripted:"+h.ID] = scriptedHook(h, report)
	}

	exec := replay.NewExecutor(
		replay.WithClock(testutil.NewSteppingClock()),
		replay.WithIDGenerator(testutil.NewSequentialIDs().Next),
	)
	session := exec.NewRecordingSessionSeeded(scenario.RngSeed)

	runner := pipeline.NewRunner()
	ctx := replay.WithSession(context.Background(), session)

	report.Result, report.RunErr = runner.Run(ctx, plan, registry)
	report.Manifest = exec.CaptureManifest(session)

	return report, nil
}

// scriptedHook builds the HookFunc for one scripted step.
// The hook consumes the declared number of random draws, records the
// declared effect, appends its trace event, and returns the scripted
// outcome.
func scriptedHook(step HookStep, report *Report) pipeline.HookFunc {
	return func(ctx context.Context, pc *pipeline.Context) error {
		session, ok := replay.SessionFromContext(ctx)
		if !ok {
			return fmt.Errorf("hook %s: no session on context", step.ID)
		}

		for i := 0; i < step.Draws; i++ {
			pc.Set(fmt.Sprintf("%s.draw.%d", step.ID, i), session.Rng.Float64())
		}

		event := TraceEvent{
			Hook:  step.ID,
			Phase: step.Phase,
			Event: OutcomeOK,
			Draws: step.Draws,
		}

		if step.Effect != nil {
			session.Effects.Record(step.Effect.Type, step.Effect.Intent, step.Effect.Result)
			event.Effect = step.Effect.Type
		}

		pc.Set("last_hook", step.ID)

		if step.Outcome == OutcomeFail {
			event.Event = OutcomeFail
			event.Error = step.Message
			report.Trace = append(report.Trace, event)
			return errors.New(step.Message)
		}

		report.Trace = append(report.Trace, event)
		return nil
	}
}

// ExecutedHooks returns the hook IDs in execution order.
func (r *Report) ExecutedHooks() []string {
	out := make([]string, len(r.Trace))
	for i, ev := range r.Trace {
		out[i] = ev.Hook
	}
	return out
}
