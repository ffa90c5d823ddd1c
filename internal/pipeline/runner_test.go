package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRegistry builds hooks that append their ID to a shared trace,
// optionally failing. Refs are "ok:<id>" or "fail:<id>".
func recordingRegistry(trace *[]string) MapRegistry {
	reg := MapRegistry{}
	add := func(ref, id string, fail bool) {
		reg[ref] = func(ctx context.Context, pc *Context) error {
			*trace = append(*trace, id)
			if fail {
				return errors.New(id + " failed")
			}
			return nil
		}
	}
	for _, id := range []string{"A", "B", "C", "D", "E", "F"} {
		add("ok:"+id, id, false)
		add("fail:"+id, id, true)
	}
	return reg
}

func TestRunAllPhasesSucceed(t *testing.T) {
	var trace []string
	reg := recordingRegistry(&trace)

	plan, err := NewPlan([]Hook{
		{ID: "A", Phase: PhasePreflight, CallableRef: "ok:A"},
		{ID: "B", Phase: PhaseBefore, CallableRef: "ok:B"},
		{ID: "C", Phase: PhaseExecute, CallableRef: "ok:C"},
		{ID: "D", Phase: PhaseAfter, CallableRef: "ok:D"},
		{ID: "E", Phase: PhaseEmit, CallableRef: "ok:E"},
		{ID: "F", Phase: PhaseFinalize, CallableRef: "ok:F"},
	})
	require.NoError(t, err)

	result, err := NewRunner().Run(context.Background(), plan, reg)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
	assert.Equal(t, []string{"A", "B", "C", "D", "E", "F"}, trace)
}

func TestRunFailFastSkipsToFinalize(t *testing.T) {
	var trace []string
	reg := recordingRegistry(&trace)

	// B fails in the before phase: C (execute) is skipped, D (finalize)
	// still runs, and the hook error surfaces from Run.
	plan, err := NewPlan([]Hook{
		{ID: "A", Phase: PhasePreflight, CallableRef: "ok:A"},
		{ID: "B", Phase: PhaseBefore, CallableRef: "fail:B"},
		{ID: "C", Phase: PhaseExecute, CallableRef: "ok:C"},
		{ID: "D", Phase: PhaseFinalize, CallableRef: "ok:D"},
	})
	require.NoError(t, err)

	result, err := NewRunner().Run(context.Background(), plan, reg)
	require.Error(t, err)
	require.NotNil(t, result)

	assert.Equal(t, []string{"A", "B", "D"}, trace)
	assert.False(t, result.Success)

	var re *RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeHookFailed, re.Code)
	assert.Equal(t, "B", re.HookID)
	assert.Equal(t, PhaseBefore, re.Phase)
}

func TestRunFailFastAbortsRemainingHooksInPhase(t *testing.T) {
	var trace []string
	reg := recordingRegistry(&trace)

	plan, err := NewPlan([]Hook{
		{ID: "A", Phase: PhaseExecute, CallableRef: "fail:A"},
		{ID: "B", Phase: PhaseExecute, CallableRef: "ok:B"},
	})
	require.NoError(t, err)

	_, err = NewRunner().Run(context.Background(), plan, reg)
	require.Error(t, err)
	assert.Equal(t, []string{"A"}, trace)
}

func TestRunContinueOnErrorCapturesAndProceeds(t *testing.T) {
	var trace []string
	reg := recordingRegistry(&trace)

	plan, err := NewPlan([]Hook{
		{ID: "A", Phase: PhaseAfter, CallableRef: "fail:A"},
		{ID: "B", Phase: PhaseAfter, CallableRef: "ok:B"},
		{ID: "C", Phase: PhaseEmit, CallableRef: "fail:C"},
		{ID: "D", Phase: PhaseFinalize, CallableRef: "ok:D"},
	})
	require.NoError(t, err)

	// Continue-on-error failures never surface from Run.
	result, err := NewRunner().Run(context.Background(), plan, reg)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D"}, trace)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 2)

	assert.Equal(t, "A", result.Errors[0].HookID)
	assert.Equal(t, "after", result.Errors[0].Phase)
	assert.Equal(t, "errorString", result.Errors[0].ErrorType)
	assert.Equal(t, "A failed", result.Errors[0].Message)

	assert.Equal(t, "C", result.Errors[1].HookID)
	assert.Equal(t, "emit", result.Errors[1].Phase)
}

func TestRunFinalizeFailureDoesNotSuppressAbort(t *testing.T) {
	var trace []string
	reg := recordingRegistry(&trace)

	plan, err := NewPlan([]Hook{
		{ID: "A", Phase: PhaseExecute, CallableRef: "fail:A"},
		{ID: "B", Phase: PhaseFinalize, CallableRef: "fail:B"},
		{ID: "C", Phase: PhaseFinalize, CallableRef: "ok:C"},
	})
	require.NoError(t, err)

	result, err := NewRunner().Run(context.Background(), plan, reg)

	// The execute-phase abort surfaces; the finalize failure is captured.
	require.Error(t, err)
	var re *RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "A", re.HookID)

	assert.Equal(t, []string{"A", "B", "C"}, trace)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "B", result.Errors[0].HookID)
	assert.Equal(t, "finalize", result.Errors[0].Phase)
}

func TestRunMissingCallableAbortsBeforeAnyHook(t *testing.T) {
	var trace []string
	reg := recordingRegistry(&trace)

	// The unresolved ref sits in emit, but resolution is whole-plan and
	// up-front: not even the preflight hook runs, finalize included.
	plan, err := NewPlan([]Hook{
		{ID: "A", Phase: PhasePreflight, CallableRef: "ok:A"},
		{ID: "B", Phase: PhaseEmit, CallableRef: "refs/not-registered"},
		{ID: "C", Phase: PhaseFinalize, CallableRef: "ok:C"},
	})
	require.NoError(t, err)

	result, err := NewRunner().Run(context.Background(), plan, reg)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, trace)

	assert.True(t, IsMissingCallable(err))
	var re *RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "B", re.HookID)
	assert.Equal(t, PhaseEmit, re.Phase)
}

func TestRunCancellationStillRunsFinalize(t *testing.T) {
	var trace []string
	reg := recordingRegistry(&trace)

	ctx, cancel := context.WithCancel(context.Background())
	reg["cancel:A"] = func(_ context.Context, pc *Context) error {
		trace = append(trace, "A")
		cancel()
		return nil
	}

	plan, err := NewPlan([]Hook{
		{ID: "A", Phase: PhasePreflight, CallableRef: "cancel:A"},
		{ID: "B", Phase: PhaseBefore, CallableRef: "ok:B"},
		{ID: "C", Phase: PhaseFinalize, CallableRef: "ok:C"},
	})
	require.NoError(t, err)

	result, err := NewRunner().Run(ctx, plan, reg)
	require.Error(t, err)
	require.NotNil(t, result)

	// B is skipped by the cancellation check, C still runs.
	assert.Equal(t, []string{"A", "C"}, trace)
	assert.False(t, result.Success)

	var re *RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeCancelled, re.Code)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunSharesContextAcrossPhases(t *testing.T) {
	reg := MapRegistry{
		"writer": func(_ context.Context, pc *Context) error {
			pc.Set("token", "issued-by-preflight")
			return nil
		},
		"reader": func(_ context.Context, pc *Context) error {
			v, ok := pc.Get("token")
			if !ok || v != "issued-by-preflight" {
				return errors.New("token not visible")
			}
			pc.Set("seen", true)
			return nil
		},
	}

	plan, err := NewPlan([]Hook{
		{ID: "w", Phase: PhasePreflight, CallableRef: "writer"},
		{ID: "r", Phase: PhaseFinalize, CallableRef: "reader"},
	})
	require.NoError(t, err)

	result, err := NewRunner().Run(context.Background(), plan, reg)
	require.NoError(t, err)
	assert.True(t, result.Success)

	seen, ok := result.Context.Get("seen")
	require.True(t, ok)
	assert.Equal(t, true, seen)
}

func TestRunEmptyPlan(t *testing.T) {
	plan, err := NewPlan(nil)
	require.NoError(t, err)

	result, err := NewRunner().Run(context.Background(), plan, MapRegistry{})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Errors)
}
