package pipeline

import (
	"context"
	"io"
	"log/slog"
)

// HookFunc is the invocable form of a hook.
//
// Hooks receive the run's context.Context and the shared pipeline Context.
// A hook that needs to await concurrent work does so internally; the
// runner itself never fans hooks out, so at most one hook is in flight
// per run and the total order of observable Context mutations is fixed.
type HookFunc func(ctx context.Context, pc *Context) error

// Registry maps callable_ref strings to invocable hooks.
//
// The registry is owned by the hosting application. Resolution is an
// explicit lookup; the core never resolves refs by runtime introspection
// of loaded code.
type Registry interface {
	Resolve(ref string) (HookFunc, bool)
}

// MapRegistry is the simplest Registry: a plain map.
type MapRegistry map[string]HookFunc

// Resolve implements Registry.
func (m MapRegistry) Resolve(ref string) (HookFunc, bool) {
	fn, ok := m[ref]
	return fn, ok
}

// Runner drives execution plans.
//
// A single Run invocation drives one logical run sequentially: phases in
// canonical order, declared hook order within each phase, one hook in
// flight at any instant.
//
// Thread-safety: a Runner holds no per-run state and may be shared, but
// each Run call owns its Plan's Context exclusively for the call's duration.
type Runner struct {
	logger *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger used for per-hook diagnostics.
// Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// resolvedHook pairs a plan hook with its registry-resolved function.
type resolvedHook struct {
	Hook
	fn HookFunc
}

// Run executes the plan against a fresh Context and returns the result.
//
// Execution contract:
//   - Every callable_ref is resolved up front. A missing ref is a hard,
//     immediate error: Run returns before any hook executes.
//   - preflight/before/execute are fail-fast: the first hook error aborts
//     the remaining hooks in that phase and skips all later non-finalize
//     phases; the error is returned to the caller AFTER finalize has run.
//   - after/emit/finalize are continue-on-error: hook errors are captured
//     in the result and execution proceeds.
//   - finalize executes exactly once per run, including when an earlier
//     fail-fast phase aborted or ctx was cancelled. Finalize failures are
//     captured as result entries and never suppress a pending fail-fast error.
//   - Context cancellation between hooks aborts like a fail-fast error in
//     any phase; finalize hooks still run (with the cancelled ctx).
//
// The returned Result is non-nil whenever hooks began executing; it is nil
// only for the missing-callable case. Result.Success reflects captured
// continue-on-error entries; a non-nil returned error additionally means a
// fail-fast phase aborted the run.
func (r *Runner) Run(ctx context.Context, plan *Plan, reg Registry) (*Result, error) {
	resolved, err := resolvePlan(plan, reg)
	if err != nil {
		r.logger.Error("plan resolution failed", "error", err)
		return nil, err
	}

	pc := NewContext()
	result := newResult(pc)

	// pending holds the fail-fast error to re-raise after finalize.
	var pending error

phases:
	for _, phase := range Phases() {
		if phase == PhaseFinalize {
			break
		}
		for _, h := range resolved[phase] {
			if cerr := ctx.Err(); cerr != nil {
				pending = newCancelledError(phase, cerr)
				break phases
			}

			r.logger.Debug("running hook", "hook_id", h.ID, "phase", phase.String())

			if herr := h.fn(ctx, pc); herr != nil {
				if phase.FailFast() {
					r.logger.Error("hook failed, aborting run",
						"hook_id", h.ID,
						"phase", phase.String(),
						"error", herr,
					)
					pending = NewHookFailedError(h.ID, phase, herr)
					break phases
				}

				r.logger.Warn("hook failed, continuing",
					"hook_id", h.ID,
					"phase", phase.String(),
					"error", herr,
				)
				result.addError(h.ID, phase, herr)
			}
		}
	}

	// finalize ALWAYS runs exactly once, even after a fail-fast abort or
	// cancellation. Its hooks see the same (possibly cancelled) ctx.
	for _, h := range resolved[PhaseFinalize] {
		r.logger.Debug("running hook", "hook_id", h.ID, "phase", "finalize")
		if herr := h.fn(ctx, pc); herr != nil {
			r.logger.Warn("finalize hook failed, continuing",
				"hook_id", h.ID,
				"error", herr,
			)
			result.addError(h.ID, PhaseFinalize, herr)
		}
	}

	if pending != nil {
		result.Success = false
		return result, pending
	}
	return result, nil
}

// resolvePlan resolves every hook's callable_ref before execution starts.
// Resolving up front keeps a missing ref from aborting a half-executed run.
func resolvePlan(plan *Plan, reg Registry) (map[Phase][]resolvedHook, error) {
	resolved := make(map[Phase][]resolvedHook, len(phaseNames))
	for _, phase := range Phases() {
		hooks := plan.HooksFor(phase)
		rs := make([]resolvedHook, 0, len(hooks))
		for _, h := range hooks {
			fn, ok := reg.Resolve(h.CallableRef)
			if !ok {
				return nil, NewMissingCallableError(h.ID, phase, h.CallableRef)
			}
			rs = append(rs, resolvedHook{Hook: h, fn: fn})
		}
		resolved[phase] = rs
	}
	return resolved, nil
}
