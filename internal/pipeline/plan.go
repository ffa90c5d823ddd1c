package pipeline

import "fmt"

// Hook is a unit of work bound to exactly one pipeline phase.
//
// CallableRef is an opaque string resolved through a Registry at run time.
// The core never introspects loaded code to resolve refs; resolution is an
// explicit string-to-function lookup owned by the hosting application.
type Hook struct {
	ID          string
	Phase       Phase
	CallableRef string
}

// Plan is an immutable execution plan: an ordered list of hooks per phase.
//
// Hook order within a phase is declaration order and is never re-sorted.
// A Plan is built once (typically by a contract loader outside this core)
// and shared read-only with the runner.
//
// INVARIANTS:
//   - Hook IDs are unique across the whole plan
//   - Per-phase hook order never changes after construction
type Plan struct {
	byPhase [PhaseFinalize + 1][]Hook
	count   int
}

// NewPlan builds a plan from hooks in declaration order.
//
// Hooks are grouped by phase preserving the order in which they appear in
// the input slice. The input is copied; later mutation of the caller's
// slice does not affect the plan.
//
// Returns an error if a hook has an empty ID or CallableRef, an invalid
// phase, or a duplicate ID.
func NewPlan(hooks []Hook) (*Plan, error) {
	p := &Plan{}
	seen := make(map[string]bool, len(hooks))

	for i, h := range hooks {
		if h.ID == "" {
			return nil, fmt.Errorf("hook[%d]: id is required", i)
		}
		if h.CallableRef == "" {
			return nil, fmt.Errorf("hook %q: callable_ref is required", h.ID)
		}
		if !h.Phase.Valid() {
			return nil, fmt.Errorf("hook %q: invalid phase %d", h.ID, int(h.Phase))
		}
		if seen[h.ID] {
			return nil, fmt.Errorf("duplicate hook ID: %s", h.ID)
		}
		seen[h.ID] = true

		p.byPhase[h.Phase] = append(p.byPhase[h.Phase], h)
		p.count++
	}

	return p, nil
}

// HooksFor returns the hooks declared for a phase, in declaration order.
// The returned slice is a copy; callers cannot mutate the plan through it.
func (p *Plan) HooksFor(phase Phase) []Hook {
	if !phase.Valid() {
		return nil
	}
	src := p.byPhase[phase]
	out := make([]Hook, len(src))
	copy(out, src)
	return out
}

// Len returns the total number of hooks in the plan.
func (p *Plan) Len() int {
	return p.count
}

// Hooks returns every hook in canonical execution order:
// phases in canonical order, declaration order within each phase.
func (p *Plan) Hooks() []Hook {
	out := make([]Hook, 0, p.count)
	for _, phase := range Phases() {
		out = append(out, p.byPhase[phase]...)
	}
	return out
}
