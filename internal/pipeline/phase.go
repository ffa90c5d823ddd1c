package pipeline

import "fmt"

// Phase identifies one of the six canonical pipeline stages.
//
// The phase order is a fixed total order and is not configurable per run:
//
//	preflight → before → execute → after → emit → finalize
//
// Each phase carries a fixed failure policy. The first three phases are
// fail-fast: the first hook error aborts the remaining hooks in the phase
// and skips every later phase except finalize. The last three phases are
// continue-on-error: hook errors are captured in the result and execution
// proceeds to the next hook.
type Phase int

const (
	PhasePreflight Phase = iota
	PhaseBefore
	PhaseExecute
	PhaseAfter
	PhaseEmit
	PhaseFinalize
)

// phaseNames maps phases to their wire/display names.
var phaseNames = [...]string{
	PhasePreflight: "preflight",
	PhaseBefore:    "before",
	PhaseExecute:   "execute",
	PhaseAfter:     "after",
	PhaseEmit:      "emit",
	PhaseFinalize:  "finalize",
}

// Phases returns all phases in canonical execution order.
// The returned slice is a fresh copy; callers may not reorder a run.
func Phases() []Phase {
	return []Phase{PhasePreflight, PhaseBefore, PhaseExecute, PhaseAfter, PhaseEmit, PhaseFinalize}
}

// String returns the canonical lowercase phase name.
func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Valid reports whether p is one of the six canonical phases.
func (p Phase) Valid() bool {
	return p >= PhasePreflight && p <= PhaseFinalize
}

// FailFast reports the failure policy for the phase.
// preflight, before, and execute abort the run on first error;
// after, emit, and finalize capture errors and continue.
func (p Phase) FailFast() bool {
	return p == PhasePreflight || p == PhaseBefore || p == PhaseExecute
}

// ParsePhase converts a phase name to its Phase value.
// Names are the canonical lowercase forms produced by String.
func ParsePhase(name string) (Phase, error) {
	for p, n := range phaseNames {
		if n == name {
			return Phase(p), nil
		}
	}
	return 0, fmt.Errorf("unknown phase %q", name)
}
