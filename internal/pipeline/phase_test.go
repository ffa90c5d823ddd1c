package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhasesCanonicalOrder(t *testing.T) {
	want := []Phase{PhasePreflight, PhaseBefore, PhaseExecute, PhaseAfter, PhaseEmit, PhaseFinalize}
	assert.Equal(t, want, Phases())
}

func TestPhaseString(t *testing.T) {
	tests := []struct {
		phase Phase
		want  string
	}{
		{PhasePreflight, "preflight"},
		{PhaseBefore, "before"},
		{PhaseExecute, "execute"},
		{PhaseAfter, "after"},
		{PhaseEmit, "emit"},
		{PhaseFinalize, "finalize"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.phase.String())
	}

	assert.Equal(t, "phase(42)", Phase(42).String())
	assert.Equal(t, "phase(-1)", Phase(-1).String())
}

func TestPhaseFailFast(t *testing.T) {
	assert.True(t, PhasePreflight.FailFast())
	assert.True(t, PhaseBefore.FailFast())
	assert.True(t, PhaseExecute.FailFast())

	assert.False(t, PhaseAfter.FailFast())
	assert.False(t, PhaseEmit.FailFast())
	assert.False(t, PhaseFinalize.FailFast())
}

func TestParsePhase(t *testing.T) {
	for _, p := range Phases() {
		got, err := ParsePhase(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	_, err := ParsePhase("PREFLIGHT")
	assert.Error(t, err)

	_, err = ParsePhase("teardown")
	assert.Error(t, err)
}

func TestPhaseValid(t *testing.T) {
	for _, p := range Phases() {
		assert.True(t, p.Valid())
	}
	assert.False(t, Phase(-1).Valid())
	assert.False(t, Phase(6).Valid())
}
