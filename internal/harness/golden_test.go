package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarioGoldens runs every scenario under testdata/ against its
// golden trace snapshot, then checks the scenario's own assertions.
func TestScenarioGoldens(t *testing.T) {
	paths, err := filepath.Glob("testdata/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			report, err := RunWithGolden(t, scenario)
			require.NoError(t, err)

			failures := EvaluateAssertions(report, scenario.Assertions)
			for _, f := range failures {
				t.Error(f)
			}
		})
	}
}
