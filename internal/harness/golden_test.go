package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestScenarios_Golden runs every scenario under testdata/scenarios and
// compares its trace against the matching golden file.
//
// Regenerate with: go test ./internal/harness -update
func TestScenarios_Golden(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no scenario files found")

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			require.NoError(t, RunWithGolden(t, scenario))
		})
	}
}

// TestScenarios_Pass double-checks that the shipped scenarios also pass
// their own expect clauses and assertions, independent of the golden
// comparison.
func TestScenarios_Pass(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)

	for _, path := range paths {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := Run(scenario)
			require.NoError(t, err)
			require.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}
