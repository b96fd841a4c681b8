package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/matchgridgo/internal/nodeid"
)

// AssertStepRan checks the log output within a HarnessResult to confirm that a
// singular step has started. It abstracts the underlying node ID format, making
// tests more resilient to internal refactoring.
func AssertStepRan(t *testing.T, result *HarnessResult, runnerType, stepName string) {
	t.Helper()

	expectedLogSubstring := "step=" + nodeid.StepAddr(runnerType, stepName).String()

	require.True(t,
		strings.Contains(result.LogOutput, expectedLogSubstring),
		"expected log output for step '%s.%s' was not found in logs", runnerType, stepName,
	)
}

// AssertStepInstanceRan confirms that a specific instance of a counted step
// has executed.
func AssertStepInstanceRan(t *testing.T, result *HarnessResult, runnerType, stepName string, index int) {
	t.Helper()

	expectedLogSubstring := "step=" + nodeid.StepAddr(runnerType, stepName).Instance(index)

	require.True(t,
		strings.Contains(result.LogOutput, expectedLogSubstring),
		"expected log output for step instance '%s.%s[%d]' was not found in logs", runnerType, stepName, index,
	)
}

// AssertLogOrder asserts that `first` appears in the log output before
// `second`, which is how execution ordering is checked without exposing
// scheduler internals.
func AssertLogOrder(t *testing.T, logOutput, first, second string) {
	t.Helper()

	firstIdx := strings.Index(logOutput, first)
	secondIdx := strings.Index(logOutput, second)

	require.GreaterOrEqual(t, firstIdx, 0, "expected log %q was not found", first)
	require.GreaterOrEqual(t, secondIdx, 0, "expected log %q was not found", second)
	require.Less(t, firstIdx, secondIdx, "expected %q to be logged before %q", first, second)
}
