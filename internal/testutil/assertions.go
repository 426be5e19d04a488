package testutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertLogged checks that the log output of a run contains substr.
func AssertLogged(t *testing.T, result *HarnessResult, substr string) {
	t.Helper()
	require.True(t,
		strings.Contains(result.LogOutput, substr),
		"expected log output to contain %q", substr,
	)
}

// AssertComposed checks the stride and element count of a system after the
// run.
func AssertComposed(t *testing.T, result *HarnessResult, system string, stride, elementCount int) {
	t.Helper()
	require.NotNil(t, result.App, "app did not start: %v", result.Err)

	snap, ok := result.App.Registry().Snapshot(system)
	require.True(t, ok, "system %q not found", system)
	require.Equal(t, stride, snap.Stride, "stride of %q", system)
	require.Equal(t, elementCount, snap.ElementCount, "element count of %q", system)
}

// AssertStructure checks the packed structure string of a system.
func AssertStructure(t *testing.T, result *HarnessResult, system, structure string) {
	t.Helper()
	require.NotNil(t, result.App, "app did not start: %v", result.Err)

	snap, ok := result.App.Registry().Snapshot(system)
	require.True(t, ok, "system %q not found", system)
	require.Equal(t, structure, snap.Structure, "structure of %q", system)
}
