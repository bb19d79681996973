package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertPhaseRan checks captured log output for the debug line a module writes
// when one of its lifecycle phases completes.
func AssertPhaseRan(t *testing.T, logs, module, phase string) {
	t.Helper()

	expected := fmt.Sprintf("module=%s phase=%s", module, phase)
	require.True(t,
		strings.Contains(logs, expected),
		"expected log output for %s of module '%s' was not found in logs", phase, module,
	)
}
