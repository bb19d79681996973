package app

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/registry"
	"github.com/vk/blockpipe/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing. Log output is
// captured at debug level into the returned buffer.
func SetupAppTest(t *testing.T, appConfig *Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	appConfig.LogLevel = "debug"
	cfg, err := NewConfig(*appConfig)
	require.NoError(t, err)
	testApp, err := NewApp(logBuffer, cfg, modules...)
	require.NoError(t, err)

	t.Cleanup(func() {
		if os.Getenv("BLOCKPIPE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	return testApp, logBuffer
}
