package integration_tests

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/app"
	"github.com/vk/blockpipe/internal/cli"
	"github.com/vk/blockpipe/internal/testutil"
)

const fitHCL = `
main {
  modules = "data model like"
}

data {
  module_name = "synthetic"
  n           = 5
  slope       = 0.5
}

model {
  module_name       = "flat"
  module_class      = "Affine"
  common_parameters = "params.hcl"
}

like {
  module_name = "gaussian"
  sigma       = 0.1
}
`

const fitParams = `
a {
  value = 0.5
  limit = "0 1"
  ref   = "normal 0.5 0.05"
}
`

// Test for: flags parsed by the CLI drive a full run
func TestCLI_FlagsDriveRun(t *testing.T) {
	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{"main.hcl": fitHCL, "params.hcl": fitParams})
	t.Setenv("BLOCKPIPE_LOG_FORMAT", "json")
	out := &bytes.Buffer{}

	cfg, shouldExit, err := cli.Parse([]string{"-samples", "5", "-seed", "11", "-set", "a=0.6", dir}, out)
	require.NoError(t, err)
	require.False(t, shouldExit)

	a, err := app.NewApp(out, cfg)
	require.NoError(t, err)

	// --- Act ---
	err = a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	report := a.Report()
	require.Len(t, report.Evaluations, 7)
	require.InDelta(t, -0.9375, report.Evaluations[1].Loglkl, 1e-9)
	require.Less(t, report.LoglklMean, 0.0)
	require.Greater(t, report.LoglklStdDev, 0.0)

	// Every line is a JSON record carrying the run id.
	var evaluated int
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		var record map[string]any
		require.NoError(t, sonic.UnmarshalString(line, &record), line)
		require.Equal(t, a.RunID(), record["run_id"])
		if record["msg"] == "Pipeline evaluated." {
			evaluated++
		}
	}
	require.Equal(t, 7, evaluated)
}

// Test for: help text is printed and the run is skipped
func TestCLI_DisplaysHelp(t *testing.T) {
	// --- Arrange ---
	out := &bytes.Buffer{}

	// --- Act ---
	cfg, shouldExit, err := cli.Parse([]string{"-help"}, out)

	// --- Assert ---
	require.NoError(t, err)
	require.True(t, shouldExit)
	require.Nil(t, cfg)
	require.Contains(t, out.String(), "BlockPipe")
	require.Contains(t, out.String(), "-set value")
	require.Contains(t, out.String(), "BLOCKPIPE_LOG_LEVEL")
}
