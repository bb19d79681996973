package integration_tests

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/app"
	"github.com/vk/blockpipe/internal/testutil"
)

const lineFitHCL = `
main {
  modules = ["data", "model", "like"]
}

data {
  module_name = "synthetic"
  n           = 6
  slope       = 2
  intercept   = 1
}

model {
  module_name         = "flat"
  module_class        = "Affine"
  specific_parameters = "params.hcl"
}

like {
  module_name = "gaussian"
  sigma       = 0.5
}
`

const lineFitYAML = `
main:
  modules: [data, model, like]
data:
  module_name: synthetic
  n: 6
  slope: 2
  intercept: 1
model:
  module_name: flat
  module_class: Affine
  specific_parameters: params.yaml
like:
  module_name: gaussian
  sigma: 0.5
`

const lineFitTOML = `
[main]
modules = ["data", "model", "like"]

[data]
module_name = "synthetic"
n = 6
slope = 2
intercept = 1

[model]
module_name = "flat"
module_class = "Affine"
specific_parameters = "params.toml"

[like]
module_name = "gaussian"
sigma = 0.5
`

const paramsHCL = `
a {
  value = 2
  limit = "0 4"
}

b {
  value = 1
  prior = "normal 1 0.5"
}
`

const paramsYAML = `
a:
  value: 2
  limit: [0, 4]
b:
  value: 1
  prior: normal 1 0.5
`

const paramsTOML = `
[a]
value = 2
limit = "0 4"

[b]
value = 1
prior = "normal 1 0.5"
`

// Test for: the same pipeline declared in every supported format
func TestConfigFormats_SamePipelineEveryFormat(t *testing.T) {
	testCases := []struct {
		name  string
		files map[string]string
		main  string
	}{
		{name: "hcl", files: map[string]string{"main.hcl": lineFitHCL, "params.hcl": paramsHCL}, main: "main.hcl"},
		{name: "yaml", files: map[string]string{"main.yaml": lineFitYAML, "params.yaml": paramsYAML}, main: "main.yaml"},
		{name: "toml", files: map[string]string{"main.toml": lineFitTOML, "params.toml": paramsTOML}, main: "main.toml"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			dir := testutil.WriteFiles(t, tc.files)
			a, _ := app.SetupAppTest(t, &app.Config{
				ConfigPaths: []string{filepath.Join(dir, tc.main)},
				Overrides:   map[string]float64{"a_model": 3},
			})

			// --- Act ---
			err := a.Run(context.Background())

			// --- Assert ---
			require.NoError(t, err)
			evs := a.Report().Evaluations
			require.Len(t, evs, 2)
			require.InDelta(t, 0, evs[0].Loglkl, 1e-12)
			require.Equal(t, map[string]float64{"a_model": 3, "b_model": 1}, evs[1].Values)
			// Residuals are x on [0, 1] in steps of 0.2, sigma 0.5: chi2 = 2.2 * 4.
			require.InDelta(t, -4.4, evs[1].Loglkl, 1e-9)
		})
	}
}

// Test for: later configuration files override options of earlier ones
func TestConfigFormats_LaterFilesWin(t *testing.T) {
	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"main.hcl":      lineFitHCL,
		"params.hcl":    paramsHCL,
		"override.yaml": "like:\n  sigma: 1\n",
	})
	a, _ := app.SetupAppTest(t, &app.Config{
		ConfigPaths: []string{filepath.Join(dir, "main.hcl"), filepath.Join(dir, "override.yaml")},
		Overrides:   map[string]float64{"a_model": 3},
	})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.InDelta(t, -1.1, a.Report().Evaluations[1].Loglkl, 1e-9)
}

// Test for: string options holding JSON are decoded before modules read them
func TestConfigFormats_JSONOptions(t *testing.T) {
	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"main.hcl":      lineFitHCL,
		"params.hcl":    paramsHCL,
		"override.yaml": "like:\n  sigma: \"1.0\"\n",
	})
	a, _ := app.SetupAppTest(t, &app.Config{
		ConfigPaths: []string{filepath.Join(dir, "main.hcl"), filepath.Join(dir, "override.yaml")},
		Overrides:   map[string]float64{"a_model": 3},
	})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.InDelta(t, -1.1, a.Report().Evaluations[1].Loglkl, 1e-9)
}
