package integration_tests

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/app"
	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/pipeline"
	"github.com/vk/blockpipe/internal/testutil"
)

// Test for: a stage failing during setup stops the run and every stage is
// still cleaned up
func TestErrorHandling_SetupFailureCleansUp(t *testing.T) {
	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{
		"main.hcl": `
main {
  modules = "env like"
}

env {
  module_name = "env_vars"
}

like {
  module_name = "gaussian"
}
`,
	})
	a, logs := app.SetupAppTest(t, &app.Config{ConfigPaths: []string{dir}})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.ErrorIs(t, err, block.ErrNotFound)
	require.ErrorContains(t, err, "module like")
	require.Empty(t, a.Report().Evaluations)
	testutil.AssertPhaseRan(t, logs.String(), "env", "cleanup")
}

// Test for: configuration errors are reported before any stage runs
func TestErrorHandling_InvalidConfiguration(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr string
	}{
		{
			name:    "invalid hcl",
			files:   map[string]string{"main.hcl": "main {\n  modules = \n"},
			wantErr: "main.hcl",
		},
		{
			name:    "invalid yaml",
			files:   map[string]string{"main.yaml": "main: [unclosed\n"},
			wantErr: "main.yaml",
		},
		{
			name:    "top-level option outside a section",
			files:   map[string]string{"main.toml": "modules = \"x\"\n"},
			wantErr: "main.toml",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			dir := testutil.WriteFiles(t, tc.files)
			cfg, err := app.NewConfig(app.Config{ConfigPaths: []string{dir}})
			require.NoError(t, err)

			// --- Act ---
			_, err = app.NewApp(io.Discard, cfg)

			// --- Assert ---
			require.ErrorContains(t, err, "failed to load configuration")
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

// Test for: pipeline assembly errors
func TestErrorHandling_AssemblyErrors(t *testing.T) {
	testCases := []struct {
		name    string
		files   map[string]string
		wantErr error
		wantMsg string
	}{
		{
			name: "unknown class",
			files: map[string]string{"main.hcl": `
main {
  modules = "model"
}
model {
  module_name  = "flat"
  module_class = "Quadratic"
}
`},
			wantErr: pipeline.ErrModule,
			wantMsg: `has no class "Quadratic"`,
		},
		{
			name: "duplicate module",
			files: map[string]string{"main.hcl": `
main {
  modules = "show show"
}
show {
  module_name = "print"
}
`},
			wantErr: pipeline.ErrModule,
			wantMsg: "show",
		},
		{
			name: "bad mapping",
			files: map[string]string{"main.hcl": `
main {
  modules = "show"
}
show {
  module_name = "print"
  mapping     = "a.b,c"
}
`},
			wantErr: block.ErrMapping,
		},
		{
			name: "parameter without a value",
			files: map[string]string{
				"main.hcl": `
main {
  modules = "model"
}
model {
  module_name       = "flat"
  common_parameters = "params.hcl"
}
`,
				"params.hcl": "a {\n  prior = \"normal 0 1\"\n}\n",
			},
			wantErr: pipeline.ErrModule,
			wantMsg: "an initial value must be provided for parameter a",
		},
		{
			name: "missing parameter file",
			files: map[string]string{"main.hcl": `
main {
  modules = "model"
}
model {
  module_name       = "flat"
  common_parameters = "missing.hcl"
}
`},
			wantErr: pipeline.ErrModule,
			wantMsg: "missing.hcl",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// --- Arrange ---
			dir := testutil.WriteFiles(t, tc.files)
			a, _ := app.SetupAppTest(t, &app.Config{ConfigPaths: []string{dir}})

			// --- Act ---
			err := a.Run(context.Background())

			// --- Assert ---
			require.ErrorIs(t, err, tc.wantErr)
			require.ErrorContains(t, err, "failed to build pipeline")
			if tc.wantMsg != "" {
				require.ErrorContains(t, err, tc.wantMsg)
			}
		})
	}
}

// Test for: module manifests are validated against the registry at startup
func TestErrorHandling_ManifestValidation(t *testing.T) {
	// --- Arrange ---
	config := testutil.WriteFiles(t, map[string]string{"main.hcl": "main {\n  modules = \"show\"\n}\nshow {\n  module_name = \"print\"\n}\n"})
	manifests := testutil.WriteFiles(t, map[string]string{
		"print/manifest.hcl":    "library = \"print\"\n",
		"gaussian/manifest.hcl": "library = \"gaussian\"\nclass   = \"Poisson\"\n",
		"synthetic/steps.hcl":   "library = \"synthetic\"\nlifecycle {\n  execute = \"sample\"\n}\n",
	})
	cfg, err := app.NewConfig(app.Config{ConfigPaths: []string{config}, ModulesPath: manifests})
	require.NoError(t, err)

	// --- Act ---
	_, err = app.NewApp(io.Discard, cfg)

	// --- Assert ---
	require.ErrorContains(t, err, "registry validation failed")
	require.ErrorContains(t, err, "has no class 'Poisson'")
	require.ErrorContains(t, err, "has no function 'sample'")
	require.NotContains(t, err.Error(), "'print'")
}

// Test for: overriding a parameter nothing declares is reported but harmless
func TestErrorHandling_UnknownOverride(t *testing.T) {
	// --- Arrange ---
	dir := testutil.WriteFiles(t, map[string]string{"main.hcl": "main {\n  modules = \"show\"\n}\nshow {\n  module_name = \"print\"\n  sections    = \"nothing\"\n}\n"})
	a, logs := app.SetupAppTest(t, &app.Config{
		ConfigPaths: []string{dir},
		Overrides:   map[string]float64{"ghost": 1},
	})

	// --- Act ---
	err := a.Run(context.Background())

	// --- Assert ---
	require.NoError(t, err)
	require.Len(t, a.Report().Evaluations, 2)
	require.Contains(t, logs.String(), "Override of an unknown parameter.")
	require.Contains(t, logs.String(), "parameter=ghost")
}
