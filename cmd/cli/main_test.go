package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_StartupError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A configuration with a syntax error fails while the app is constructed.
	invalidHCL := `
		main {
			modules = "a"
		// Missing closing brace here
	`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	err := os.WriteFile(filePath, []byte(invalidHCL), 0600)
	require.NoError(t, err, "failed to set up test file")

	out := &bytes.Buffer{}

	// --- Act ---
	runErr := run(context.Background(), out, []string{filePath})

	// --- Assert ---
	require.Error(t, runErr)
	require.Contains(t, runErr.Error(), "application startup failed")
	require.Contains(t, runErr.Error(), "main.hcl")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_Pipeline(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	config := `
main {
  modules = "data model like show"
}

data {
  module_name = "synthetic"
  n           = 4
}

model {
  module_name  = "flat"
  module_class      = "Affine"
  common_parameters = "params.hcl"
}

like {
  module_name = "gaussian"
}

show {
  module_name = "print"
  sections    = "likelihood"
}
`
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "main.hcl")
	require.NoError(t, os.WriteFile(filePath, []byte(config), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "params.hcl"), []byte("a {\n  value = 1\n}\n"), 0600))
	statePath := filepath.Join(tempDir, "state.bin")
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, []string{"-log-format", "json", "-save-state", statePath, filePath})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), `"msg":"Pipeline evaluated."`)
	require.FileExists(t, statePath)
}
