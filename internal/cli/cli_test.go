package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/app"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name     string
		args     []string
		env      map[string]string
		want     *app.Config
		wantExit bool
		wantErr  string
	}{
		{
			name: "positional path with defaults",
			args: []string{"run.hcl"},
			want: &app.Config{
				ConfigPaths: []string{"run.hcl"},
				Pipeline:    "main",
				Overrides:   map[string]float64{},
				Seed:        42,
				LogFormat:   "text",
				LogLevel:    "info",
			},
		},
		{
			name: "flags and positional paths are combined",
			args: []string{
				"-c", "base.hcl", "-config", "extra.yaml",
				"-set", "a=3", "-set", "b_model = -0.5",
				"-samples", "10", "-seed", "7",
				"-pipeline", "outer", "-save-state", "state.bin", "-pipe-graph", "graph.dot",
				"-log-format", "JSON", "-log-level", "debug", "-metrics-port", "9090",
				"-modules-path", "manifests",
				"last.toml",
			},
			want: &app.Config{
				ConfigPaths: []string{"base.hcl", "extra.yaml", "last.toml"},
				ModulesPath: "manifests",
				Pipeline:    "outer",
				Overrides:   map[string]float64{"a": 3, "b_model": -0.5},
				Samples:     10,
				Seed:        7,
				SaveState:   "state.bin",
				PipeGraph:   "graph.dot",
				LogFormat:   "json",
				LogLevel:    "debug",
				MetricsPort: 9090,
			},
		},
		{
			name: "environment defaults",
			args: []string{"run.hcl"},
			env: map[string]string{
				"BLOCKPIPE_LOG_LEVEL":    "warn",
				"BLOCKPIPE_PIPELINE":     "outer",
				"BLOCKPIPE_SEED":         "3",
				"BLOCKPIPE_METRICS_PORT": "8080",
			},
			want: &app.Config{
				ConfigPaths: []string{"run.hcl"},
				Pipeline:    "outer",
				Overrides:   map[string]float64{},
				Seed:        3,
				LogFormat:   "text",
				LogLevel:    "warn",
				MetricsPort: 8080,
			},
		},
		{
			name: "flag beats environment",
			args: []string{"-log-level", "error", "run.hcl"},
			env:  map[string]string{"BLOCKPIPE_LOG_LEVEL": "warn"},
			want: &app.Config{
				ConfigPaths: []string{"run.hcl"},
				Pipeline:    "main",
				Overrides:   map[string]float64{},
				Seed:        42,
				LogFormat:   "text",
				LogLevel:    "error",
			},
		},
		{name: "help", args: []string{"-h"}, wantExit: true},
		{name: "no path prints usage", args: []string{}, wantExit: true},
		{name: "unknown flag", args: []string{"-nope"}, wantErr: "flag provided but not defined: -nope"},
		{name: "malformed override", args: []string{"-set", "a", "run.hcl"}, wantErr: "expected name=value"},
		{name: "non numeric override", args: []string{"-set", "a=x", "run.hcl"}, wantErr: "parameter a"},
		{name: "invalid log format", args: []string{"-log-format", "xml", "run.hcl"}, wantErr: "invalid log format"},
		{name: "invalid log level", args: []string{"-log-level", "trace", "run.hcl"}, wantErr: "invalid log level"},
		{name: "negative samples", args: []string{"-samples", "-1", "run.hcl"}, wantErr: "samples must not be negative"},
		{
			name:    "invalid environment",
			args:    []string{"run.hcl"},
			env:     map[string]string{"BLOCKPIPE_SEED": "many"},
			wantErr: "invalid environment",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			out := &bytes.Buffer{}

			cfg, exit, err := Parse(tc.args, out)
			if tc.wantErr != "" {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				require.Equal(t, 2, exitErr.Code)
				require.Contains(t, exitErr.Message, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantExit, exit)
			if tc.wantExit {
				require.Nil(t, cfg)
				require.Contains(t, out.String(), "Usage:")
				return
			}
			require.Equal(t, tc.want, cfg)
		})
	}
}
