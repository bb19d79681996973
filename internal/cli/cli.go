package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/vk/blockpipe/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// EnvPrefix prefixes the environment variables that provide flag defaults,
// e.g. BLOCKPIPE_LOG_LEVEL.
const EnvPrefix = "blockpipe"

// Defaults are the flag defaults, overridable from the environment.
type Defaults struct {
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	Pipeline    string `envconfig:"PIPELINE" default:"main"`
	ModulesPath string `envconfig:"MODULES_PATH"`
	MetricsPort int    `envconfig:"METRICS_PORT" default:"0"`
	Seed        uint64 `envconfig:"SEED" default:"42"`
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// overrides is a repeatable name=value flag.
type overrides map[string]float64

func (o overrides) String() string {
	parts := make([]string, 0, len(o))
	for k, v := range o {
		parts = append(parts, fmt.Sprintf("%s=%g", k, v))
	}
	return strings.Join(parts, ",")
}

func (o overrides) Set(v string) error {
	name, value, ok := strings.Cut(v, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return fmt.Errorf("expected name=value, got %q", v)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fmt.Errorf("parameter %s: %w", name, err)
	}
	o[name] = f
	return nil
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")

	var defaults Defaults
	if err := envconfig.Process(EnvPrefix, &defaults); err != nil {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid environment: %v", err)}
	}

	flagSet := flag.NewFlagSet("blockpipe", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
BlockPipe - Runs pipelines of computation stages sharing a block of named data.

Usage:
  blockpipe [options] [CONFIG_PATH...]

Arguments:
  CONFIG_PATH
    Configuration file (.hcl, .yaml or .toml) or directory of them.
    Later files override options of earlier ones.

Environment:
  BLOCKPIPE_LOG_FORMAT, BLOCKPIPE_LOG_LEVEL, BLOCKPIPE_PIPELINE,
  BLOCKPIPE_MODULES_PATH, BLOCKPIPE_METRICS_PORT and BLOCKPIPE_SEED
  provide the defaults of the matching options.

Options:
`)
		flagSet.PrintDefaults()
	}

	var configPaths stringList
	values := overrides{}
	flagSet.Var(&configPaths, "config", "Configuration file or directory. Repeatable.")
	flagSet.Var(&configPaths, "c", "Configuration file or directory (shorthand).")
	flagSet.Var(values, "set", "Override a parameter value for one extra evaluation, as name=value. Repeatable.")
	pipelineFlag := flagSet.String("pipeline", defaults.Pipeline, "Configuration section of the root pipeline.")
	samplesFlag := flagSet.Int("samples", 0, "Number of evaluations at parameter values drawn from their reference distributions.")
	seedFlag := flagSet.Uint64("seed", defaults.Seed, "Random seed for -samples.")
	saveStateFlag := flagSet.String("save-state", "", "Write the final pipe block to this file.")
	pipeGraphFlag := flagSet.String("pipe-graph", "", "Write the pipeline tree in DOT format to this file.")
	metricsPortFlag := flagSet.Int("metrics-port", defaults.MetricsPort, "Port for the /health and /metrics HTTP server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", defaults.LogFormat, "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", defaults.LogLevel, "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	modulesPathFlag := flagSet.String("modules-path", defaults.ModulesPath, "Directory of module manifests to validate against the registry.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	configPaths = append(configPaths, flagSet.Args()...)
	slog.Debug("Configuration paths determined.", "paths", []string(configPaths))

	if len(configPaths) == 0 {
		slog.Debug("No configuration path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		ConfigPaths: configPaths,
		ModulesPath: *modulesPathFlag,
		Pipeline:    *pipelineFlag,
		Overrides:   values,
		Samples:     *samplesFlag,
		Seed:        *seedFlag,
		SaveState:   *saveStateFlag,
		PipeGraph:   *pipeGraphFlag,
		LogFormat:   strings.ToLower(*logFormatFlag),
		LogLevel:    strings.ToLower(*logLevelFlag),
		MetricsPort: *metricsPortFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
