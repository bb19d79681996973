package app

import (
	"errors"
	"fmt"
	"slices"
)

// DefaultPipeline is the configuration section of the root pipeline.
const DefaultPipeline = "main"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ConfigPaths []string // configuration files or directories
	ModulesPath string   // optional directory of module manifests to validate

	Pipeline  string
	Overrides map[string]float64
	Samples   int
	Seed      uint64

	SaveState string
	PipeGraph string

	LogFormat   string
	LogLevel    string
	MetricsPort int
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.ConfigPaths) == 0 {
		return nil, errors.New("at least one configuration path is required")
	}
	if cfg.Pipeline == "" {
		cfg.Pipeline = DefaultPipeline
	}
	if cfg.Samples < 0 {
		return nil, fmt.Errorf("samples must not be negative, got %d", cfg.Samples)
	}
	if cfg.MetricsPort < 0 {
		return nil, fmt.Errorf("metrics port must not be negative, got %d", cfg.MetricsPort)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if !slices.Contains([]string{"text", "json"}, cfg.LogFormat) {
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return nil, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	return &cfg, nil
}
