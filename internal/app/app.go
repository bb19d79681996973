package app

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/metrics"
	"github.com/vk/blockpipe/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	ctx      context.Context
	logger   *slog.Logger
	config   *Config
	registry *registry.Registry
	cfg      *config.Block
	recorder *metrics.Recorder
	runID    string
	report   *Report

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// Without explicit modules the core modules are registered.
func NewApp(outW io.Writer, appConfig *Config, modules ...registry.Module) (*App, error) {
	runID := uuid.NewString()
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW).With("run_id", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = coreModules
	}
	reg, err := loadModules(ctx, appConfig.ModulesPath, modules)
	if err != nil {
		return nil, err
	}

	cfg, err := loadConfig(ctx, appConfig.ConfigPaths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Configuration loaded.", "files", cfg.Files())

	return &App{
		outW:     outW,
		ctx:      ctx,
		logger:   logger,
		config:   appConfig,
		registry: reg,
		cfg:      cfg,
		recorder: metrics.NewRecorder(),
		runID:    runID,
	}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// RunID identifies this App instance in its logs.
func (a *App) RunID() string {
	return a.runID
}

// Recorder returns the metrics recorder observing every stage.
func (a *App) Recorder() *metrics.Recorder {
	return a.recorder
}

// Report returns the outcome of the last Run, or nil.
func (a *App) Report() *Report {
	return a.report
}

// baseDir is the directory relative module and parameter files are resolved
// against: the first configuration directory, or the directory of the first
// configuration file.
func (a *App) baseDir() string {
	first := a.config.ConfigPaths[0]
	if info, err := os.Stat(first); err == nil && info.IsDir() {
		return first
	}
	return filepath.Dir(first)
}
