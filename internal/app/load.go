package app

import (
	"context"
	"fmt"

	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/registry"
)

// loadModules registers modules into a fresh registry and validates it,
// together with the manifests under modulesPath when one is given.
func loadModules(ctx context.Context, modulesPath string, modules []registry.Module) (*registry.Registry, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading modules...", "modules_path", modulesPath)

	reg := registry.New()
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules), "libraries", reg.Names())

	var manifests []registry.ManifestFile
	if modulesPath != "" {
		var err error
		if manifests, err = registry.LoadManifests(ctx, modulesPath); err != nil {
			return nil, fmt.Errorf("failed to load module manifests: %w", err)
		}
	}
	if err := reg.Validate(ctx, manifests...); err != nil {
		return nil, err
	}
	logger.Debug("Registry validation passed.")
	return reg, nil
}

// loadConfig reads every configuration file and decodes options holding JSON.
func loadConfig(ctx context.Context, paths []string) (*config.Block, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading configuration...", "paths", paths)

	cfg, err := config.Load(ctx, paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ApplyJSON(); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return cfg, nil
}
