package registry

import (
	"context"
	"fmt"

	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/fsutil"
	"github.com/vk/blockpipe/internal/pipeline"
)

// ManifestFile is a manifest together with the file it was read from.
type ManifestFile struct {
	Path string
	*pipeline.Manifest
}

// LoadManifests reads every .hcl module manifest under modulesPath.
func LoadManifests(ctx context.Context, modulesPath string) ([]ManifestFile, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Registry loading manifests from modules path...", "path", modulesPath)

	filePaths, err := fsutil.FindFilesByExtension(modulesPath, ".hcl")
	if err != nil {
		logger.Error("Failed to walk modules directory", "path", modulesPath, "error", err)
		return nil, err
	}
	if len(filePaths) == 0 {
		logger.Warn("No .hcl module files found in path", "path", modulesPath)
		return nil, nil
	}
	logger.Debug("Found HCL files to load", "files", filePaths)

	manifests := make([]ManifestFile, 0, len(filePaths))
	for _, filePath := range filePaths {
		m, err := pipeline.LoadManifest(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to process module manifest in %s: %w", filePath, err)
		}
		manifests = append(manifests, ManifestFile{Path: filePath, Manifest: m})
	}

	logger.Info("Manifests loaded successfully.", "manifests_loaded", len(manifests))
	return manifests, nil
}
