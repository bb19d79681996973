package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/pipeline"
)

var phases = []pipeline.Phase{pipeline.PhaseSetup, pipeline.PhaseExecute, pipeline.PhaseCleanup}

// Validate checks that every library is usable and that every manifest
// resolves against the registered Go code.
func (r *Registry) Validate(ctx context.Context, manifests ...ManifestFile) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Names() {
		lib := r.libraries[name]
		if len(lib.Classes) == 0 && len(lib.Functions) == 0 {
			errs = append(errs, fmt.Sprintf("library '%s' registers neither classes nor functions", name))
			continue
		}
		if _, ok := lib.Classes[pipeline.DefaultClass]; ok || len(lib.Functions) == 0 {
			continue
		}
		for _, phase := range phases {
			if _, ok := lib.Functions[string(phase)]; !ok {
				logger.Warn("Library has no default lifecycle function; modules using it must name one explicitly.", "library", name, "phase", phase)
			}
		}
	}

	for _, m := range manifests {
		lib, ok := r.libraries[m.Library]
		if !ok {
			errs = append(errs, fmt.Sprintf("manifest '%s': library '%s' is not registered", m.Path, m.Library))
			continue
		}
		if m.Class != "" {
			if _, ok := lib.Classes[m.Class]; !ok {
				errs = append(errs, fmt.Sprintf("manifest '%s': library '%s' has no class '%s'", m.Path, m.Library, m.Class))
			}
			continue
		}
		if m.Lifecycle == nil {
			if _, ok := lib.Classes[pipeline.DefaultClass]; ok {
				continue
			}
		}
		for _, fn := range manifestFunctions(m.Manifest) {
			if _, ok := lib.Functions[fn]; !ok {
				errs = append(errs, fmt.Sprintf("manifest '%s': library '%s' has no function '%s'", m.Path, m.Library, fn))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// manifestFunctions lists the lifecycle functions a manifest resolves to.
func manifestFunctions(m *pipeline.Manifest) []string {
	var named [3]string
	if m.Lifecycle != nil {
		named = [3]string{m.Lifecycle.Setup, m.Lifecycle.Execute, m.Lifecycle.Cleanup}
	}
	out := make([]string, len(phases))
	for i, phase := range phases {
		out[i] = named[i]
		if out[i] == "" {
			out[i] = string(phase)
		}
	}
	return out
}
