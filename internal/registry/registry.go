package registry

import (
	"sort"

	"github.com/vk/blockpipe/internal/pipeline"
)

// CoreLibrary is registered by New and holds the engine's own classes.
const CoreLibrary = "core"

// Module is the interface that all core modules must implement to be registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the stage libraries of a single application instance. It
// implements pipeline.Libraries.
type Registry struct {
	libraries map[string]*pipeline.Library
}

// New creates a Registry holding the core library.
func New() *Registry {
	r := &Registry{libraries: make(map[string]*pipeline.Library)}
	r.RegisterClass(CoreLibrary, "Pipeline", pipeline.PipelineClass)
	return r
}

// Library returns the named library.
func (r *Registry) Library(name string) (*pipeline.Library, bool) {
	lib, ok := r.libraries[name]
	return lib, ok
}

// Names returns the registered library names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.libraries))
	for name := range r.libraries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ensure(name string) *pipeline.Library {
	lib, ok := r.libraries[name]
	if !ok {
		lib = &pipeline.Library{
			Name:      name,
			Classes:   make(map[string]pipeline.Factory),
			Functions: make(map[string]pipeline.StepFunc),
		}
		r.libraries[name] = lib
	}
	return lib
}
