package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/blockpipe/internal/pipeline"
)

// RegisterLibrary registers a complete library. It panics if a library with
// the same name was already registered.
func (r *Registry) RegisterLibrary(lib *pipeline.Library) {
	if _, exists := r.libraries[lib.Name]; exists {
		panic(fmt.Sprintf("library with name '%s' already registered", lib.Name))
	}
	slog.Debug("Registering library.", "library", lib.Name, "classes", len(lib.Classes), "functions", len(lib.Functions))
	dst := r.ensure(lib.Name)
	for name, f := range lib.Classes {
		dst.Classes[name] = f
	}
	for name, fn := range lib.Functions {
		dst.Functions[name] = fn
	}
}

// RegisterClass registers a native stage factory under library.name.
func (r *Registry) RegisterClass(library, name string, f pipeline.Factory) {
	lib := r.ensure(library)
	if _, exists := lib.Classes[name]; exists {
		panic(fmt.Sprintf("class '%s.%s' already registered", library, name))
	}
	slog.Debug("Registering class.", "library", library, "class", name)
	lib.Classes[name] = f
}

// RegisterFunction registers a free lifecycle function under library.name.
func (r *Registry) RegisterFunction(library, name string, fn pipeline.StepFunc) {
	lib := r.ensure(library)
	if _, exists := lib.Functions[name]; exists {
		panic(fmt.Sprintf("function '%s.%s' already registered", library, name))
	}
	slog.Debug("Registering function.", "library", library, "function", name)
	lib.Functions[name] = fn
}
