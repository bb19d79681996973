package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/format"
)

// DefaultClass is the class looked up when module_class is not set.
const DefaultClass = "Module"

// Manifest is the file a module_file option points at. It names the library
// that implements a stage and, optionally, the class or lifecycle functions
// to use:
//
//	library = "synthetic"
//	lifecycle {
//	  execute = "generate"
//	}
type Manifest struct {
	Library   string             `hcl:"library"`
	Class     string             `hcl:"class,optional"`
	Lifecycle *ManifestLifecycle `hcl:"lifecycle,block"`
}

// ManifestLifecycle overrides lifecycle function names.
type ManifestLifecycle struct {
	Setup   string `hcl:"setup,optional"`
	Execute string `hcl:"execute,optional"`
	Cleanup string `hcl:"cleanup,optional"`
}

// LoadManifest reads a module manifest.
func LoadManifest(path string) (*Manifest, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModule, err)
	}
	var m Manifest
	if err := format.DecodeBody(path, src, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModule, err)
	}
	if m.Library == "" {
		return nil, fmt.Errorf("%w: manifest %s does not name a library", ErrModule, path)
	}
	return &m, nil
}

// resolution is what FromLibrary decided from options and manifest.
type resolution struct {
	library string
	class   string
	funcs   map[Phase]string
	kind    Kind
}

func resolve(opts block.SectionBlock, name, baseDir string) (*resolution, error) {
	moduleName, err := opts.GetString("module_name", "")
	if err != nil {
		return nil, fmt.Errorf("%w: module [%s]: %v", ErrModule, name, err)
	}
	moduleFile, err := opts.GetString("module_file", "")
	if err != nil {
		return nil, fmt.Errorf("%w: module [%s]: %v", ErrModule, name, err)
	}
	switch {
	case moduleName == "" && moduleFile == "":
		return nil, fmt.Errorf("%w: failed importing module [%s]: you must provide a module file or a module name", ErrModule, name)
	case moduleName != "" && moduleFile != "":
		return nil, fmt.Errorf("%w: failed importing module [%s]: both module file and module name are provided", ErrModule, name)
	}

	r := &resolution{library: moduleName, funcs: make(map[Phase]string)}
	if moduleFile != "" {
		path := moduleFile
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		m, err := LoadManifest(path)
		if err != nil {
			return nil, fmt.Errorf("module [%s]: %w", name, err)
		}
		r.library = m.Library
		r.class = m.Class
		if m.Lifecycle != nil {
			r.funcs[PhaseSetup] = m.Lifecycle.Setup
			r.funcs[PhaseExecute] = m.Lifecycle.Execute
			r.funcs[PhaseCleanup] = m.Lifecycle.Cleanup
		}
	}

	if class, err := opts.GetString("module_class", ""); err != nil {
		return nil, fmt.Errorf("%w: module [%s]: %v", ErrModule, name, err)
	} else if class != "" {
		r.class = class
	}
	explicitFuncs := false
	for _, phase := range []Phase{PhaseSetup, PhaseExecute, PhaseCleanup} {
		fn, err := opts.GetString(string(phase)+"_function", "")
		if err != nil {
			return nil, fmt.Errorf("%w: module [%s]: %v", ErrModule, name, err)
		}
		if fn != "" {
			r.funcs[phase] = fn
		}
		if r.funcs[phase] != "" {
			explicitFuncs = true
		} else {
			r.funcs[phase] = string(phase)
		}
	}

	switch {
	case r.class != "":
		r.kind = KindClass
	case explicitFuncs:
		r.kind = KindFunctions
	}
	return r, nil
}

// FromLibrary resolves the stage configured under section name and builds it.
//
// The options module_name or module_file (exactly one) select a library.
// module_class selects a native factory; {setup,execute,cleanup}_function
// select free functions, defaulting to the phase names. When neither is
// given, the library's DefaultClass is used if it has one, otherwise its
// functions. base_dir overrides the directory relative paths are resolved in.
func FromLibrary(ctx context.Context, name string, opts ...Option) (Node, error) {
	s := newSettings(opts)
	cfg := s.cfg
	if cfg == nil {
		cfg = config.New()
	}
	for k, v := range s.options {
		cfg.Set(name, k, v)
	}
	options := cfg.Options(name)

	baseDir, err := options.GetString("base_dir", s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("%w: module [%s]: %v", ErrModule, name, err)
	}
	r, err := resolve(options, name, baseDir)
	if err != nil {
		return nil, err
	}
	if s.libs == nil {
		return nil, fmt.Errorf("%w: module [%s]: no libraries to resolve %q from", ErrModule, name, r.library)
	}
	lib, ok := s.libs.Library(r.library)
	if !ok {
		return nil, fmt.Errorf("%w: module [%s]: unknown library %q", ErrModule, name, r.library)
	}
	if r.kind == 0 {
		r.kind = KindFunctions
		if _, ok := lib.Classes[DefaultClass]; ok {
			r.kind, r.class = KindClass, DefaultClass
		}
	}

	childOpts := []Option{
		WithConfig(cfg),
		WithData(s.data),
		WithRegistry(s.libs),
		WithBaseDir(baseDir),
		WithRecorder(s.recorder),
		WithModules(s.modules...),
	}
	logger := ctxlog.FromContext(ctx)

	switch r.kind {
	case KindClass:
		factory, ok := lib.Classes[r.class]
		if !ok {
			return nil, fmt.Errorf("%w: module [%s]: library %q has no class %q", ErrModule, name, r.library, r.class)
		}
		logger.Info("Importing class for module.", "module", name, "library", r.library, "class", r.class)
		typ := r.library + "." + r.class
		return factory(ctx, name, append(childOpts, withResolution(typ, KindClass))...)

	default:
		stage := &funcStage{}
		var missing []string
		for phase, dst := range map[Phase]*StepFunc{
			PhaseSetup:   &stage.setup,
			PhaseExecute: &stage.execute,
			PhaseCleanup: &stage.cleanup,
		} {
			fn, ok := lib.Functions[r.funcs[phase]]
			if !ok {
				missing = append(missing, r.funcs[phase])
				continue
			}
			*dst = fn
		}
		if len(missing) > 0 {
			slices.Sort(missing)
			return nil, fmt.Errorf("%w: module [%s]: library %q has no function(s) %s", ErrModule, name, r.library, strings.Join(missing, ", "))
		}
		logger.Info("Importing functions for module.", "module", name, "library", r.library,
			"setup", r.funcs[PhaseSetup], "execute", r.funcs[PhaseExecute], "cleanup", r.funcs[PhaseCleanup])
		m, err := NewModule(ctx, name, stage, append(childOpts, withResolution(r.library+".functions", KindFunctions))...)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}
