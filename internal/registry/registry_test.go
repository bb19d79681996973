package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/pipeline"
	"github.com/vk/blockpipe/internal/testutil"
)

func noop(context.Context, string, config.Reader, *block.DataBlock) (int, error) { return 0, nil }

type noopStage struct{}

func (noopStage) Setup(context.Context, *pipeline.Module) error   { return nil }
func (noopStage) Execute(context.Context, *pipeline.Module) error { return nil }
func (noopStage) Cleanup(context.Context, *pipeline.Module) error { return nil }

func TestNew_HasCorePipeline(t *testing.T) {
	r := New()
	lib, ok := r.Library(CoreLibrary)
	require.True(t, ok)
	require.Contains(t, lib.Classes, "Pipeline")
	require.Equal(t, []string{"core"}, r.Names())
}

func TestRegister_Duplicates(t *testing.T) {
	r := New()
	r.RegisterFunction("fns", "execute", noop)
	r.RegisterClass("fns", "Module", pipeline.Class(func() pipeline.Stage { return noopStage{} }))

	require.Panics(t, func() { r.RegisterFunction("fns", "execute", noop) })
	require.Panics(t, func() { r.RegisterClass(CoreLibrary, "Pipeline", pipeline.PipelineClass) })
	require.Panics(t, func() { r.RegisterLibrary(&pipeline.Library{Name: "fns"}) })

	r.RegisterLibrary(&pipeline.Library{Name: "other", Functions: map[string]pipeline.StepFunc{"run": noop}})
	lib, ok := r.Library("other")
	require.True(t, ok)
	require.Contains(t, lib.Functions, "run")
	require.NotNil(t, lib.Classes)
	require.Equal(t, []string{"core", "fns", "other"}, r.Names())
}

func TestRegistry_ResolvesNestedPipeline(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	r := New()
	r.RegisterClass("stages", "Module", pipeline.Class(func() pipeline.Stage { return noopStage{} }))

	cfg := config.New()
	cfg.Set("main", "modules", "inner")
	cfg.Set("inner", "module_name", "core")
	cfg.Set("inner", "module_class", "Pipeline")
	cfg.Set("inner", "modules", "leaf")
	cfg.Set("leaf", "module_name", "stages")

	p, err := pipeline.NewPipeline(ctx, "main", pipeline.WithConfig(cfg), pipeline.WithRegistry(r))
	require.NoError(t, err)
	inner, ok := p.Module("inner")
	require.True(t, ok)
	require.Len(t, inner.Children(), 1)
	require.Equal(t, "stages.Module", inner.Children()[0].Type())
}

func TestValidate(t *testing.T) {
	dir := testutil.WriteFiles(t, map[string]string{
		"good/class.hcl":     "library = \"stages\"\nclass = \"Module\"\n",
		"good/default.hcl":   "library = \"stages\"\n",
		"good/functions.hcl": "library = \"fns\"\nlifecycle {\n  execute = \"run\"\n}\n",
		"bad/library.hcl":    "library = \"ghost\"\n",
		"bad/class.hcl":      "library = \"stages\"\nclass = \"Ghost\"\n",
		"bad/function.hcl":   "library = \"fns\"\nlifecycle {\n  setup   = \"prepare\"\n  execute = \"run\"\n}\n",
		"bad/README.md":      "not a manifest",
	})

	newRegistry := func() *Registry {
		r := New()
		r.RegisterClass("stages", "Module", pipeline.Class(func() pipeline.Stage { return noopStage{} }))
		r.RegisterFunction("fns", "setup", noop)
		r.RegisterFunction("fns", "run", noop)
		r.RegisterFunction("fns", "cleanup", noop)
		return r
	}

	t.Run("valid manifests", func(t *testing.T) {
		ctx, logs := testutil.NewContext(t)
		manifests, err := LoadManifests(ctx, dir+"/good")
		require.NoError(t, err)
		require.Len(t, manifests, 3)
		require.NoError(t, newRegistry().Validate(ctx, manifests...))
		require.Contains(t, logs.String(), "library=fns phase=execute")
	})

	t.Run("invalid manifests", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		manifests, err := LoadManifests(ctx, dir+"/bad")
		require.NoError(t, err)
		require.Len(t, manifests, 3)

		err = newRegistry().Validate(ctx, manifests...)
		require.Error(t, err)
		require.ErrorContains(t, err, "library 'ghost' is not registered")
		require.ErrorContains(t, err, "has no class 'Ghost'")
		require.ErrorContains(t, err, "has no function 'prepare'")
		require.NotContains(t, err.Error(), "has no function 'execute'")
	})

	t.Run("empty library", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		r := New()
		r.RegisterLibrary(&pipeline.Library{Name: "empty"})
		require.ErrorContains(t, r.Validate(ctx), "library 'empty' registers neither classes nor functions")
	})

	t.Run("empty directory", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		manifests, err := LoadManifests(ctx, t.TempDir())
		require.NoError(t, err)
		require.Empty(t, manifests)
	})
}
