package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/testutil"
)

func TestFromLibrary(t *testing.T) {
	manifests := map[string]string{
		"stages/run.hcl":    "library = \"test\"\nlifecycle {\n  execute = \"run\"\n}\n",
		"stages/record.hcl": "library = \"test\"\nclass   = \"Record\"\n",
		"stages/empty.hcl":  "library = \"\"\nclass   = \"Record\"\n",
		"stages/broken.hcl": "library = \n",
	}

	testCases := []struct {
		name     string
		options  map[string]any
		wantType string
		wantKind Kind
		wantErr  string
	}{
		{
			name:     "default class",
			options:  map[string]any{"module_name": "default"},
			wantType: "default.Module",
			wantKind: KindClass,
		},
		{
			name:     "explicit class",
			options:  map[string]any{"module_name": "test", "module_class": "Record"},
			wantType: "test.Record",
			wantKind: KindClass,
		},
		{
			name:     "default functions",
			options:  map[string]any{"module_name": "test"},
			wantType: "test.functions",
			wantKind: KindFunctions,
		},
		{
			name:     "renamed function",
			options:  map[string]any{"module_name": "test", "execute_function": "run"},
			wantType: "test.functions",
			wantKind: KindFunctions,
		},
		{
			name:    "explicit function overrides default class",
			options: map[string]any{"module_name": "default", "execute_function": "run"},
			wantErr: `no function(s) cleanup, run, setup`,
		},
		{
			name:     "manifest with lifecycle",
			options:  map[string]any{"module_file": "stages/run.hcl"},
			wantType: "test.functions",
			wantKind: KindFunctions,
		},
		{
			name:     "manifest with class",
			options:  map[string]any{"module_file": "stages/record.hcl"},
			wantType: "test.Record",
			wantKind: KindClass,
		},
		{
			name:     "class option overrides manifest",
			options:  map[string]any{"module_file": "stages/run.hcl", "module_class": "Line"},
			wantType: "test.Line",
			wantKind: KindClass,
		},
		{
			name:     "base_dir option",
			options:  map[string]any{"module_file": "run.hcl", "base_dir": "stages"},
			wantType: "test.functions",
			wantKind: KindFunctions,
		},
		{
			name:    "neither name nor file",
			options: map[string]any{},
			wantErr: "you must provide a module file or a module name",
		},
		{
			name:    "both name and file",
			options: map[string]any{"module_name": "test", "module_file": "stages/run.hcl"},
			wantErr: "both module file and module name are provided",
		},
		{
			name:    "unknown library",
			options: map[string]any{"module_name": "ghost"},
			wantErr: `unknown library "ghost"`,
		},
		{
			name:    "unknown class",
			options: map[string]any{"module_name": "test", "module_class": "Ghost"},
			wantErr: `has no class "Ghost"`,
		},
		{
			name:    "unknown function",
			options: map[string]any{"module_name": "test", "setup_function": "prepare"},
			wantErr: "no function(s) prepare",
		},
		{
			name:    "missing manifest",
			options: map[string]any{"module_file": "stages/missing.hcl"},
			wantErr: "missing.hcl",
		},
		{
			name:    "manifest without library",
			options: map[string]any{"module_file": "stages/empty.hcl"},
			wantErr: "does not name a library",
		},
		{
			name:    "malformed manifest",
			options: map[string]any{"module_file": "stages/broken.hcl"},
			wantErr: "broken.hcl",
		},
		{
			name:    "option of wrong type",
			options: map[string]any{"module_name": 3},
			wantErr: "module_name",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.NewContext(t)
			dir := testutil.WriteFiles(t, manifests)
			if bd, ok := tc.options["base_dir"].(string); ok {
				tc.options["base_dir"] = filepath.Join(dir, bd)
			}

			n, err := FromLibrary(ctx, "stage",
				WithOptions(tc.options),
				WithRegistry(testLibrary(&testutil.CallLog{})),
				WithBaseDir(dir),
			)
			if tc.wantErr != "" {
				require.ErrorIs(t, err, ErrModule)
				require.ErrorContains(t, err, tc.wantErr)
				require.Nil(t, n)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantType, n.Type())
			require.Equal(t, tc.wantKind, n.Kind())
			require.Equal(t, "stage", n.Name())
			require.Equal(t, Bound, n.State())
		})
	}
}

func TestFromLibrary_NoRegistry(t *testing.T) {
	ctx, _ := testutil.NewContext(t)

	_, err := FromLibrary(ctx, "stage", WithOptions(map[string]any{"module_name": "test"}))
	require.ErrorIs(t, err, ErrModule)
}

func TestFromLibrary_FunctionsRun(t *testing.T) {
	ctx, logs := testutil.NewContext(t)
	log := &testutil.CallLog{}

	n, err := FromLibrary(ctx, "fn",
		WithOptions(map[string]any{"module_name": "test", "execute_function": "run"}),
		WithRegistry(testLibrary(log)),
	)
	require.NoError(t, err)
	require.NoError(t, n.Setup(ctx))
	require.NoError(t, n.Execute(ctx))
	require.NoError(t, n.Cleanup(ctx))

	require.Equal(t, []string{"fn.setup", "fn.execute", "fn.cleanup"}, log.Strings())
	require.Contains(t, logs.String(), "execute=run")
}

func TestFromLibrary_FunctionsSeeReadOnlyConfig(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	var writable bool
	step := func(_ context.Context, name string, cfg config.Reader, data *block.DataBlock) (int, error) {
		opts := cfg.Options(name)
		_, writable = opts.(interface{ Set(string, any) })
		scale, err := opts.GetFloat("scale")
		if err != nil {
			return 0, err
		}
		data.Set("out", "scale", scale)
		return 0, nil
	}
	libs := testLibs{"fns": {Name: "fns", Functions: map[string]StepFunc{
		"setup": step, "execute": step, "cleanup": step,
	}}}

	n, err := FromLibrary(ctx, "fn",
		WithOptions(map[string]any{"module_name": "fns", "scale": 2.5}),
		WithRegistry(libs),
	)
	require.NoError(t, err)
	require.NoError(t, n.Setup(ctx))

	require.False(t, writable)
	scale, err := n.Data().GetFloat("out", "scale")
	require.NoError(t, err)
	require.Equal(t, 2.5, scale)
}

func TestFromLibrary_SharedConfig(t *testing.T) {
	ctx, _ := testutil.NewContext(t)
	cfg := fitConfig("")

	n, err := FromLibrary(ctx, "model",
		WithConfig(cfg),
		WithRegistry(testLibrary(&testutil.CallLog{})),
		WithBaseDir(fitDir(t)),
	)
	require.NoError(t, err)
	require.Same(t, cfg, n.Config())
	require.Equal(t, []string{"a_model"}, n.Params().Names())
}
