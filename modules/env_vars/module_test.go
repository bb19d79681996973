package env_vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/testutil"
)

func TestSetup(t *testing.T) {
	t.Setenv("BPTEST_NAME", "run-1")
	t.Setenv("BPTEST_LIMITS", "[0, 1]")
	t.Setenv("OTHER_VAR", "x")

	t.Run("raw strings", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		cfg := config.New()
		cfg.Set("env", "prefix", "BPTEST_")
		data := block.New()

		_, err := Setup(ctx, "env", cfg.ReadOnly(), data)
		require.NoError(t, err)
		assert.Equal(t, []string{"limits", "name"}, block.Section(data, "env").Keys())
		v, err := data.GetString("env", "limits")
		require.NoError(t, err)
		assert.Equal(t, "[0, 1]", v)
	})

	t.Run("json values", func(t *testing.T) {
		ctx, _ := testutil.NewContext(t)
		cfg := config.New()
		cfg.Set("env", "prefix", "BPTEST_")
		cfg.Set("env", "section", "settings")
		cfg.Set("env", "json", true)
		data := block.New()

		_, err := Setup(ctx, "env", cfg.ReadOnly(), data)
		require.NoError(t, err)
		limits, err := data.Get("settings", "limits")
		require.NoError(t, err)
		assert.Equal(t, []any{0.0, 1.0}, limits)
		name, err := data.Get("settings", "name")
		require.NoError(t, err)
		assert.Equal(t, "run-1", name)
	})
}
