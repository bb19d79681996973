// Package env_vars copies environment variables into a data block section.
package env_vars

import (
	"context"
	"os"
	"strings"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/registry"
)

// Library is the name modules use in module_name.
const Library = "env_vars"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Setup stores every environment variable whose name starts with the
// "prefix" option under the "section" option (default "env"), keyed by the
// lower-cased name without the prefix. With "json = true" values holding
// JSON are decoded.
func Setup(ctx context.Context, name string, cfg config.Reader, data *block.DataBlock) (int, error) {
	opts := cfg.Options(name)
	prefix, err := opts.GetString("prefix", "")
	if err != nil {
		return 0, err
	}
	section, err := opts.GetString("section", "env")
	if err != nil {
		return 0, err
	}
	decode, err := opts.GetBool("json", false)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 || !strings.HasPrefix(pair[0], prefix) {
			continue
		}
		key := strings.ToLower(strings.TrimPrefix(pair[0], prefix))
		if key == "" {
			continue
		}
		data.Set(section, key, pair[1])
		if decode {
			v, err := data.GetJSON(section, key, block.WithFallback(block.KeepRaw))
			if err != nil {
				return 0, err
			}
			data.Set(section, key, v)
		}
		count++
	}
	ctxlog.FromContext(ctx).Debug("Environment copied.", "section", section, "prefix", prefix, "variables", count)
	return 0, nil
}

func noop(context.Context, string, config.Reader, *block.DataBlock) (int, error) {
	return 0, nil
}

// Register registers the lifecycle functions with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunction(Library, "setup", Setup)
	r.RegisterFunction(Library, "execute", noop)
	r.RegisterFunction(Library, "cleanup", noop)
}
