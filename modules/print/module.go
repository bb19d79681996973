// Package print writes the content of a data block to the terminal.
package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/registry"
)

// Library is the name modules use in module_name.
const Library = "print"

// Output is where the block is printed.
var Output io.Writer = os.Stdout

// Module implements the registry.Module interface for this package.
type Module struct{}

// Execute prints every key of the sections named by the "sections" option,
// or of the whole block when the option is empty.
func Execute(ctx context.Context, name string, cfg config.Reader, data *block.DataBlock) (int, error) {
	sections, err := cfg.Options(name).GetString("sections", "")
	if err != nil {
		return 0, err
	}
	ctxlog.FromContext(ctx).Info("Printing data block", "sections", sections)

	items := data.Items(strings.Fields(sections)...)
	if len(items) == 0 {
		fmt.Fprintln(Output, "      (empty)")
		return 0, nil
	}
	for _, it := range items {
		fmt.Fprintf(Output, "      %s = %s\n", it.Key, format(it.Value))
	}
	return 0, nil
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return fmt.Sprintf("%q", x)
	case block.Array[float64]:
		return fmt.Sprintf("%v %v", x.Shape, x.Data)
	case block.Array[int64]:
		return fmt.Sprintf("%v %v", x.Shape, x.Data)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func noop(context.Context, string, config.Reader, *block.DataBlock) (int, error) {
	return 0, nil
}

// Register registers the lifecycle functions with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunction(Library, "setup", noop)
	r.RegisterFunction(Library, "execute", Execute)
	r.RegisterFunction(Library, "cleanup", noop)
}
