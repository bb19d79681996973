// Package flat provides the simplest theory models: a constant and a straight
// line, both evaluated on the data abscissa.
package flat

import (
	"context"
	"fmt"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/pipeline"
	"github.com/vk/blockpipe/internal/registry"
	"gonum.org/v1/gonum/floats"
)

// Library is the name modules use in module_name.
const Library = "flat"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the model classes with the engine. The constant model
// is the library's default class.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterClass(Library, pipeline.DefaultClass, pipeline.Class(func() pipeline.Stage { return &Constant{} }))
	r.RegisterClass(Library, "Affine", pipeline.Class(func() pipeline.Stage { return &Affine{} }))
}

// abscissa reads data.x, or an index grid of length n when the model is
// configured with an explicit "n" option.
func abscissa(m *pipeline.Module) ([]float64, error) {
	opts := m.Options()
	if opts.Has("n") {
		n, err := opts.GetInt("n")
		if err != nil {
			return nil, err
		}
		if n < 1 {
			return nil, fmt.Errorf("n must be positive, got %d", n)
		}
		x := make([]float64, n)
		for i := range x {
			x[i] = float64(i)
		}
		return x, nil
	}
	x, err := m.Data().GetFloatArray1D(block.Data, "x")
	if err != nil {
		return nil, err
	}
	return x.Data, nil
}

// Constant writes model.y = a at every abscissa.
type Constant struct {
	x []float64
}

func (c *Constant) Setup(_ context.Context, m *pipeline.Module) error {
	x, err := abscissa(m)
	if err != nil {
		return err
	}
	c.x = x
	return nil
}

func (c *Constant) Execute(_ context.Context, m *pipeline.Module) error {
	a, err := m.Data().GetFloat(block.Parameters, "a")
	if err != nil {
		return err
	}
	y := make([]float64, len(c.x))
	floats.AddConst(a, y)
	m.Data().Set(block.Model, "y", block.Vector(y...))
	return nil
}

func (c *Constant) Cleanup(context.Context, *pipeline.Module) error {
	c.x = nil
	return nil
}

// Affine writes model.y = a*x + b.
type Affine struct {
	x []float64
}

func (l *Affine) Setup(_ context.Context, m *pipeline.Module) error {
	x, err := abscissa(m)
	if err != nil {
		return err
	}
	l.x = x
	return nil
}

func (l *Affine) Execute(_ context.Context, m *pipeline.Module) error {
	params := block.Section(m.Data(), block.Parameters)
	a, err := params.GetFloat("a")
	if err != nil {
		return err
	}
	b, err := params.GetFloat("b", 0)
	if err != nil {
		return err
	}
	y := make([]float64, len(l.x))
	floats.ScaleTo(y, a, l.x)
	floats.AddConst(b, y)
	m.Data().Set(block.Model, "y", block.Vector(y...))
	m.Data().Set(block.Model, "x", block.Vector(l.x...))
	return nil
}

func (l *Affine) Cleanup(context.Context, *pipeline.Module) error {
	l.x = nil
	return nil
}
