// Package synthetic generates straight-line data sets for testing pipelines.
package synthetic

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/config"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/registry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Library is the name modules use in module_name.
const Library = "synthetic"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Settings are read from the module's configuration section.
type Settings struct {
	N         int
	XMin      float64
	XMax      float64
	Slope     float64
	Intercept float64
	Sigma     float64
	Seed      uint64
}

func readSettings(opts block.SectionReader) (*Settings, error) {
	s := &Settings{}
	var err error
	if s.N, err = opts.GetInt("n", 10); err != nil {
		return nil, err
	}
	if s.N < 2 {
		return nil, fmt.Errorf("n must be at least 2, got %d", s.N)
	}
	seed, err := opts.GetInt("seed", 42)
	if err != nil {
		return nil, err
	}
	s.Seed = uint64(seed)
	for _, f := range []struct {
		name string
		dst  *float64
		def  float64
	}{
		{"x_min", &s.XMin, 0},
		{"x_max", &s.XMax, 1},
		{"slope", &s.Slope, 1},
		{"intercept", &s.Intercept, 0},
		{"sigma", &s.Sigma, 0},
	} {
		if *f.dst, err = opts.GetNumber(f.name, f.def); err != nil {
			return nil, err
		}
	}
	if s.Sigma < 0 {
		return nil, fmt.Errorf("sigma must not be negative, got %g", s.Sigma)
	}
	return s, nil
}

// Generate returns evenly spaced x and y = slope*x + intercept, plus
// Gaussian noise of width sigma when sigma is positive.
func Generate(s *Settings) (x, y []float64) {
	x = floats.Span(make([]float64, s.N), s.XMin, s.XMax)
	y = make([]float64, s.N)
	floats.ScaleTo(y, s.Slope, x)
	floats.AddConst(s.Intercept, y)
	if s.Sigma > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: s.Sigma, Src: rand.NewPCG(s.Seed, s.Seed)}
		for i := range y {
			y[i] += noise.Rand()
		}
	}
	return x, y
}

// Setup writes data.x and data.y, and data.sigma when noise was added.
func Setup(ctx context.Context, name string, cfg config.Reader, data *block.DataBlock) (int, error) {
	s, err := readSettings(cfg.Options(name))
	if err != nil {
		return 0, fmt.Errorf("synthetic data: %w", err)
	}
	x, y := Generate(s)
	data.Set(block.Data, "x", block.Vector(x...))
	data.Set(block.Data, "y", block.Vector(y...))
	if s.Sigma > 0 {
		data.Set(block.Data, "sigma", s.Sigma)
	}
	ctxlog.FromContext(ctx).Debug("Synthetic data generated.", "points", s.N, "sigma", s.Sigma)
	return 0, nil
}

// Execute does nothing: the data set does not depend on parameters.
func Execute(context.Context, string, config.Reader, *block.DataBlock) (int, error) {
	return 0, nil
}

// Cleanup does nothing.
func Cleanup(context.Context, string, config.Reader, *block.DataBlock) (int, error) {
	return 0, nil
}

// Register registers the lifecycle functions with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterFunction(Library, "setup", Setup)
	r.RegisterFunction(Library, "execute", Execute)
	r.RegisterFunction(Library, "cleanup", Cleanup)
}
