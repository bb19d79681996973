// Package gaussian implements a multivariate Gaussian likelihood of a model
// vector against a data vector.
package gaussian

import (
	"context"
	"fmt"
	"math"

	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/ctxlog"
	"github.com/vk/blockpipe/internal/pipeline"
	"github.com/vk/blockpipe/internal/registry"
	"gonum.org/v1/gonum/mat"
)

// Library is the name modules use in module_name.
const Library = "gaussian"

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the likelihood with the engine as the library's
// default class.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterClass(Library, pipeline.DefaultClass, pipeline.Class(func() pipeline.Stage { return &Likelihood{} }))
}

// Likelihood reads data.y once at setup and, at every execution, writes
// likelihood.loglkl = -chi2/2 for model.y.
//
// The covariance is covariance.cov when present, otherwise a diagonal built
// from the "sigma" option, falling back to data.sigma and then to 1. A
// positive "nobs" option applies the Hartlap correction to the precision
// matrix, as for covariances estimated from nobs mocks.
type Likelihood struct {
	y         *mat.VecDense
	precision *mat.SymDense
}

func (l *Likelihood) Setup(ctx context.Context, m *pipeline.Module) error {
	y, err := m.Data().GetFloatArray1D(block.Data, "y")
	if err != nil {
		return err
	}
	n := y.Size()
	l.y = mat.NewVecDense(n, append([]float64(nil), y.Data...))

	cov, err := l.covariance(m, n)
	if err != nil {
		return err
	}
	var chol mat.Cholesky
	if ok := chol.Factorize(cov); !ok {
		return fmt.Errorf("covariance matrix is not positive definite")
	}
	l.precision = mat.NewSymDense(n, nil)
	if err := chol.InverseTo(l.precision); err != nil {
		return fmt.Errorf("invert covariance: %w", err)
	}

	nobs, err := m.Options().GetInt("nobs", 0)
	if err != nil {
		return err
	}
	if nobs > 0 {
		factor, err := Hartlap(nobs, n)
		if err != nil {
			return err
		}
		l.precision.ScaleSym(factor, l.precision)
	}
	ctxlog.FromContext(ctx).Debug("Gaussian likelihood ready.", "size", n, "nobs", nobs)
	return nil
}

func (l *Likelihood) covariance(m *pipeline.Module, n int) (*mat.SymDense, error) {
	if m.Data().Has(block.Covariance, "cov") {
		c, err := m.Data().GetFloatArray2D(block.Covariance, "cov")
		if err != nil {
			return nil, err
		}
		if c.Shape[0] != n || c.Shape[1] != n {
			return nil, fmt.Errorf("covariance shape %v does not match data size %d", c.Shape, n)
		}
		sym := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				if c.At(i, j) != c.At(j, i) {
					return nil, fmt.Errorf("covariance matrix is not symmetric at (%d, %d)", i, j)
				}
				sym.SetSym(i, j, c.At(i, j))
			}
		}
		return sym, nil
	}

	sigma, err := m.Data().GetFloat(block.Data, "sigma", 1)
	if err != nil {
		return nil, err
	}
	if sigma, err = m.Options().GetNumber("sigma", sigma); err != nil {
		return nil, err
	}
	if !(sigma > 0) {
		return nil, fmt.Errorf("sigma must be positive, got %g", sigma)
	}
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		sym.SetSym(i, i, sigma*sigma)
	}
	return sym, nil
}

// Hartlap returns the factor (nobs-n-2)/(nobs-1) debiasing the inverse of a
// covariance estimated from nobs realisations of an n-vector.
func Hartlap(nobs, n int) (float64, error) {
	factor := float64(nobs-n-2) / float64(nobs-1)
	if nobs < 2 || factor <= 0 {
		return 0, fmt.Errorf("nobs = %d is too small for a data vector of size %d", nobs, n)
	}
	return factor, nil
}

func (l *Likelihood) Execute(_ context.Context, m *pipeline.Module) error {
	model, err := m.Data().GetFloatArray1D(block.Model, "y")
	if err != nil {
		return err
	}
	if model.Size() != l.y.Len() {
		return fmt.Errorf("model size %d does not match data size %d", model.Size(), l.y.Len())
	}
	var r mat.VecDense
	r.SubVec(mat.NewVecDense(model.Size(), append([]float64(nil), model.Data...)), l.y)
	chi2 := mat.Inner(&r, l.precision, &r)
	loglkl := -0.5 * chi2
	if math.IsNaN(loglkl) {
		loglkl = math.Inf(-1)
	}
	m.Data().Set(block.Likelihood, "chi2", chi2)
	m.Data().Set(block.Likelihood, "loglkl", loglkl)
	return nil
}

func (l *Likelihood) Cleanup(context.Context, *pipeline.Module) error {
	l.y, l.precision = nil, nil
	return nil
}
