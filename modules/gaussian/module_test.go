package gaussian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/blockpipe/internal/block"
	"github.com/vk/blockpipe/internal/pipeline"
	"github.com/vk/blockpipe/internal/testutil"
)

func TestLikelihood(t *testing.T) {
	diag4, err := block.NewArray([]float64{4, 0, 0, 0, 4, 0, 0, 0, 4}, 3, 3)
	require.NoError(t, err)
	asym, err := block.NewArray([]float64{1, 0.5, 0, 0, 1, 0, 0, 0, 1}, 3, 3)
	require.NoError(t, err)
	small, err := block.NewArray([]float64{1, 0, 0, 1}, 2, 2)
	require.NoError(t, err)

	testCases := []struct {
		name       string
		options    map[string]any
		cov        any
		dataSigma  any
		model      []float64
		wantLoglkl float64
		wantErr    string
	}{
		{name: "unit sigma", model: []float64{1, 2, 5}, wantLoglkl: -2},
		{name: "sigma option", options: map[string]any{"sigma": 2}, model: []float64{1, 2, 5}, wantLoglkl: -0.5},
		{name: "data sigma", dataSigma: 2.0, model: []float64{1, 2, 5}, wantLoglkl: -0.5},
		{name: "covariance matrix", cov: diag4, model: []float64{1, 2, 5}, wantLoglkl: -0.5},
		{name: "hartlap", options: map[string]any{"nobs": 10}, model: []float64{1, 2, 5}, wantLoglkl: -2 * 5.0 / 9.0},
		{name: "perfect fit", model: []float64{1, 2, 3}, wantLoglkl: 0},
		{name: "too few observations", options: map[string]any{"nobs": 4}, model: []float64{1, 2, 3}, wantErr: "too small"},
		{name: "asymmetric covariance", cov: asym, model: []float64{1, 2, 3}, wantErr: "not symmetric"},
		{name: "covariance shape", cov: small, model: []float64{1, 2, 3}, wantErr: "does not match"},
		{name: "model size", model: []float64{1, 2}, wantErr: "model size 2"},
		{name: "non-positive sigma", options: map[string]any{"sigma": 0}, model: []float64{1, 2, 3}, wantErr: "sigma must be positive"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.NewContext(t)
			data := block.New()
			data.Set(block.Data, "y", block.Vector(1.0, 2.0, 3.0))
			if tc.cov != nil {
				data.Set(block.Covariance, "cov", tc.cov)
			}
			if tc.dataSigma != nil {
				data.Set(block.Data, "sigma", tc.dataSigma)
			}

			m, err := pipeline.NewModule(ctx, "like", &Likelihood{},
				pipeline.WithData(data),
				pipeline.WithOptions(tc.options),
			)
			require.NoError(t, err)

			err = m.Setup(ctx)
			if err == nil {
				data.Set(block.Model, "y", block.Vector(tc.model...))
				err = m.Execute(ctx)
			}
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			loglkl, err := data.GetFloat(block.Likelihood, "loglkl")
			require.NoError(t, err)
			assert.InDelta(t, tc.wantLoglkl, loglkl, 1e-12)
			chi2, err := data.GetFloat(block.Likelihood, "chi2")
			require.NoError(t, err)
			assert.InDelta(t, -2*tc.wantLoglkl, chi2, 1e-12)

			require.NoError(t, m.Cleanup(ctx))
		})
	}
}

func TestHartlap(t *testing.T) {
	f, err := Hartlap(100, 10)
	require.NoError(t, err)
	assert.InDelta(t, 88.0/99.0, f, 1e-15)

	_, err = Hartlap(1, 1)
	assert.Error(t, err)
	_, err = Hartlap(12, 10)
	assert.Error(t, err)
}
