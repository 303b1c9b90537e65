package uq

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/thalesfsp/oed"
	"github.com/thalesfsp/oed/function"
)

func newPrediction(t *testing.T, sampleSize int) *FunctionWithUncertainty {
	t.Helper()

	// f(theta, x) = theta0 + theta1 x with independent N(1, 0.1²), N(2, 0.2²).
	measure, err := NewMultivariateGaussian(
		[]float64{1, 2},
		mat.NewSymDense(2, []float64{0.01, 0, 0, 0.04}),
		rand.NewPCG(1, 2),
	)
	require.NoError(t, err)

	prediction, err := NewFunctionWithUncertainty(function.NewLinearFunction(1), measure, sampleSize)
	require.NoError(t, err)

	return prediction
}

func TestMultivariateGaussian(t *testing.T) {
	g, err := NewMultivariateGaussian(
		[]float64{1, -1},
		mat.NewSymDense(2, []float64{1, 0.5, 0.5, 2}),
		rand.NewPCG(3, 4),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, g.Dim())
	assert.Equal(t, []float64{1, -1}, g.Mean())
	assert.InDelta(t, 0.5, g.Covariance().At(0, 1), 1e-12)

	const n = 20000

	a, b := make([]float64, n), make([]float64, n)
	for i := 0; i < n; i++ {
		s := g.Rand(nil)
		a[i], b[i] = s[0], s[1]
	}

	assert.InDelta(t, 1, stat.Mean(a, nil), 0.05)
	assert.InDelta(t, -1, stat.Mean(b, nil), 0.05)
	assert.InDelta(t, 2, stat.Variance(b, nil), 0.1)
	assert.InDelta(t, 0.5, stat.Covariance(a, b, nil), 0.05)
}

func TestMultivariateGaussianErrors(t *testing.T) {
	_, err := NewMultivariateGaussian([]float64{0, 0}, mat.NewSymDense(2, []float64{1, 1, 1, 1}), nil)
	assert.ErrorIs(t, err, oed.ErrSingularMatrix)

	_, err = NewMultivariateGaussian([]float64{0, 0}, mat.NewSymDense(3, nil), nil)
	assert.ErrorIs(t, err, oed.ErrDomain)

	_, err = NewMultivariateGaussian(nil, nil, nil)
	assert.ErrorIs(t, err, oed.ErrDomain)
}

func TestQuantile(t *testing.T) {
	prediction := newPrediction(t, 20000)

	// At x = 1 the output is N(3, 0.05).
	sd := math.Sqrt(0.05)

	median, err := prediction.Quantile([]float64{1}, 0.5)
	require.NoError(t, err)
	require.Len(t, median, 1)
	assert.InDelta(t, 3, median[0], 0.02)

	upper, err := prediction.Quantile([]float64{1}, 0.9)
	require.NoError(t, err)
	assert.InDelta(t, 3+1.2816*sd, upper[0], 0.03)

	lower, err := prediction.Quantile([]float64{1}, 0.1)
	require.NoError(t, err)
	assert.Less(t, lower[0], median[0])
	assert.Less(t, median[0], upper[0])

	_, err = prediction.Quantile([]float64{1}, 1.5)
	assert.ErrorIs(t, err, oed.ErrDomain)

	_, err = prediction.Quantile([]float64{1}, math.NaN())
	assert.ErrorIs(t, err, oed.ErrDomain)
}

func TestSpread(t *testing.T) {
	prediction := newPrediction(t, 5000)

	narrow, err := prediction.Spread([]float64{0}, 0.9)
	require.NoError(t, err)

	wide, err := prediction.Spread([]float64{3}, 0.9)
	require.NoError(t, err)

	// Variance 0.01 + 0.04 x² grows with |x|.
	assert.Greater(t, wide[0], narrow[0])
	assert.InDelta(t, 2*1.2816*math.Sqrt(0.01+0.36), wide[0], 0.1)

	for _, alpha := range []float64{0.5, 0.75, 0.99} {
		s, err := prediction.Spread([]float64{1}, alpha)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, s[0], 0.0)
	}
}

func TestSamplesVectorValued(t *testing.T) {
	measure, err := NewMultivariateGaussian(
		[]float64{1.8, 402, 0.13},
		mat.NewSymDense(3, []float64{1e-4, 0, 0, 0, 1, 0, 0, 0, 1e-6}),
		rand.NewPCG(5, 6),
	)
	require.NoError(t, err)

	prediction, err := NewFunctionWithUncertainty(function.NewAgingModel(), measure, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSampleSize, prediction.SampleSize())

	samples := prediction.Samples([]float64{0.8, 310})
	r, c := samples.Dims()
	assert.Equal(t, DefaultSampleSize, r)
	assert.Equal(t, 6, c)

	q, err := prediction.Quantile([]float64{0.8, 310}, 0.5)
	require.NoError(t, err)
	require.Len(t, q, 6)

	// Capacity loss grows with time.
	for k := 1; k < len(q); k++ {
		assert.Greater(t, q[k], q[k-1])
	}
}

func TestQuantileDropsNonFinite(t *testing.T) {
	values := mat.NewDense(4, 1, []float64{math.NaN(), 1, math.Inf(1), 3})
	columns := sortedColumns(values)

	assert.Equal(t, []float64{1, 3}, columns[0])
	assert.True(t, math.IsNaN(quantile(0.5, nil)))
}

func TestNewFunctionWithUncertaintyErrors(t *testing.T) {
	measure, err := NewMultivariateGaussian([]float64{0}, mat.NewSymDense(1, []float64{1}), nil)
	require.NoError(t, err)

	_, err = NewFunctionWithUncertainty(nil, measure, 10)
	assert.Error(t, err)

	_, err = NewFunctionWithUncertainty(function.NewLinearFunction(0), nil, 10)
	assert.Error(t, err)

	_, err = NewFunctionWithUncertainty(function.NewLinearFunction(0), measure, -1)
	assert.Error(t, err)
}

func TestHistogram(t *testing.T) {
	prediction := newPrediction(t, 500)

	p, err := prediction.Histogram([]float64{1}, 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = prediction.Histogram([]float64{1}, 1, 10)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "histogram.png")
	require.NoError(t, prediction.SaveHistogram(path, []float64{1}, 0, 20))
	assert.FileExists(t, path)
}
