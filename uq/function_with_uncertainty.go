package uq

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/thalesfsp/oed"
)

// DefaultSampleSize is the number of parameter samples per query.
const DefaultSampleSize = 1000

// FunctionWithUncertainty composes a parametric function with a
// probability measure on its parameters. At a query point x it evaluates
// the function at fresh parameter samples and treats the outputs as the
// predictive distribution at x.
//
// It holds no state besides the immutable function, measure and sample
// size, and is safe for concurrent use when the measure is.
type FunctionWithUncertainty struct {
	function   oed.ParametricFunction
	measure    oed.ProbabilityMeasure
	sampleSize int
}

// NewFunctionWithUncertainty returns the composition. A sampleSize of zero
// means DefaultSampleSize.
func NewFunctionWithUncertainty(
	function oed.ParametricFunction,
	measure oed.ProbabilityMeasure,
	sampleSize int,
) (*FunctionWithUncertainty, error) {
	if function == nil {
		return nil, errors.New("uq: nil parametric function")
	}

	if measure == nil {
		return nil, errors.New("uq: nil probability measure")
	}

	if sampleSize == 0 {
		sampleSize = DefaultSampleSize
	}

	if sampleSize < 0 {
		return nil, fmt.Errorf("uq: sample size must be positive, got %d", sampleSize)
	}

	return &FunctionWithUncertainty{
		function:   function,
		measure:    measure,
		sampleSize: sampleSize,
	}, nil
}

// SampleSize is the number of parameter samples drawn per query.
func (f *FunctionWithUncertainty) SampleSize() int { return f.sampleSize }

// Samples evaluates the function at x for SampleSize fresh parameter
// samples. Row i holds the outputs for the i-th sample.
func (f *FunctionWithUncertainty) Samples(x []float64) *mat.Dense {
	k := f.function.OutputDim()
	out := mat.NewDense(f.sampleSize, k, nil)
	theta := make([]float64, f.measure.Dim())

	for i := 0; i < f.sampleSize; i++ {
		f.measure.Rand(theta)
		out.SetRow(i, f.function.Evaluate(theta, x))
	}

	return out
}

// Quantile returns the empirical alpha-quantile of the predictive
// distribution at x, one value per output component.
//
// Parameters:
// - x: Design point
// - alpha: Quantile level in [0, 1]
//
// Returns:
// - []float64: One quantile per output component
// - error: *oed.DomainError when alpha is outside [0, 1]
//
// Important notes:
// - Draws SampleSize fresh parameter samples on every call, so two calls
// differ by Monte Carlo noise
// - Non-finite outputs (parameter samples outside the function's domain)
// are dropped before the quantile is taken; a component without any
// finite output yields NaN
// - Quantiles interpolate linearly between order statistics
// (stat.LinInterp)
//
// Example:
//
//	upper, err := prediction.Quantile([]float64{0.5, 296.15}, 0.95)
func (f *FunctionWithUncertainty) Quantile(x []float64, alpha float64) ([]float64, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}

	columns := sortedColumns(f.Samples(x))

	out := make([]float64, len(columns))
	for c, values := range columns {
		out[c] = quantile(alpha, values)
	}

	return out, nil
}

// Spread returns the alpha-quantile minus the (1-alpha)-quantile at x, per
// output component. Both quantiles come from the same sample set, so for
// alpha >= 0.5 the spread is never negative.
func (f *FunctionWithUncertainty) Spread(x []float64, alpha float64) ([]float64, error) {
	if err := checkAlpha(alpha); err != nil {
		return nil, err
	}

	columns := sortedColumns(f.Samples(x))

	out := make([]float64, len(columns))
	for c, values := range columns {
		out[c] = quantile(alpha, values) - quantile(1-alpha, values)
	}

	return out, nil
}

func checkAlpha(alpha float64) error {
	if !(alpha >= 0 && alpha <= 1) {
		return &oed.DomainError{Input: "alpha", Index: -1, Reason: fmt.Sprintf("%g outside [0, 1]", alpha)}
	}

	return nil
}

// sortedColumns returns the finite values of every column of m, sorted.
func sortedColumns(m *mat.Dense) [][]float64 {
	r, k := m.Dims()
	columns := make([][]float64, k)

	for c := 0; c < k; c++ {
		values := make([]float64, 0, r)

		for i := 0; i < r; i++ {
			if v := m.At(i, c); !math.IsNaN(v) && !math.IsInf(v, 0) {
				values = append(values, v)
			}
		}

		sort.Float64s(values)
		columns[c] = values
	}

	return columns
}

func quantile(alpha float64, sorted []float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}

	return stat.Quantile(alpha, stat.LinInterp, sorted, nil)
}
