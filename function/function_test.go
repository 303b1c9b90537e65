package function

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalesfsp/oed"
)

// centralDifference approximates ∂f/∂theta[index] component-wise.
func centralDifference(f oed.ParametricFunction, theta, x []float64, index int) []float64 {
	h := 1e-6 * math.Max(1, math.Abs(theta[index]))

	plus := append([]float64(nil), theta...)
	minus := append([]float64(nil), theta...)
	plus[index] += h
	minus[index] -= h

	fp := f.Evaluate(plus, x)
	fm := f.Evaluate(minus, x)

	out := make([]float64, len(fp))
	for k := range fp {
		out[k] = (fp[k] - fm[k]) / (2 * h)
	}

	return out
}

func assertDerivativesMatch(t *testing.T, f oed.ParametricFunction, theta, x []float64) {
	t.Helper()

	for index := range theta {
		analytic := f.PartialDerivative(theta, x, index)
		numeric := centralDifference(f, theta, x, index)

		require.Len(t, analytic, f.OutputDim())

		for k := range analytic {
			tol := 1e-6*math.Abs(analytic[k]) + 1e-10
			assert.InDelta(t, numeric[k], analytic[k], tol,
				"theta=%v x=%v index=%d component=%d", theta, x, index, k)
		}
	}
}

func TestAgingModelDerivatives(t *testing.T) {
	f := NewAgingModel()

	cases := []struct {
		theta []float64
		x     []float64
	}{
		{theta: []float64{1.8, 402, 0.13}, x: []float64{0.8, 310}},
		{theta: []float64{1.8, 402, 0.13}, x: []float64{0.1, 280}},
		{theta: []float64{0.5, 1200, 0.6}, x: []float64{0.95, 330}},
		{theta: []float64{3.2, 50, 0.02}, x: []float64{0.3, 296.15}},
	}

	for _, c := range cases {
		assertDerivativesMatch(t, f, c.theta, c.x)
	}
}

func TestAgingModelReferenceConditions(t *testing.T) {
	f := NewAgingModel(WithTimes([]float64{520}))

	// At reference SoC and temperature the loss at end of life is 1-EOLC.
	y := f.Evaluate([]float64{1.8, 402, 0.13}, []float64{0.5, 296.15})

	require.Len(t, y, 1)
	assert.InDelta(t, 0.1, y[0], 1e-12)
}

func TestAgingModelCapacityCurve(t *testing.T) {
	f := NewAgingModel()
	theta := []float64{1.8, 402, 0.13}
	x := []float64{0.8, 310}

	curve := f.CapacityCurve(theta, x, []float64{1, 50, 149})

	require.Len(t, curve, 3)
	assert.Less(t, curve[0], 100.0)
	assert.Greater(t, curve[0], curve[1])
	assert.Greater(t, curve[1], curve[2])
}

func TestAgingModelSecondDerivativeNotSupported(t *testing.T) {
	_, err := oed.SecondPartialDerivative(NewAgingModel(), []float64{1.8, 402, 0.13}, []float64{0.5, 300}, 0, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, oed.ErrNotSupported)
}

func TestLinearFunction(t *testing.T) {
	f := NewLinearFunction(2)
	theta := []float64{1, 2, 3}
	x := []float64{4, 5}

	assert.Equal(t, []float64{1 + 8 + 15}, f.Evaluate(theta, x))
	assert.Equal(t, []float64{1}, f.PartialDerivative(theta, x, 0))
	assert.Equal(t, []float64{4}, f.PartialDerivative(theta, x, 1))
	assert.Equal(t, []float64{5}, f.PartialDerivative(theta, x, 2))

	assertDerivativesMatch(t, f, theta, x)

	d2, err := oed.SecondPartialDerivative(f, theta, x, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, d2)
}
