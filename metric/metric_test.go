package metric

import (
	"math"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/thalesfsp/oed"
	"github.com/thalesfsp/oed/design"
	"github.com/thalesfsp/oed/function"
	"github.com/thalesfsp/oed/minimizer"
	"github.com/thalesfsp/oed/model"
)

func linearModel(t *testing.T) *model.GaussianNoiseModel {
	t.Helper()

	m, err := model.NewGaussianNoiseModel(model.Config{
		Function:    function.NewLinearFunction(1),
		Sigma:       0.1,
		BoundsX:     oed.Bounds{Lower: []float64{0}, Upper: []float64{1}},
		BoundsTheta: oed.Bounds{Lower: []float64{-5, -5}, Upper: []float64{5, 5}},
		Src:         rand.NewPCG(1, 2),
	})
	require.NoError(t, err)

	return m
}

func TestStdParameterEstimations(t *testing.T) {
	metric := StdParameterEstimations{}
	assert.Equal(t, "Estimated standard deviation of parameter estimations", metric.Name())

	got, err := metric.Calculate(Input{Estimations: mat.NewDense(6, 1, []float64{0, 0, 0, 2, 2, 2})})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, math.Sqrt(6.0/5.0), got[0], 1e-5)

	_, err = metric.Calculate(Input{})
	assert.ErrorIs(t, err, ErrNoEstimations)
}

func TestEstimationMeanParameterEstimations(t *testing.T) {
	got, err := EstimationMeanParameterEstimations{}.Calculate(Input{
		Estimations: mat.NewDense(3, 2, []float64{1, 10, 2, 20, 3, 30}),
	})
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 20}, got)
}

func TestDeterminantOfFisherInformationMatrix(t *testing.T) {
	m := linearModel(t)

	d, err := design.NewDesign("two", mat.NewDense(2, 1, []float64{0, 1}))
	require.NoError(t, err)

	got, err := DeterminantOfFisherInformationMatrix{Theta: []float64{1, 1}, Model: m}.Calculate(Input{Experiment: d})
	require.NoError(t, err)

	// J = [[1, 0], [1, 1]], FIM = JᵀJ/σ², det = 1/σ⁴.
	assert.InDelta(t, 1e4, got[0], 1e-6)
}

func TestEstimationMeanError(t *testing.T) {
	m := linearModel(t)
	metric := &EstimationMeanError{
		Theta:             []float64{1, 1},
		Model:             m,
		NumberEvaluations: 100,
		Src:               rand.NewPCG(3, 4),
	}

	exact, err := metric.Calculate(Input{Estimations: mat.NewDense(1, 2, []float64{1, 1})})
	require.NoError(t, err)
	assert.Equal(t, 0.0, exact[0])

	// An intercept off by 0.5 predicts 0.5 off everywhere.
	shifted, err := metric.Calculate(Input{Estimations: mat.NewDense(2, 2, []float64{1.5, 1, 0.5, 1})})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, shifted[0], 1e-12)
}

func TestKFoldCrossValidation(t *testing.T) {
	m := linearModel(t)
	theta := []float64{1, 2}

	d, err := design.NewDesign("grid", mat.NewDense(8, 1, []float64{0, 0.1, 0.3, 0.4, 0.6, 0.7, 0.9, 1}))
	require.NoError(t, err)

	y := mat.NewDense(8, 1, nil)
	for i := 0; i < 8; i++ {
		obs, err := m.Random(theta, d.Point(i))
		require.NoError(t, err)
		y.Set(i, 0, obs[0])
	}

	config := minimizer.DefaultDifferentialEvolutionConfig()
	config.Src = rand.NewPCG(5, 6)

	metric := KFoldCrossValidation{Model: m, Minimizer: minimizer.NewDifferentialEvolution(config), NumberSplits: 4}

	got, err := metric.Calculate(Input{Experiment: d, Observations: []*mat.Dense{y}})
	require.NoError(t, err)

	// Held-out error is of the order of the noise variance.
	assert.Greater(t, got[0], 0.0)
	assert.Less(t, got[0], 0.1)

	metric.NumberSplits = 9
	_, err = metric.Calculate(Input{Experiment: d, Observations: []*mat.Dense{y}})
	assert.Error(t, err)
}

func TestEvaluateAndPlot(t *testing.T) {
	inputs := map[string]Input{
		"b": {Estimations: mat.NewDense(2, 1, []float64{0, 2})},
		"a": {Estimations: mat.NewDense(2, 1, []float64{1, 1})},
	}

	results, err := Evaluate(StdParameterEstimations{}, inputs)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Design)
	assert.Equal(t, 0.0, results[0].Values[0])
	assert.InDelta(t, math.Sqrt2, results[1].Values[0], 1e-12)

	inputs["c"] = Input{}
	_, err = Evaluate(StdParameterEstimations{}, inputs)
	assert.ErrorIs(t, err, ErrNoEstimations)

	p, err := Plot("std", results, 0, []float64{0.5, 0.5})
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = Plot("std", results, 1, nil)
	assert.Error(t, err)

	_, err = Plot("std", results, 0, []float64{1})
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "std.svg")
	require.NoError(t, SavePlot(path, "std", results, 0, nil))
	assert.FileExists(t, path)
}
