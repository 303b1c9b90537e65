package metric

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/thalesfsp/oed"
)

// DeterminantOfFisherInformationMatrix is the D-optimality criterion of the
// design at a fixed Theta.
type DeterminantOfFisherInformationMatrix struct {
	Theta []float64
	Model oed.StatisticalModel
}

// Name implements Metric.
func (DeterminantOfFisherInformationMatrix) Name() string {
	return "Determinant of the Fisher information matrix"
}

// Calculate implements Metric.
func (m DeterminantOfFisherInformationMatrix) Calculate(in Input) ([]float64, error) {
	if in.Experiment == nil {
		return nil, errors.New("metric: no experiment")
	}

	det, err := m.Model.DeterminantFisherInformationMatrix(m.Theta, in.Experiment.Experiment())
	if err != nil {
		return nil, err
	}

	return []float64{det}, nil
}

// EstimationMeanError measures how far the fitted models predict from the
// true one: for every estimation, the mean absolute difference between
// f(estimation, x) and f(Theta, x) over NumberEvaluations points drawn
// uniformly from the model's design bounds. It returns the mean over
// estimations.
//
// The evaluation points are drawn once, on first use.
type EstimationMeanError struct {
	Theta             []float64
	Model             oed.StatisticalModel
	NumberEvaluations int

	// Src is the randomness of the evaluation points. Nil seeds from the
	// clock.
	Src rand.Source

	once   sync.Once
	points [][]float64
}

// Name implements Metric.
func (*EstimationMeanError) Name() string { return "Estimated mean error" }

func (m *EstimationMeanError) evaluationPoints() [][]float64 {
	m.once.Do(func() {
		src := m.Src
		if src == nil {
			seed := uint64(time.Now().UnixNano())
			src = rand.NewPCG(seed, seed>>11)
		}

		n := m.NumberEvaluations
		if n <= 0 {
			n = 1000
		}

		uniform := distmv.NewUniform(m.Model.BoundsX().Intervals(), src)

		m.points = make([][]float64, n)
		for i := range m.points {
			m.points[i] = uniform.Rand(nil)
		}
	})

	return m.points
}

// Calculate implements Metric.
func (m *EstimationMeanError) Calculate(in Input) ([]float64, error) {
	est, err := estimations(in)
	if err != nil {
		return nil, err
	}

	points := m.evaluationPoints()

	truth := make([][]float64, len(points))
	for i, x := range points {
		if truth[i], err = m.Model.Evaluate(m.Theta, x); err != nil {
			return nil, err
		}
	}

	r, _ := est.Dims()
	errs := make([]float64, r)

	for e := 0; e < r; e++ {
		theta := est.RawRowView(e)

		var (
			sum   float64
			count int
		)

		for i, x := range points {
			y, err := m.Model.Evaluate(theta, x)
			if err != nil {
				return nil, err
			}

			for k := range y {
				sum += math.Abs(y[k] - truth[i][k])
				count++
			}
		}

		errs[e] = sum / float64(count)
	}

	return []float64{floats.Sum(errs) / float64(r)}, nil
}

// KFoldCrossValidation refits the model on all but one fold of the first
// repetition's observations and reports the mean squared prediction error
// on the held-out fold, averaged over NumberSplits folds.
type KFoldCrossValidation struct {
	Model        oed.StatisticalModel
	Minimizer    oed.Minimizer
	NumberSplits int
}

// Name implements Metric.
func (KFoldCrossValidation) Name() string { return "K-fold cross validation" }

// Calculate implements Metric.
func (m KFoldCrossValidation) Calculate(in Input) ([]float64, error) {
	if in.Experiment == nil || len(in.Observations) == 0 {
		return nil, errors.New("metric: no observations")
	}

	x0 := in.Experiment.Experiment()
	y := in.Observations[0]

	n, d := x0.Dims()
	_, k := y.Dims()

	splits := m.NumberSplits
	if splits < 2 || splits > n {
		return nil, fmt.Errorf("metric: cannot split %d points into %d folds", n, splits)
	}

	var total float64

	for fold := 0; fold < splits; fold++ {
		lo, hi := fold*n/splits, (fold+1)*n/splits

		trainX := mat.NewDense(n-(hi-lo), d, nil)
		trainY := mat.NewDense(n-(hi-lo), k, nil)

		row := 0

		for i := 0; i < n; i++ {
			if i >= lo && i < hi {
				continue
			}

			trainX.SetRow(row, x0.RawRowView(i))
			trainY.SetRow(row, y.RawRowView(i))
			row++
		}

		theta, err := m.Model.MaximumLikelihoodEstimation(trainX, trainY, m.Minimizer)
		if err != nil {
			return nil, fmt.Errorf("metric: fold %d: %w", fold, err)
		}

		var sse float64

		for i := lo; i < hi; i++ {
			pred, err := m.Model.Evaluate(theta, x0.RawRowView(i))
			if err != nil {
				return nil, err
			}

			for c, v := range pred {
				r := y.At(i, c) - v
				sse += r * r
			}
		}

		total += sse / float64((hi-lo)*k)
	}

	return []float64{total / float64(splits)}, nil
}
