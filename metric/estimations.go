package metric

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StdParameterEstimations is the sample standard deviation (n-1
// denominator) of the estimations, per parameter. An estimator whose
// spread approaches sqrt(diag CRLB) is efficient.
type StdParameterEstimations struct{}

// Name implements Metric.
func (StdParameterEstimations) Name() string {
	return "Estimated standard deviation of parameter estimations"
}

// Calculate implements Metric.
func (StdParameterEstimations) Calculate(in Input) ([]float64, error) {
	est, err := estimations(in)
	if err != nil {
		return nil, err
	}

	return perColumn(est, func(column []float64) float64 {
		return stat.StdDev(column, nil)
	}), nil
}

// EstimationMeanParameterEstimations is the mean of the estimations, per
// parameter. Compared against the true theta it shows the estimator bias.
type EstimationMeanParameterEstimations struct{}

// Name implements Metric.
func (EstimationMeanParameterEstimations) Name() string {
	return "Estimated mean of parameter estimations"
}

// Calculate implements Metric.
func (EstimationMeanParameterEstimations) Calculate(in Input) ([]float64, error) {
	est, err := estimations(in)
	if err != nil {
		return nil, err
	}

	return perColumn(est, func(column []float64) float64 {
		return stat.Mean(column, nil)
	}), nil
}

func perColumn(m *mat.Dense, fn func([]float64) float64) []float64 {
	_, c := m.Dims()
	out := make([]float64, c)

	for j := 0; j < c; j++ {
		out[j] = fn(mat.Col(nil, j, m))
	}

	return out
}
