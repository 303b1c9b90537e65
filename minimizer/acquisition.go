package minimizer

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

//////
// Const, vars, types.
//////

// AcquisitionFunc scores a candidate from the surrogate's predicted mean and
// variance. Lower values indicate more promising points, since the
// BayesianOptimizer minimizes.
//
// Built-in acquisition functions:
// - UCB: Upper Confidence Bound (lower confidence bound when minimizing)
// - ProbabilityOfImprovement: Probability of finding a better value
// - ExpectedImprovement: Expected magnitude of improvement
// - ThompsonSampling: Random sampling from the posterior
//
// Implementation notes for custom acquisition functions:
// - Should handle zero variance
// - Should return lower values for more promising points
type AcquisitionFunc func(mean, variance float64, params AcquisitionParams) float64

// AcquisitionParams holds the parameters of the acquisition functions.
type AcquisitionParams struct {
	// Beta controls the exploration-exploitation trade-off of UCB.
	// Higher values (e.g. 3.0) explore more. Typical range 0.1 to 5.0.
	Beta float64

	// Xi is the minimum improvement over BestSoFar that PI and EI look for.
	// Typical range 0.01 to 0.1, in units of the objective.
	Xi float64

	// BestSoFar is the lowest objective value observed. The optimizer keeps
	// it up to date.
	BestSoFar float64

	// RandomState is used by Thompson Sampling. The optimizer installs a
	// per-call stream when it is nil.
	RandomState *rand.Rand
}

//////
// Available acquisition functions.
//////

// UCB combines the predicted mean with the uncertainty: mean - Beta·sd.
//
// Example:
//
//	params := AcquisitionParams{Beta: 2.0}
//	value := UCB(0.5, 0.2, params)
func UCB(mean, variance float64, params AcquisitionParams) float64 {
	return mean - params.Beta*math.Sqrt(math.Max(variance, 0))
}

// ProbabilityOfImprovement returns the negated probability that a point
// improves on BestSoFar by at least Xi.
//
// When to use:
// - When you want to be conservative in exploring new points
// - When small, reliable improvements matter more than their size
func ProbabilityOfImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sd := math.Sqrt(math.Max(variance, 0))
	improvement := params.BestSoFar - params.Xi - mean

	if sd == 0 {
		if improvement > 0 {
			return -1
		}

		return 0
	}

	return -distuv.UnitNormal.CDF(improvement / sd)
}

// ExpectedImprovement returns the negated expected improvement over
// BestSoFar - Xi.
//
// When to use:
// - Most commonly used acquisition function
// - When the magnitude of improvement matters
func ExpectedImprovement(mean, variance float64, params AcquisitionParams) float64 {
	sd := math.Sqrt(math.Max(variance, 0))
	improvement := params.BestSoFar - params.Xi - mean

	if sd == 0 {
		return -math.Max(improvement, 0)
	}

	z := improvement / sd

	return -(improvement*distuv.UnitNormal.CDF(z) + sd*distuv.UnitNormal.Prob(z))
}

// ThompsonSampling draws one sample from the posterior at the point.
//
// Warning:
// - Don't share RandomState between concurrent optimization runs.
func ThompsonSampling(mean, variance float64, params AcquisitionParams) float64 {
	return mean + math.Sqrt(math.Max(variance, 0))*params.RandomState.NormFloat64()
}
