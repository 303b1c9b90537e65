package oed

import (
	"gonum.org/v1/gonum/mat"
)

// ParametricFunction is a differentiable function f(theta, x) with analytic
// first partial derivatives with respect to each component of theta.
//
// Implementations must be deterministic. The output is a vector of length
// OutputDim(); scalar functions return a single element.
//
// Usage example:
//
//	f := function.NewLinearFunction(2)
//	y := f.Evaluate([]float64{1, 1, 1}, []float64{2, 3}) // [6]
//	d := f.PartialDerivative([]float64{1, 1, 1}, []float64{2, 3}, 1) // [2]
type ParametricFunction interface {
	// Evaluate returns f(theta, x).
	Evaluate(theta, x []float64) []float64

	// PartialDerivative returns ∂f(theta, x)/∂theta[index], with the same
	// shape as Evaluate.
	PartialDerivative(theta, x []float64, index int) []float64

	// OutputDim is the length of the vector returned by Evaluate.
	OutputDim() int
}

// SecondOrderFunction is the optional curvature capability of a
// ParametricFunction. Use SecondPartialDerivative to query it.
type SecondOrderFunction interface {
	SecondPartialDerivative(theta, x []float64, i, j int) []float64
}

// ObjectiveFunc is a function to be minimized. Maximization problems negate
// their objective before handing it to a Minimizer.
type ObjectiveFunc func(x []float64) float64

// Minimizer performs a global, derivative-free search over a box.
//
// Implementations must only evaluate the objective inside bounds and must
// return a vector of len(bounds.Lower). They are heuristics: repeated calls
// may return different results.
type Minimizer interface {
	Minimize(objective ObjectiveFunc, bounds Bounds) ([]float64, error)
}

// MinimizerFunc adapts an ordinary function to the Minimizer interface.
type MinimizerFunc func(objective ObjectiveFunc, bounds Bounds) ([]float64, error)

// Minimize calls f(objective, bounds).
func (f MinimizerFunc) Minimize(objective ObjectiveFunc, bounds Bounds) ([]float64, error) {
	return f(objective, bounds)
}

// StatisticalModel wraps a ParametricFunction with an observation-noise
// model.
//
// It holds no estimation state: designs (x0, one point per row) and
// observations (y, one row per design point) are always explicit
// arguments.
type StatisticalModel interface {
	// Evaluate delegates to the parametric function after checking bounds.
	Evaluate(theta, x []float64) ([]float64, error)

	// Random draws one noisy observation at x.
	Random(theta, x []float64) ([]float64, error)

	// FisherInformationMatrix of the design x0 at theta.
	FisherInformationMatrix(theta []float64, x0 mat.Matrix) (*mat.SymDense, error)

	// DeterminantFisherInformationMatrix is the D-optimality criterion.
	DeterminantFisherInformationMatrix(theta []float64, x0 mat.Matrix) (float64, error)

	// CramerRaoLowerBound is the inverse of the Fisher information matrix.
	CramerRaoLowerBound(theta []float64, x0 mat.Matrix) (*mat.SymDense, error)

	// MaximumLikelihoodEstimation of theta given observations y at x0.
	MaximumLikelihoodEstimation(x0, y mat.Matrix, minimizer Minimizer) ([]float64, error)

	// Function returns the wrapped parametric function.
	Function() ParametricFunction

	// BoundsX returns the bounds of a single design point.
	BoundsX() Bounds

	// BoundsTheta returns the bounds of the parameter vector.
	BoundsTheta() Bounds
}

// Experiment is an immutable design: an ordered set of design points.
type Experiment interface {
	// Name identifies the design in reports and benchmarks.
	Name() string

	// Experiment returns a copy of the n x d design matrix.
	Experiment() *mat.Dense
}

// ProbabilityMeasure is a sampler over the parameter space.
type ProbabilityMeasure interface {
	// Rand fills dst with one sample and returns it. A nil dst allocates.
	Rand(dst []float64) []float64

	// Dim is the dimension of the parameter space.
	Dim() int
}

// ProgressUpdate represents the current state of a minimization.
type ProgressUpdate struct {
	// Phase names the stage of the search, e.g. "InitialSampling",
	// "Optimization" or "Evolution".
	Phase string

	// CurrentIteration is the current iteration number.
	CurrentIteration int

	// TotalIterations is the iteration budget of the phase.
	TotalIterations int

	// CurrentBest holds the best vector found so far.
	CurrentBest []float64

	// CurrentBestValue holds the objective value at CurrentBest.
	CurrentBestValue float64
}

// SendProgress delivers update on ch without blocking. A nil channel or a
// full buffer drops the update.
func SendProgress(ch chan<- ProgressUpdate, update ProgressUpdate) {
	if ch == nil {
		return
	}

	select {
	case ch <- update:
	default:
		// Skip update if channel is full.
	}
}
