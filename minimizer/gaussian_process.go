package minimizer

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

//////
// Const, vars, types.
//////

// gaussianProcess is a thread-safe Gaussian Process regression model with an
// RBF kernel. It is the surrogate of the BayesianOptimizer, which feeds it
// points of the unit cube.
//
// Fields:
// - mu: RWMutex for thread-safe access to all fields
// - X: Observed input points
// - Y: Observed objective values at each input point
// - sigma: Kernel width (length scale)
// - noise: Nugget added to the kernel diagonal
//
// Thread safety:
// - Uses RLock for Predict and Len
// - Uses Lock for Update, which refits the model
type gaussianProcess struct {
	// mu protects access to all fields
	mu sync.RWMutex

	// X stores the input points.
	X [][]float64

	// Y stores the observed values at each point in X.
	Y []float64

	// sigma is the kernel width parameter.
	// Larger values = smoother interpolation.
	sigma float64

	// noise keeps the kernel matrix positive definite.
	noise float64

	// Fitted state, rebuilt by fit.
	chol  *mat.Cholesky
	alpha *mat.VecDense
	yMean float64
	yStd  float64
}

//////
// Methods.
//////

// kernel implements the Radial Basis Function kernel
//
//	k(x1, x2) = exp(-sum((x1 - x2)^2) / (2 * sigma^2))
//
// Panics if input vectors have different lengths. Callers hold the lock.
func (gp *gaussianProcess) kernel(x1, x2 []float64) float64 {
	if len(x1) != len(x2) {
		panic("input vectors must have the same length")
	}

	var sum float64

	for i := range x1 {
		diff := x1[i] - x2[i]
		sum += diff * diff
	}

	return math.Exp(-sum / (2 * gp.sigma * gp.sigma))
}

// fit rebuilds the Cholesky factorization of the kernel matrix on
// standardized observations. Callers hold the write lock.
func (gp *gaussianProcess) fit() {
	n := len(gp.X)
	gp.chol, gp.alpha = nil, nil

	if n == 0 {
		return
	}

	gp.yMean, gp.yStd = stat.MeanStdDev(gp.Y, nil)
	if !(gp.yStd > 0) {
		gp.yStd = 1
	}

	k := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := gp.kernel(gp.X[i], gp.X[j])
			if i == j {
				v += gp.noise
			}

			k.SetSym(i, j, v)
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(k); !ok {
		return
	}

	y := mat.NewVecDense(n, nil)
	for i, v := range gp.Y {
		y.SetVec(i, (v-gp.yMean)/gp.yStd)
	}

	var alpha mat.VecDense
	if err := chol.SolveVecTo(&alpha, y); err != nil {
		return
	}

	gp.chol, gp.alpha = &chol, &alpha
}

// Predict estimates the objective and its uncertainty at x.
//
// Returns:
// - mean: Posterior mean at x
// - variance: Posterior variance at x (higher = less certain)
//
// Returns (0, 1) if no observations exist, and the observation mean with
// unit-scale variance if the kernel matrix could not be factorized.
func (gp *gaussianProcess) Predict(x []float64) (mean, variance float64) {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	if len(gp.X) == 0 {
		return 0, 1
	}

	if gp.chol == nil {
		return gp.yMean, gp.yStd * gp.yStd
	}

	n := len(gp.X)
	ks := mat.NewVecDense(n, nil)

	for i := range gp.X {
		ks.SetVec(i, gp.kernel(x, gp.X[i]))
	}

	mean = gp.yMean + gp.yStd*mat.Dot(ks, gp.alpha)

	var v mat.VecDense
	if err := gp.chol.SolveVecTo(&v, ks); err != nil {
		return mean, gp.yStd * gp.yStd
	}

	variance = math.Max(1+gp.noise-mat.Dot(ks, &v), 0) * gp.yStd * gp.yStd

	return mean, variance
}

// Update adds a new observation and refits the model.
//
// Important notes:
// - Creates a deep copy of input slice x to prevent external modifications
// - O(n^3) refit, fine for the few hundred evaluations a Bayesian search
// performs
func (gp *gaussianProcess) Update(x []float64, y float64) {
	gp.mu.Lock()
	defer gp.mu.Unlock()

	newX := make([]float64, len(x))
	copy(newX, x)

	gp.X = append(gp.X, newX)
	gp.Y = append(gp.Y, y)

	gp.fit()
}

// Len returns the number of observations.
func (gp *gaussianProcess) Len() int {
	gp.mu.RLock()
	defer gp.mu.RUnlock()

	return len(gp.X)
}

//////
// Factory.
//////

// newGaussianProcess creates a Gaussian Process with kernel width sigma
// (suitable for inputs in the unit cube) and a small nugget.
func newGaussianProcess(sigma, noise float64) *gaussianProcess {
	return &gaussianProcess{
		sigma: sigma,
		noise: noise,
	}
}
