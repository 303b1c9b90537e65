package minimizer

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/thalesfsp/oed"
)

//////
// Const, vars, types.
//////

// BayesianConfig holds all configuration parameters of the Bayesian
// optimization search. It controls its thoroughness, exploration strategy
// and computational budget.
//
// Usage example:
//
//	config := BayesianConfig{
//	    // Run optimization for 50 iterations
//	    Iterations: 50,
//
//	    // Start with 10 random samples to build initial model
//	    InitialSamples: 10,
//
//	    // Consider 500 random candidates per iteration
//	    NumCandidates: 500,
//
//	    // Use Expected Improvement strategy
//	    AcquisitionFunc: ExpectedImprovement,
//	    AcqParams: AcquisitionParams{Xi: 0.01},
//	}
//
// Performance impact notes:
// - Objective evaluations = InitialSamples + Iterations
// - Each iteration refits the Gaussian Process, O(evaluations^3)
// - Higher NumCandidates = better per-iteration choice but slower iterations
//
// Note:
// - The search is meant for expensive objectives in a handful of
// dimensions. Differential evolution is the better default for cheap ones.
type BayesianConfig struct {
	// Iterations determines how many optimization steps to perform after the
	// initial sampling phase. Each iteration evaluates exactly one point.
	// Recommended range: 20-200
	Iterations int

	// InitialSamples determines how many random points to evaluate before
	// the surrogate is used. Recommended range: 5-20
	InitialSamples int

	// NumCandidates determines how many random candidates are scored by the
	// acquisition function in each iteration. Recommended range: 50-5000
	NumCandidates int

	// AcquisitionFunc determines the strategy for selecting the next point.
	AcquisitionFunc AcquisitionFunc

	// AcqParams holds the parameters for the acquisition function.
	AcqParams AcquisitionParams

	// KernelWidth is the RBF length scale on the unit cube.
	KernelWidth float64

	// Noise is the nugget of the Gaussian Process.
	Noise float64

	// Src is the randomness of the search. Nil seeds from the clock.
	Src rand.Source

	// ProgressChan is used to send progress updates during optimization.
	// If nil, no updates will be sent.
	ProgressChan chan<- oed.ProgressUpdate

	// Logger is optional.
	Logger *zap.Logger
}

// BayesianOptimizer minimizes an objective over a box with a Gaussian Process
// surrogate and an acquisition function. It satisfies oed.Minimizer.
//
// Thread safety:
// - Minimize can be called concurrently; each call owns its surrogate and
// random stream
type BayesianOptimizer struct {
	config BayesianConfig
	logger *zap.Logger

	// rngMu protects rng.
	rngMu sync.Mutex
	rng   *rand.Rand
}

//////
// Factory.
//////

// DefaultBayesianConfig returns a default configuration.
func DefaultBayesianConfig() BayesianConfig {
	return BayesianConfig{
		Iterations:      50,
		InitialSamples:  10,
		NumCandidates:   500,
		AcquisitionFunc: UCB,
		AcqParams: AcquisitionParams{
			BestSoFar: math.MaxFloat64,
			Beta:      2.0,
			Xi:        0.01,
		},
		KernelWidth:  0.2,
		Noise:        1e-6,
		ProgressChan: nil, // Default to no progress updates.
	}
}

// NewBayesianOptimizer returns a minimizer using config. Missing fields
// take their default values.
func NewBayesianOptimizer(config BayesianConfig) *BayesianOptimizer {
	def := DefaultBayesianConfig()

	if config.InitialSamples <= 0 {
		config.InitialSamples = def.InitialSamples
	}

	if config.NumCandidates <= 0 {
		config.NumCandidates = def.NumCandidates
	}

	if config.AcquisitionFunc == nil {
		config.AcquisitionFunc = def.AcquisitionFunc
		config.AcqParams.Beta = def.AcqParams.Beta
	}

	if config.KernelWidth <= 0 {
		config.KernelWidth = def.KernelWidth
	}

	if config.Noise <= 0 {
		config.Noise = def.Noise
	}

	src := config.Src
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>3)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BayesianOptimizer{
		config: config,
		logger: logger,
		rng:    rand.New(src),
	}
}

//////
// Methods.
//////

func (b *BayesianOptimizer) stream() *rand.Rand {
	b.rngMu.Lock()
	defer b.rngMu.Unlock()

	return rand.New(rand.NewPCG(b.rng.Uint64(), b.rng.Uint64()))
}

// Minimize uses Bayesian optimization to find the minimum of objective
// inside bounds.
//
// How it works:
// 1. Takes InitialSamples random samples to build the initial surrogate
// 2. For each iteration:
//   - Generates NumCandidates random candidate points
//   - Uses the Gaussian Process to predict the objective at each point
//   - Uses AcquisitionFunc to select the most promising point
//   - Evaluates the selected point
//   - Updates the surrogate with the new result
//
// 3. Returns the best point found
//
// Non-finite objective values are recorded as oed.Penalty for the best
// point, and as the worst finite value seen so far for the surrogate, so
// one failing candidate does not flatten the model.
func (b *BayesianOptimizer) Minimize(objective oed.ObjectiveFunc, bounds oed.Bounds) ([]float64, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	config := b.config
	rng := b.stream()
	dim := bounds.Dim()

	params := config.AcqParams
	if params.RandomState == nil {
		params.RandomState = rng
	}

	randomUnit := func() []float64 {
		u := make([]float64, dim)
		for i := range u {
			u[i] = rng.Float64()
		}

		return u
	}

	toBox := func(u []float64) []float64 {
		x := make([]float64, dim)
		for i := range u {
			x[i] = bounds.Lower[i] + u[i]*bounds.Width(i)
		}

		return x
	}

	gp := newGaussianProcess(config.KernelWidth, config.Noise)

	bestParams := toBox(randomUnit())
	bestValue := math.MaxFloat64
	worstFinite := math.Inf(-1)

	observe := func(u []float64) float64 {
		x := toBox(u)
		value := objective(x)

		surrogate := value
		if math.IsNaN(value) || math.IsInf(value, 0) {
			value = oed.Penalty

			surrogate = worstFinite
			if math.IsInf(surrogate, -1) {
				surrogate = 0
			}
		} else if value > worstFinite {
			worstFinite = value
		}

		gp.Update(u, surrogate)

		if value < bestValue {
			bestValue = value
			bestParams = x
		}

		return value
	}

	// Phase 1: Initial random sampling.
	for i := 0; i < config.InitialSamples; i++ {
		observe(randomUnit())

		oed.SendProgress(config.ProgressChan, oed.ProgressUpdate{
			Phase:            "InitialSampling",
			CurrentIteration: i + 1,
			TotalIterations:  config.InitialSamples,
			CurrentBest:      append([]float64(nil), bestParams...),
			CurrentBestValue: bestValue,
		})
	}

	// Phase 2: Bayesian optimization loop.
	for i := 0; i < config.Iterations; i++ {
		var next []float64

		bestAcquisition := math.MaxFloat64
		params.BestSoFar = bestValue

		for j := 0; j < config.NumCandidates; j++ {
			candidate := randomUnit()

			mean, variance := gp.Predict(candidate)

			acquisition := config.AcquisitionFunc(mean, variance, params)
			if next == nil || acquisition < bestAcquisition {
				bestAcquisition = acquisition
				next = candidate
			}
		}

		observe(next)

		oed.SendProgress(config.ProgressChan, oed.ProgressUpdate{
			Phase:            "Optimization",
			CurrentIteration: i + 1,
			TotalIterations:  config.Iterations,
			CurrentBest:      append([]float64(nil), bestParams...),
			CurrentBestValue: bestValue,
		})
	}

	b.logger.Debug("bayesian optimization finished",
		zap.Int("dimension", dim),
		zap.Int("evaluations", gp.Len()),
		zap.Float64("value", bestValue),
	)

	return bounds.Project(bestParams), nil
}
