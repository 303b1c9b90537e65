package minimizer

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/samplemv"

	"github.com/thalesfsp/oed"
)

//////
// Const, vars, types.
//////

// DifferentialEvolutionConfig holds the parameters of the differential
// evolution search (DE/best/1/bin with dithering).
//
// Usage example:
//
//	config := DefaultDifferentialEvolutionConfig()
//	config.MaxIterations = 200         // cap the runtime
//	config.Src = rand.NewPCG(1, 2)     // reproducible runs
//
//	de := NewDifferentialEvolution(config)
//
// Performance impact notes:
// - Evaluations per generation = PopulationSize * dimension
// - Higher MaxIterations = better results but longer worst-case runtime
// - Polish adds at most PolishEvaluations evaluations
type DifferentialEvolutionConfig struct {
	// PopulationSize is a multiplier: the population holds
	// PopulationSize*dimension members (at least 5).
	PopulationSize int

	// MaxIterations bounds the number of generations.
	MaxIterations int

	// Tolerance and AbsTolerance stop the search once the standard deviation
	// of the population energies drops below
	// AbsTolerance + Tolerance*|mean energy|.
	Tolerance    float64
	AbsTolerance float64

	// MutationMin and MutationMax bound the differential weight F, drawn
	// anew every generation (dithering). Equal values disable dithering.
	MutationMin float64
	MutationMax float64

	// Recombination is the crossover probability CR in [0, 1].
	Recombination float64

	// Polish refines the best member with a bounded Nelder-Mead search.
	Polish bool

	// PolishEvaluations caps the objective evaluations of the polish step.
	PolishEvaluations int

	// Src is the randomness of the search. Nil seeds from the clock.
	Src rand.Source

	// ProgressChan receives one update per generation. If nil, no updates
	// are sent.
	ProgressChan chan<- oed.ProgressUpdate

	// Logger is optional.
	Logger *zap.Logger
}

// DifferentialEvolution is a population-based stochastic global minimizer
// over a box.
//
// Thread safety:
// - Minimize may be called concurrently; every call draws its own random
// stream from the configured source.
type DifferentialEvolution struct {
	config DifferentialEvolutionConfig
	logger *zap.Logger

	// rngMu protects rng.
	rngMu sync.Mutex
	rng   *rand.Rand
}

//////
// Factory.
//////

// DefaultDifferentialEvolutionConfig returns a default configuration.
func DefaultDifferentialEvolutionConfig() DifferentialEvolutionConfig {
	return DifferentialEvolutionConfig{
		PopulationSize:    15,
		MaxIterations:     1000,
		Tolerance:         0.01,
		AbsTolerance:      0,
		MutationMin:       0.5,
		MutationMax:       1,
		Recombination:     0.7,
		Polish:            true,
		PolishEvaluations: 2000,
	}
}

// NewDifferentialEvolution returns a minimizer using config. Zero values of
// PopulationSize, MaxIterations and MutationMax are replaced by the
// defaults.
func NewDifferentialEvolution(config DifferentialEvolutionConfig) *DifferentialEvolution {
	def := DefaultDifferentialEvolutionConfig()

	if config.PopulationSize <= 0 {
		config.PopulationSize = def.PopulationSize
	}

	if config.MaxIterations <= 0 {
		config.MaxIterations = def.MaxIterations
	}

	if config.MutationMax <= 0 {
		config.MutationMin, config.MutationMax = def.MutationMin, def.MutationMax
	}

	if config.PolishEvaluations <= 0 {
		config.PolishEvaluations = def.PolishEvaluations
	}

	src := config.Src
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DifferentialEvolution{
		config: config,
		logger: logger,
		rng:    rand.New(src),
	}
}

//////
// Methods.
//////

// stream returns an independent random stream for one Minimize call.
func (de *DifferentialEvolution) stream() *rand.Rand {
	de.rngMu.Lock()
	defer de.rngMu.Unlock()

	return rand.New(rand.NewPCG(de.rng.Uint64(), de.rng.Uint64()))
}

// Minimize searches bounds for the minimum of objective and returns the best
// vector found. The objective is only evaluated inside bounds.
//
// How it works:
//  1. The population is initialized with a Latin hypercube over the box
//  2. Every generation, each member i competes against a trial vector built
//     from best + F·(r1 - r2) with binomial crossover
//  3. The search stops once the population energies have converged or
//     MaxIterations generations have run
//  4. Optionally, the best member is polished with Nelder-Mead
//
// The search works on the unit cube and maps every candidate into bounds,
// so a pinned coordinate (lower == upper) is simply constant.
func (de *DifferentialEvolution) Minimize(objective oed.ObjectiveFunc, bounds oed.Bounds) ([]float64, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	cfg := de.config
	rng := de.stream()
	dim := bounds.Dim()

	toBox := func(u []float64) []float64 {
		x := make([]float64, dim)
		for j := range u {
			x[j] = bounds.Lower[j] + oed.Clip(u[j], 0, 1)*bounds.Width(j)
		}

		return x
	}

	energy := func(u []float64) float64 {
		return oed.Finite(objective(toBox(u)))
	}

	size := cfg.PopulationSize * dim
	if size < 5 {
		size = 5
	}

	pop := latinHypercube(size, dim, rng)
	energies := make([]float64, size)
	best := 0

	for i := 0; i < size; i++ {
		energies[i] = energy(pop.RawRowView(i))
		if energies[i] < energies[best] {
			best = i
		}
	}

	trial := make([]float64, dim)
	converged := false
	generation := 0

	for generation = 1; generation <= cfg.MaxIterations; generation++ {
		f := cfg.MutationMin + rng.Float64()*(cfg.MutationMax-cfg.MutationMin)

		for i := 0; i < size; i++ {
			ia, ib := pickTwo(size, i, rng)
			target := pop.RawRowView(i)
			bestRow := pop.RawRowView(best)
			a, b := pop.RawRowView(ia), pop.RawRowView(ib)

			jRand := rng.IntN(dim)
			for j := 0; j < dim; j++ {
				if j == jRand || rng.Float64() < cfg.Recombination {
					trial[j] = bestRow[j] + f*(a[j]-b[j])

					// Out-of-box components are re-drawn uniformly.
					if trial[j] < 0 || trial[j] > 1 {
						trial[j] = rng.Float64()
					}
				} else {
					trial[j] = target[j]
				}
			}

			e := energy(trial)
			if e <= energies[i] {
				copy(target, trial)
				energies[i] = e

				if e < energies[best] {
					best = i
				}
			}
		}

		oed.SendProgress(cfg.ProgressChan, oed.ProgressUpdate{
			Phase:            "Evolution",
			CurrentIteration: generation,
			TotalIterations:  cfg.MaxIterations,
			CurrentBest:      toBox(pop.RawRowView(best)),
			CurrentBestValue: energies[best],
		})

		mean, std := stat.MeanStdDev(energies, nil)
		if std <= cfg.AbsTolerance+cfg.Tolerance*math.Abs(mean) {
			converged = true
			break
		}
	}

	bestU := append([]float64(nil), pop.RawRowView(best)...)
	bestE := energies[best]

	if cfg.Polish {
		if u, e, ok := polish(energy, bestU, cfg.PolishEvaluations); ok && e < bestE {
			bestU, bestE = u, e
		}
	}

	de.logger.Debug("differential evolution finished",
		zap.Int("dimension", dim),
		zap.Int("population", size),
		zap.Int("generations", min(generation, cfg.MaxIterations)),
		zap.Bool("converged", converged),
		zap.Float64("value", bestE),
	)

	return bounds.Project(toBox(bestU)), nil
}

//////
// Helper functions.
//////

// latinHypercube returns n stratified samples of the unit cube.
func latinHypercube(n, dim int, rng *rand.Rand) *mat.Dense {
	unit := make([]r1.Interval, dim)
	for j := range unit {
		unit[j] = r1.Interval{Min: 0, Max: 1}
	}

	src := rand.NewPCG(rng.Uint64(), rng.Uint64())
	samples := mat.NewDense(n, dim, nil)

	lhs := samplemv.LatinHypercube{
		Q:   distmv.NewUniform(unit, src),
		Src: src,
	}
	lhs.Sample(samples)

	return samples
}

// pickTwo returns two distinct indices in [0, n) that differ from skip.
func pickTwo(n, skip int, rng *rand.Rand) (int, int) {
	a := rng.IntN(n - 1)
	if a >= skip {
		a++
	}

	for {
		b := rng.IntN(n)
		if b != skip && b != a {
			return a, b
		}
	}
}

// polish runs a Nelder-Mead search on the unit cube starting at u0. Points
// outside the cube are rejected with oed.Penalty.
func polish(energy func([]float64) float64, u0 []float64, evaluations int) ([]float64, float64, bool) {
	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			for _, v := range u {
				if v < 0 || v > 1 {
					return oed.Penalty
				}
			}

			return energy(u)
		},
	}

	settings := &optimize.Settings{FuncEvaluations: evaluations}

	result, err := optimize.Minimize(problem, u0, settings, &optimize.NelderMead{SimplexSize: 0.05})
	if result == nil || (err != nil && len(result.X) == 0) {
		return nil, 0, false
	}

	u := append([]float64(nil), result.X...)
	for j := range u {
		u[j] = oed.Clip(u[j], 0, 1)
	}

	return u, energy(u), true
}
