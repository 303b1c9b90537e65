package minimizer

import (
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/optimize"

	"github.com/thalesfsp/oed"
)

// CMAESConfig configures the CMA-ES minimizer.
type CMAESConfig struct {
	// FuncEvaluations caps the objective evaluations of one restart.
	FuncEvaluations int

	// Population is the number of samples per generation. Zero lets gonum
	// pick 4 + 3·ln(dimension).
	Population int

	// InitStepSize is the initial step size on the unit cube.
	InitStepSize float64

	// Restarts is the number of additional runs from random starting
	// points. The best result of all runs is returned.
	Restarts int

	// Src is the randomness of the search. Nil seeds from the clock.
	Src rand.Source

	// Logger is optional.
	Logger *zap.Logger
}

// DefaultCMAESConfig returns a default configuration.
func DefaultCMAESConfig() CMAESConfig {
	return CMAESConfig{
		FuncEvaluations: 5000,
		InitStepSize:    0.3,
		Restarts:        2,
	}
}

// CMAES minimizes with gonum's covariance matrix adaptation evolution
// strategy. CMA-ES is unconstrained, so the search runs on the unit cube and
// candidates outside it are evaluated at their projection plus a quadratic
// penalty on the distance to the cube.
type CMAES struct {
	config CMAESConfig
	logger *zap.Logger

	// rngMu protects rng.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewCMAES returns a CMA-ES minimizer.
func NewCMAES(config CMAESConfig) *CMAES {
	def := DefaultCMAESConfig()

	if config.FuncEvaluations <= 0 {
		config.FuncEvaluations = def.FuncEvaluations
	}

	if config.InitStepSize <= 0 {
		config.InitStepSize = def.InitStepSize
	}

	if config.Restarts < 0 {
		config.Restarts = 0
	}

	src := config.Src
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>5)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CMAES{config: config, logger: logger, rng: rand.New(src)}
}

func (c *CMAES) stream() *rand.Rand {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()

	return rand.New(rand.NewPCG(c.rng.Uint64(), c.rng.Uint64()))
}

// Minimize searches bounds for the minimum of objective. The first run
// starts at the center of the box, restarts at random points.
func (c *CMAES) Minimize(objective oed.ObjectiveFunc, bounds oed.Bounds) ([]float64, error) {
	if err := bounds.Validate(); err != nil {
		return nil, err
	}

	rng := c.stream()
	dim := bounds.Dim()

	toBox := func(u []float64) []float64 {
		x := make([]float64, dim)
		for i := range u {
			x[i] = bounds.Lower[i] + oed.Clip(u[i], 0, 1)*bounds.Width(i)
		}

		return x
	}

	problem := optimize.Problem{
		Func: func(u []float64) float64 {
			var dist float64

			for _, v := range u {
				d := v - oed.Clip(v, 0, 1)
				dist += d * d
			}

			value := oed.Finite(objective(toBox(u)))
			if dist == 0 {
				return value
			}

			return value + (1+math.Abs(value))*1e3*dist
		},
	}

	bestU := make([]float64, dim)
	for i := range bestU {
		bestU[i] = 0.5
	}

	bestValue := math.Inf(1)
	start := append([]float64(nil), bestU...)

	for run := 0; run <= c.config.Restarts; run++ {
		if run > 0 {
			for i := range start {
				start[i] = rng.Float64()
			}
		}

		method := &optimize.CmaEsChol{
			InitStepSize: c.config.InitStepSize,
			Population:   c.config.Population,
			Src:          rand.NewPCG(rng.Uint64(), rng.Uint64()),
		}

		settings := &optimize.Settings{FuncEvaluations: c.config.FuncEvaluations}

		result, err := optimize.Minimize(problem, start, settings, method)
		if result == nil {
			c.logger.Debug("cma-es run failed", zap.Int("run", run), zap.Error(err))

			continue
		}

		u := append([]float64(nil), result.X...)
		for i := range u {
			u[i] = oed.Clip(u[i], 0, 1)
		}

		if value := oed.Finite(objective(toBox(u))); value < bestValue {
			bestValue = value
			bestU = u
		}
	}

	c.logger.Debug("cma-es finished",
		zap.Int("dimension", dim),
		zap.Int("runs", c.config.Restarts+1),
		zap.Float64("value", bestValue),
	)

	return bounds.Project(toBox(bestU)), nil
}
