// Package benchmark compares designs by repeated simulated experiments.
//
// For every design and repetition the black box is queried at each design
// point, and the parameters are re-estimated by maximum likelihood. The
// spread of the estimates across repetitions shows how informative a design
// is in practice, and can be checked against the Cramér-Rao lower bound
// with Baseline.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/thalesfsp/oed"
	"github.com/thalesfsp/oed/metric"
)

//////
// Const, vars, types.
//////

// BlackBox performs one (possibly simulated) measurement at x. A simulated
// black box draws its noise from src, which belongs to a single repetition.
type BlackBox func(x []float64, src rand.Source) ([]float64, error)

// MinimizerFactory builds the minimizer of one repetition from its own
// random source.
type MinimizerFactory func(src rand.Source) oed.Minimizer

// Config configures a Benchmarking run.
//
// Fields:
// - Model: Statistical model used for the estimations
// - BlackBox: The measurement process
// - Experiments: Designs to compare; names must be unique
// - Minimizer: Builds the minimizer used for maximum-likelihood estimation
// - Repetitions: Number of simulated experiments per design (> 0)
// - Workers: Maximum number of concurrent repetitions; 0 means GOMAXPROCS
// - Src: Root of the per-repetition random streams; nil seeds from the clock
// - Logger: Optional logger; nil disables logging
//
// Important notes:
// - Every repetition gets its own noise and minimizer streams, split off
// Src in design and repetition order before any work starts. A seeded Src
// gives the same estimations for any number of Workers.
type Config struct {
	Model       oed.StatisticalModel
	BlackBox    BlackBox
	Experiments []oed.Experiment
	Minimizer   MinimizerFactory
	Repetitions int
	Workers     int
	Src         rand.Source
	Logger      *zap.Logger
}

// Benchmarking holds the observations and estimations of every design and
// repetition. It is safe for concurrent reads after Evaluate returns.
type Benchmarking struct {
	config Config
	logger *zap.Logger

	// seed of the stream splitter, fixed at construction so every Evaluate
	// replays the same streams.
	seed [2]uint64

	mu           sync.RWMutex
	observations map[string][]*mat.Dense
	estimations  map[string]*mat.Dense
}

//////
// Factory.
//////

// New validates config and returns a Benchmarking ready to Evaluate.
func New(config Config) (*Benchmarking, error) {
	if config.Model == nil {
		return nil, errors.New("benchmark: nil statistical model")
	}

	if config.BlackBox == nil {
		return nil, errors.New("benchmark: nil black box")
	}

	if config.Minimizer == nil {
		return nil, errors.New("benchmark: nil minimizer")
	}

	if config.Repetitions <= 0 {
		return nil, fmt.Errorf("benchmark: repetitions must be positive, got %d", config.Repetitions)
	}

	if len(config.Experiments) == 0 {
		return nil, errors.New("benchmark: no experiments")
	}

	seen := make(map[string]bool, len(config.Experiments))

	for _, e := range config.Experiments {
		if e == nil {
			return nil, errors.New("benchmark: nil experiment")
		}

		if seen[e.Name()] {
			return nil, fmt.Errorf("benchmark: duplicate design name %q", e.Name())
		}

		seen[e.Name()] = true
	}

	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	src := config.Src
	if src == nil {
		now := uint64(time.Now().UnixNano())
		src = rand.NewPCG(now, now>>7)
	}

	root := rand.New(src)

	return &Benchmarking{
		config:       config,
		logger:       logger,
		seed:         [2]uint64{root.Uint64(), root.Uint64()},
		observations: map[string][]*mat.Dense{},
		estimations:  map[string]*mat.Dense{},
	}, nil
}

//////
// Methods.
//////

// Evaluate runs every repetition of every design, at most Workers at a
// time. The first failing repetition cancels the rest and its error is
// returned. Results of a previous Evaluate are replaced.
func (b *Benchmarking) Evaluate(ctx context.Context) error {
	p := b.config.Model.BoundsTheta().Dim()
	reps := b.config.Repetitions

	observations := make(map[string][]*mat.Dense, len(b.config.Experiments))
	estimations := make(map[string]*mat.Dense, len(b.config.Experiments))

	for _, e := range b.config.Experiments {
		observations[e.Name()] = make([]*mat.Dense, reps)
		estimations[e.Name()] = mat.NewDense(reps, p, nil)
	}

	splitter := rand.New(rand.NewPCG(b.seed[0], b.seed[1]))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(b.config.Workers)

	for _, e := range b.config.Experiments {
		name := e.Name()
		x0 := e.Experiment()

		b.logger.Info("benchmarking design",
			zap.String("design", name),
			zap.Int("points", oed.Rows(x0)),
			zap.Int("repetitions", reps),
		)

		for r := 0; r < reps; r++ {
			noise := rand.NewPCG(splitter.Uint64(), splitter.Uint64())
			search := rand.NewPCG(splitter.Uint64(), splitter.Uint64())

			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}

				y, theta, err := b.repetition(x0, noise, search)
				if err != nil {
					return fmt.Errorf("benchmark: %s repetition %d: %w", name, r, err)
				}

				// Distinct slots per repetition, no lock needed.
				observations[name][r] = y
				estimations[name].SetRow(r, theta)

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	b.observations = observations
	b.estimations = estimations
	b.mu.Unlock()

	b.logger.Info("benchmarking finished", zap.Int("designs", len(b.config.Experiments)))

	return nil
}

func (b *Benchmarking) repetition(x0 *mat.Dense, noise, search rand.Source) (*mat.Dense, []float64, error) {
	n, _ := x0.Dims()
	k := b.config.Model.Function().OutputDim()
	y := mat.NewDense(n, k, nil)

	for i := 0; i < n; i++ {
		obs, err := b.config.BlackBox(x0.RawRowView(i), noise)
		if err != nil {
			return nil, nil, err
		}

		if len(obs) != k {
			return nil, nil, fmt.Errorf("black box returned %d values, expected %d", len(obs), k)
		}

		y.SetRow(i, obs)
	}

	theta, err := b.config.Model.MaximumLikelihoodEstimation(x0, y, b.config.Minimizer(search))
	if err != nil {
		return nil, nil, err
	}

	return y, theta, nil
}

// Experiments returns the benchmarked designs.
func (b *Benchmarking) Experiments() []oed.Experiment {
	return append([]oed.Experiment(nil), b.config.Experiments...)
}

// Estimations returns a copy of the estimations of design name, one row per
// repetition, or nil if it was not evaluated.
func (b *Benchmarking) Estimations(name string) *mat.Dense {
	b.mu.RLock()
	defer b.mu.RUnlock()

	est, ok := b.estimations[name]
	if !ok {
		return nil
	}

	return mat.DenseCopyOf(est)
}

// Observations returns the observations of design name, one matrix per
// repetition.
func (b *Benchmarking) Observations(name string) []*mat.Dense {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*mat.Dense, 0, len(b.observations[name]))
	for _, y := range b.observations[name] {
		out = append(out, mat.DenseCopyOf(y))
	}

	return out
}

// Inputs returns the metric input of every evaluated design.
func (b *Benchmarking) Inputs() map[string]metric.Input {
	inputs := make(map[string]metric.Input, len(b.config.Experiments))

	for _, e := range b.config.Experiments {
		est := b.Estimations(e.Name())
		if est == nil {
			continue
		}

		inputs[e.Name()] = metric.Input{
			Experiment:   e,
			Observations: b.Observations(e.Name()),
			Estimations:  est,
		}
	}

	return inputs
}

//////
// Exported functionalities.
//////

// Baseline returns, per design, the square root of the diagonal of the
// Cramér-Rao lower bound at theta: the smallest standard deviation an
// unbiased estimator can reach with that design. Designs with a singular
// Fisher information get +Inf entries.
func Baseline(model oed.StatisticalModel, theta []float64, experiments []oed.Experiment) (map[string][]float64, error) {
	out := make(map[string][]float64, len(experiments))

	for _, e := range experiments {
		values := make([]float64, len(theta))

		crlb, err := model.CramerRaoLowerBound(theta, e.Experiment())

		switch {
		case errors.Is(err, oed.ErrSingularMatrix):
			for i := range values {
				values[i] = math.Inf(1)
			}
		case err != nil:
			return nil, fmt.Errorf("benchmark: baseline of %s: %w", e.Name(), err)
		default:
			for i := range values {
				values[i] = math.Sqrt(crlb.At(i, i))
			}
		}

		out[e.Name()] = values
	}

	return out, nil
}
