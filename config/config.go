// Package config loads the YAML configuration of the design pipeline run by
// the oed command.
package config

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/thalesfsp/oed"
	"github.com/thalesfsp/oed/minimizer"
)

// Config is the pipeline configuration.
type Config struct {
	// Theta is the true parameter vector of the simulated black box.
	Theta []float64 `yaml:"theta"`

	// Sigma is the noise standard deviation of the black box and the model.
	Sigma float64 `yaml:"sigma"`

	BoundsX     BoundsConfig `yaml:"bounds_x"`
	BoundsTheta BoundsConfig `yaml:"bounds_theta"`

	// NumberDesigns is the number of points of the pilot experiment and of
	// every optimized design.
	NumberDesigns int `yaml:"number_designs"`

	// Repetitions is the number of simulated experiments per design in the
	// benchmark.
	Repetitions int `yaml:"repetitions"`

	// Workers bounds the benchmark concurrency. 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	// SampleSize is the number of parameter samples per quantile.
	SampleSize int `yaml:"sample_size"`

	// Alpha is the upper quantile level of the point prediction design.
	Alpha float64 `yaml:"alpha"`

	// PiIndex selects the parameter whose variance the pi design minimizes.
	PiIndex int `yaml:"pi_index"`

	// KFoldSplits is the number of folds of the cross validation metric.
	KFoldSplits int `yaml:"k_fold_splits"`

	// Seed makes the run reproducible for any number of workers. 0 seeds
	// from the clock.
	Seed uint64 `yaml:"seed"`

	Minimizer MinimizerConfig `yaml:"minimizer"`
	Output    OutputConfig    `yaml:"output"`
	Log       LogConfig       `yaml:"log"`
}

// BoundsConfig is a box.
type BoundsConfig struct {
	Lower []float64 `yaml:"lower"`
	Upper []float64 `yaml:"upper"`
}

// MinimizerConfig selects the minimizer used everywhere in the pipeline.
type MinimizerConfig struct {
	// Kind is one of differential_evolution, bayesian, cmaes.
	Kind string `yaml:"kind"`

	PopulationSize int     `yaml:"population_size,omitempty"`
	MaxIterations  int     `yaml:"max_iterations,omitempty"`
	Tolerance      float64 `yaml:"tolerance,omitempty"`
	Polish         *bool   `yaml:"polish,omitempty"`
}

// OutputConfig names the artifacts of a run. Empty paths are skipped.
type OutputConfig struct {
	CSV       string `yaml:"csv"`
	Histogram string `yaml:"histogram"`
	Plots     string `yaml:"plots"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Minimizer kinds.
const (
	DifferentialEvolution = "differential_evolution"
	Bayesian              = "bayesian"
	CMAES                 = "cmaes"
)

// Default returns the battery calendar-aging pipeline.
func Default() Config {
	return Config{
		Theta: []float64{1.8, 402, 0.13},
		Sigma: 0.002,
		BoundsX: BoundsConfig{
			Lower: []float64{0.05, 279.15},
			Upper: []float64{1, 333.15},
		},
		BoundsTheta: BoundsConfig{
			Lower: []float64{0.01, 0, 0},
			Upper: []float64{10, 10000, 1},
		},
		NumberDesigns: 5,
		Repetitions:   100,
		SampleSize:    1000,
		Alpha:         0.95,
		PiIndex:       1,
		KFoldSplits:   2,
		Minimizer:     MinimizerConfig{Kind: DifferentialEvolution},
		Output: OutputConfig{
			CSV: "benchmark.csv",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path over Default and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Marshal returns cfg as YAML.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Bounds converts a BoundsConfig.
func (b BoundsConfig) Bounds() oed.Bounds {
	return oed.Bounds{Lower: b.Lower, Upper: b.Upper}
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	if err := c.BoundsX.Bounds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bounds_x: %w", err))
	}

	if err := c.BoundsTheta.Bounds().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bounds_theta: %w", err))
	} else if err := c.BoundsTheta.Bounds().Check("theta", c.Theta); err != nil {
		errs = append(errs, err)
	}

	if !(c.Sigma > 0) {
		errs = append(errs, fmt.Errorf("sigma must be positive, got %g", c.Sigma))
	}

	if c.NumberDesigns <= 0 {
		errs = append(errs, fmt.Errorf("number_designs must be positive, got %d", c.NumberDesigns))
	}

	if c.Repetitions <= 0 {
		errs = append(errs, fmt.Errorf("repetitions must be positive, got %d", c.Repetitions))
	}

	if c.SampleSize <= 0 {
		errs = append(errs, fmt.Errorf("sample_size must be positive, got %d", c.SampleSize))
	}

	if !(c.Alpha > 0.5 && c.Alpha < 1) {
		errs = append(errs, fmt.Errorf("alpha must be in (0.5, 1), got %g", c.Alpha))
	}

	if c.PiIndex < 0 || c.PiIndex >= len(c.Theta) {
		errs = append(errs, fmt.Errorf("pi_index %d outside [0, %d)", c.PiIndex, len(c.Theta)))
	}

	if c.KFoldSplits < 2 || c.KFoldSplits > c.NumberDesigns*2 {
		errs = append(errs, fmt.Errorf("k_fold_splits must be in [2, %d], got %d", c.NumberDesigns*2, c.KFoldSplits))
	}

	switch c.Minimizer.Kind {
	case DifferentialEvolution, Bayesian, CMAES:
	default:
		errs = append(errs, fmt.Errorf("unknown minimizer %q", c.Minimizer.Kind))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	return nil
}

// Source returns the random source of the run: a PCG seeded with Seed, or
// nil (clock seeded components) when Seed is 0. Every call returns a fresh
// source, and a stream index keeps components independent.
func (c Config) Source(stream uint64) rand.Source {
	if c.Seed == 0 {
		return nil
	}

	return rand.NewPCG(c.Seed, stream)
}

// NewMinimizer builds the configured minimizer.
func (c Config) NewMinimizer(src rand.Source) oed.Minimizer {
	m := c.Minimizer

	switch m.Kind {
	case Bayesian:
		cfg := minimizer.DefaultBayesianConfig()
		cfg.Src = src

		if m.MaxIterations > 0 {
			cfg.Iterations = m.MaxIterations
		}

		return minimizer.NewBayesianOptimizer(cfg)
	case CMAES:
		cfg := minimizer.DefaultCMAESConfig()
		cfg.Src = src

		if m.PopulationSize > 0 {
			cfg.Population = m.PopulationSize
		}

		if m.MaxIterations > 0 {
			cfg.FuncEvaluations = m.MaxIterations
		}

		return minimizer.NewCMAES(cfg)
	default:
		cfg := minimizer.DefaultDifferentialEvolutionConfig()
		cfg.Src = src

		if m.PopulationSize > 0 {
			cfg.PopulationSize = m.PopulationSize
		}

		if m.MaxIterations > 0 {
			cfg.MaxIterations = m.MaxIterations
		}

		if m.Tolerance > 0 {
			cfg.Tolerance = m.Tolerance
		}

		if m.Polish != nil {
			cfg.Polish = *m.Polish
		}

		return minimizer.NewDifferentialEvolution(cfg)
	}
}
