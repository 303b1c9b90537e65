package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thalesfsp/oed"
	"github.com/thalesfsp/oed/minimizer"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefault(t *testing.T) {
	path := writeFile(t, `
sigma: 0.01
number_designs: 4
seed: 7
minimizer:
  kind: cmaes
  max_iterations: 300
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.01, cfg.Sigma)
	assert.Equal(t, 4, cfg.NumberDesigns)
	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, CMAES, cfg.Minimizer.Kind)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched fields keep their defaults.
	assert.Equal(t, []float64{1.8, 402, 0.13}, cfg.Theta)
	assert.Equal(t, 100, cfg.Repetitions)

	assert.IsType(t, &minimizer.CMAES{}, cfg.NewMinimizer(cfg.Source(1)))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "sigma: [1, 2"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "sigma: -1\nalpha: 0.2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sigma")
	assert.Contains(t, err.Error(), "alpha")
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"bad x bounds":       func(c *Config) { c.BoundsX.Upper = []float64{1} },
		"theta outside":      func(c *Config) { c.Theta = []float64{20, 402, 0.13} },
		"no designs":         func(c *Config) { c.NumberDesigns = 0 },
		"no repetitions":     func(c *Config) { c.Repetitions = 0 },
		"no samples":         func(c *Config) { c.SampleSize = -1 },
		"pi index":           func(c *Config) { c.PiIndex = 3 },
		"k fold":             func(c *Config) { c.KFoldSplits = 1 },
		"unknown minimizer":  func(c *Config) { c.Minimizer.Kind = "simplex" },
		"inverted theta box": func(c *Config) { c.BoundsTheta.Lower[0] = 100 },
	}

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)

			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.BoundsX = BoundsConfig{Lower: []float64{1, 0}, Upper: []float64{0, 1}}
	assert.ErrorIs(t, cfg.Validate(), oed.ErrInvalidBounds)
}

func TestMarshalRoundTrip(t *testing.T) {
	data, err := Default().Marshal()
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, Default(), cfg)
}

func TestNewMinimizer(t *testing.T) {
	cfg := Default()
	assert.Nil(t, cfg.Source(0))

	assert.IsType(t, &minimizer.DifferentialEvolution{}, cfg.NewMinimizer(nil))

	cfg.Minimizer.Kind = Bayesian
	assert.IsType(t, &minimizer.BayesianOptimizer{}, cfg.NewMinimizer(nil))

	cfg.Seed = 3
	assert.NotNil(t, cfg.Source(1))
}
