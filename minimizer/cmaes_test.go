package minimizer

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalesfsp/oed"
)

func TestCMAESMinimizes(t *testing.T) {
	config := DefaultCMAESConfig()
	config.Src = rand.NewPCG(8, 9)

	bounds := oed.Bounds{Lower: []float64{-1, -1}, Upper: []float64{1, 1}}

	got, err := NewCMAES(config).Minimize(bowl, bounds)
	require.NoError(t, err)

	assert.True(t, bounds.Contains(got))
	assert.InDelta(t, 0.3, got[0], 1e-3)
	assert.InDelta(t, -0.2, got[1], 1e-3)
}

func TestCMAESBoundaryMinimum(t *testing.T) {
	config := DefaultCMAESConfig()
	config.Src = rand.NewPCG(10, 11)

	bounds := oed.Bounds{Lower: []float64{2, -3}, Upper: []float64{4, 1}}

	got, err := NewCMAES(config).Minimize(func(x []float64) float64 { return x[0] + x[1] }, bounds)
	require.NoError(t, err)

	assert.True(t, bounds.Contains(got))
	assert.InDelta(t, 2, got[0], 1e-3)
	assert.InDelta(t, -3, got[1], 1e-3)
}

func TestCMAESPinnedAndInvalidBounds(t *testing.T) {
	config := DefaultCMAESConfig()
	config.Src = rand.NewPCG(12, 13)

	cmaes := NewCMAES(config)

	got, err := cmaes.Minimize(bowl, oed.Bounds{Lower: []float64{-1, 0.5}, Upper: []float64{1, 0.5}})
	require.NoError(t, err)
	assert.Equal(t, 0.5, got[1])
	assert.InDelta(t, 0.3, got[0], 1e-3)

	_, err = cmaes.Minimize(bowl, oed.Bounds{Lower: []float64{1}, Upper: []float64{0}})
	assert.ErrorIs(t, err, oed.ErrInvalidBounds)
}
