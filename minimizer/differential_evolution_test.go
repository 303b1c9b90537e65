package minimizer

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thalesfsp/oed"
)

func rosenbrock(x []float64) float64 {
	var sum float64
	for i := 0; i < len(x)-1; i++ {
		a := x[i+1] - x[i]*x[i]
		b := 1 - x[i]
		sum += 100*a*a + b*b
	}

	return sum
}

// rastrigin has many local minima and its global minimum 0 at the origin.
func rastrigin(x []float64) float64 {
	sum := 10 * float64(len(x))
	for _, v := range x {
		sum += v*v - 10*math.Cos(2*math.Pi*v)
	}

	return sum
}

func seededDE(seed uint64) *DifferentialEvolution {
	config := DefaultDifferentialEvolutionConfig()
	config.Src = rand.NewPCG(seed, seed+1)

	return NewDifferentialEvolution(config)
}

func TestDifferentialEvolutionMinimizes(t *testing.T) {
	tests := []struct {
		name      string
		objective oed.ObjectiveFunc
		bounds    oed.Bounds
		want      []float64
		tol       float64
	}{
		{
			name:      "bowl",
			objective: bowl,
			bounds:    oed.Bounds{Lower: []float64{-1, -1}, Upper: []float64{1, 1}},
			want:      []float64{0.3, -0.2},
			tol:       1e-3,
		},
		{
			name:      "rosenbrock",
			objective: rosenbrock,
			bounds:    oed.Bounds{Lower: []float64{-2, -2, -2}, Upper: []float64{2, 2, 2}},
			want:      []float64{1, 1, 1},
			tol:       1e-2,
		},
		{
			name:      "rastrigin",
			objective: rastrigin,
			bounds:    oed.Bounds{Lower: []float64{-5.12, -5.12}, Upper: []float64{5.12, 5.12}},
			want:      []float64{0, 0},
			tol:       1e-2,
		},
		{
			name:      "minimum on the boundary",
			objective: func(x []float64) float64 { return x[0] + x[1] },
			bounds:    oed.Bounds{Lower: []float64{2, -3}, Upper: []float64{4, 1}},
			want:      []float64{2, -3},
			tol:       1e-4,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := seededDE(uint64(10 + i)).Minimize(tt.objective, tt.bounds)
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))

			for j := range got {
				assert.InDelta(t, tt.want[j], got[j], tt.tol, "component %d", j)
			}
		})
	}
}

func TestDifferentialEvolutionStaysInBounds(t *testing.T) {
	bounds := oed.Bounds{Lower: []float64{0, 10, -1}, Upper: []float64{1, 20, -1}}

	var outside int

	objective := func(x []float64) float64 {
		if !bounds.Contains(x) {
			outside++
		}

		// Pulls every coordinate outside the box.
		return -x[0] + x[1] + x[2]*x[2]
	}

	got, err := seededDE(1).Minimize(objective, bounds)
	require.NoError(t, err)

	assert.Zero(t, outside)
	assert.True(t, bounds.Contains(got))

	// Pinned coordinate.
	assert.Equal(t, -1.0, got[2])
	assert.InDelta(t, 1, got[0], 1e-4)
	assert.InDelta(t, 10, got[1], 1e-4)
}

func TestDifferentialEvolutionPenalizesNonFinite(t *testing.T) {
	objective := func(x []float64) float64 {
		if x[0] > 0 {
			return math.Inf(1)
		}

		return (x[0] + 0.5) * (x[0] + 0.5)
	}

	got, err := seededDE(2).Minimize(objective, oed.Bounds{Lower: []float64{-1}, Upper: []float64{1}})
	require.NoError(t, err)

	assert.InDelta(t, -0.5, got[0], 1e-4)
}

func TestDifferentialEvolutionReproducible(t *testing.T) {
	bounds := oed.Bounds{Lower: []float64{-5.12, -5.12}, Upper: []float64{5.12, 5.12}}

	a, err := seededDE(42).Minimize(rastrigin, bounds)
	require.NoError(t, err)

	b, err := seededDE(42).Minimize(rastrigin, bounds)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestDifferentialEvolutionInvalidBounds(t *testing.T) {
	_, err := seededDE(3).Minimize(bowl, oed.Bounds{Lower: []float64{1, 0}, Upper: []float64{0, 1}})
	assert.ErrorIs(t, err, oed.ErrInvalidBounds)

	_, err = seededDE(3).Minimize(bowl, oed.Bounds{Lower: []float64{0}, Upper: []float64{0, 1}})
	assert.ErrorIs(t, err, oed.ErrInvalidBounds)
}

func TestDifferentialEvolutionProgress(t *testing.T) {
	config := DefaultDifferentialEvolutionConfig()
	config.Src = rand.NewPCG(4, 5)
	config.MaxIterations = 30
	config.Tolerance = 0

	progressChan := make(chan oed.ProgressUpdate, config.MaxIterations)
	config.ProgressChan = progressChan

	_, err := NewDifferentialEvolution(config).Minimize(bowl, oed.Bounds{Lower: []float64{-1, -1}, Upper: []float64{1, 1}})
	require.NoError(t, err)
	close(progressChan)

	last := math.Inf(1)
	count := 0

	for update := range progressChan {
		count++

		assert.Equal(t, "Evolution", update.Phase)
		assert.LessOrEqual(t, update.CurrentBestValue, last)
		last = update.CurrentBestValue
	}

	assert.Equal(t, config.MaxIterations, count)
}

func TestDifferentialEvolutionConcurrent(t *testing.T) {
	de := seededDE(6)
	bounds := oed.Bounds{Lower: []float64{-1, -1}, Upper: []float64{1, 1}}

	var wg sync.WaitGroup

	results := make([][]float64, 8)

	for i := range results {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			got, err := de.Minimize(bowl, bounds)
			if err == nil {
				results[i] = got
			}
		}(i)
	}

	wg.Wait()

	for _, got := range results {
		require.Len(t, got, 2)
		assert.InDelta(t, 0.3, got[0], 1e-3)
		assert.InDelta(t, -0.2, got[1], 1e-3)
	}
}
