// Package metric scores benchmarked designs.
//
// A metric sees one design at a time: its points, the simulated
// observations of every repetition and the maximum-likelihood estimate of
// every repetition. It returns one value per parameter, or a single value.
package metric

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/thalesfsp/oed"
)

//////
// Const, vars, types.
//////

// ErrNoEstimations is returned by metrics that need at least one
// estimation when none are given.
var ErrNoEstimations = errors.New("metric: no estimations")

// Input is what a metric sees of one benchmarked design.
type Input struct {
	// Experiment is the benchmarked design.
	Experiment oed.Experiment

	// Observations holds one n x k matrix per repetition.
	Observations []*mat.Dense

	// Estimations holds one estimated parameter vector per row.
	Estimations *mat.Dense
}

// Metric scores one design.
type Metric interface {
	// Name is a human readable description used as plot title.
	Name() string

	// Calculate returns the score of one design.
	Calculate(in Input) ([]float64, error)
}

// Result is the score of one design.
type Result struct {
	Design string
	Values []float64
}

//////
// Exported functionalities.
//////

// Evaluate applies m to every design in inputs, keyed by design name. The
// results are sorted by design name.
func Evaluate(m Metric, inputs map[string]Input) ([]Result, error) {
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}

	sort.Strings(names)

	results := make([]Result, 0, len(names))

	for _, name := range names {
		values, err := m.Calculate(inputs[name])
		if err != nil {
			return nil, fmt.Errorf("metric: %s for %s: %w", m.Name(), name, err)
		}

		results = append(results, Result{Design: name, Values: values})
	}

	return results, nil
}

func estimations(in Input) (*mat.Dense, error) {
	if in.Estimations == nil {
		return nil, ErrNoEstimations
	}

	if r, _ := in.Estimations.Dims(); r == 0 {
		return nil, ErrNoEstimations
	}

	return in.Estimations, nil
}
