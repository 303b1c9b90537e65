package design

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/thalesfsp/oed"
)

// Design names.
const (
	NameDOptimal         = "D-opt"
	NameBayesianDOptimal = "Bayesian D-opt"
	NamePiOptimal        = "pi"
	NamePointPrediction  = "point prediction"
	NameRandom           = "random"
	NameLatinHypercube   = "latin hypercube"
)

// Design is an immutable, named set of design points.
type Design struct {
	name   string
	points *mat.Dense
}

// NewDesign copies points into a Design. Every entry must be finite.
func NewDesign(name string, points mat.Matrix) (*Design, error) {
	if name == "" {
		return nil, errors.New("design: empty name")
	}

	if points == nil {
		return nil, errors.New("design: no points")
	}

	r, c := points.Dims()
	if r == 0 || c == 0 {
		return nil, errors.New("design: no points")
	}

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := points.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("design: point %d has non-finite entry %d", i, j)
			}
		}
	}

	return &Design{name: name, points: mat.DenseCopyOf(points)}, nil
}

// Name identifies the design in reports.
func (d *Design) Name() string { return d.name }

// Experiment returns a copy of the n x d design matrix.
func (d *Design) Experiment() *mat.Dense { return mat.DenseCopyOf(d.points) }

// Len is the number of design points.
func (d *Design) Len() int { return oed.Rows(d.points) }

// Point returns a copy of the i-th design point.
func (d *Design) Point(i int) []float64 {
	return mat.Row(nil, i, d.points)
}

// Combine returns a design named name holding the points of a followed by
// the points of b.
func Combine(name string, a, b oed.Experiment) (*Design, error) {
	var pa, pb mat.Matrix

	if a != nil {
		pa = a.Experiment()
	}

	if b != nil {
		pb = b.Experiment()
	}

	if pa != nil && pb != nil {
		if _, ca := pa.Dims(); ca != colsOf(pb) {
			return nil, fmt.Errorf("design: cannot combine %d and %d dimensional points", ca, colsOf(pb))
		}
	}

	return NewDesign(name, oed.Stack(pa, pb))
}

func colsOf(m mat.Matrix) int {
	_, c := m.Dims()

	return c
}
