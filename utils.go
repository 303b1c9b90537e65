package oed

import (
	"fmt"
	"math"

	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/mat"
)

//////
// Const, vars, types.
//////

// Penalty is the objective value assigned to candidates whose objective
// cannot be computed (singular Fisher information, non-finite values).
//
// It is finite so population statistics of a minimizer stay finite, and
// large enough to lose against any real design criterion.
const Penalty = 1e100

//////
// Helper functions.
//////

// Clip limits v to [lo, hi].
func Clip[T constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}

// Finite replaces NaN and ±Inf objective values with Penalty.
func Finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Penalty
	}

	return v
}

// Reshape interprets the flat vector v as a row-major n x d matrix. The
// data is copied.
//
// Panics if len(v) != n*d.
func Reshape(v []float64, n, d int) *mat.Dense {
	if len(v) != n*d {
		panic(fmt.Sprintf("oed: cannot reshape %d values into %dx%d", len(v), n, d))
	}

	return mat.NewDense(n, d, append([]float64(nil), v...))
}

// Flatten returns the rows of m concatenated into one vector.
func Flatten(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}

	return out
}

// Stack concatenates the rows of a and b. Either may be nil.
//
// Panics if both are non-nil and their column counts differ.
func Stack(a, b mat.Matrix) *mat.Dense {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return mat.DenseCopyOf(b)
	case b == nil:
		return mat.DenseCopyOf(a)
	}

	ra, ca := a.Dims()
	rb, cb := b.Dims()

	if ca != cb {
		panic(fmt.Sprintf("oed: cannot stack %dx%d on %dx%d", rb, cb, ra, ca))
	}

	out := mat.NewDense(ra+rb, ca, nil)
	out.Slice(0, ra, 0, ca).(*mat.Dense).Copy(a)
	out.Slice(ra, ra+rb, 0, ca).(*mat.Dense).Copy(b)

	return out
}

// Rows returns the number of rows of m, treating nil as empty.
func Rows(m mat.Matrix) int {
	if m == nil {
		return 0
	}

	r, _ := m.Dims()

	return r
}
