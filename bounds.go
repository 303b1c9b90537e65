package oed

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r1"
)

// Bounds defines a box in R^d: Lower[i] <= v[i] <= Upper[i] for every i.
//
// Usage:
//
//	// State of charge from 5% to 100%, temperature from 6°C to 60°C.
//	b := Bounds{
//	    Lower: []float64{0.05, 279.15},
//	    Upper: []float64{1, 333.15},
//	}
//
// Validation:
//   - Lower and Upper must have the same, non-zero length
//   - Lower[i] <= Upper[i]; equality pins the coordinate
//   - Both ends must be finite
type Bounds struct {
	// Lower is the inclusive lower corner of the box.
	Lower []float64

	// Upper is the inclusive upper corner of the box.
	Upper []float64
}

// NewBounds copies lower and upper into a validated Bounds.
func NewBounds(lower, upper []float64) (Bounds, error) {
	b := Bounds{
		Lower: append([]float64(nil), lower...),
		Upper: append([]float64(nil), upper...),
	}

	if err := b.Validate(); err != nil {
		return Bounds{}, err
	}

	return b, nil
}

// Dim is the dimension of the box.
func (b Bounds) Dim() int { return len(b.Lower) }

// Validate checks the bounds contract. Violations wrap ErrInvalidBounds.
func (b Bounds) Validate() error {
	if len(b.Lower) == 0 {
		return fmt.Errorf("%w: empty bounds", ErrInvalidBounds)
	}

	if len(b.Lower) != len(b.Upper) {
		return fmt.Errorf("%w: lower has %d entries, upper has %d", ErrInvalidBounds, len(b.Lower), len(b.Upper))
	}

	for i := range b.Lower {
		lo, hi := b.Lower[i], b.Upper[i]

		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return fmt.Errorf("%w: entry %d is not finite", ErrInvalidBounds, i)
		}

		if lo > hi {
			return fmt.Errorf("%w: lower[%d]=%g > upper[%d]=%g", ErrInvalidBounds, i, lo, i, hi)
		}
	}

	return nil
}

// Contains reports whether v lies inside the box.
func (b Bounds) Contains(v []float64) bool {
	return b.Check("v", v) == nil
}

// Check returns a *DomainError naming input if v has the wrong dimension or
// leaves the box.
func (b Bounds) Check(input string, v []float64) error {
	if len(v) != len(b.Lower) {
		return &DomainError{
			Input:  input,
			Index:  -1,
			Reason: fmt.Sprintf("expected dimension %d, got %d", len(b.Lower), len(v)),
		}
	}

	for i, vi := range v {
		if math.IsNaN(vi) || vi < b.Lower[i] || vi > b.Upper[i] {
			return &DomainError{
				Input:  input,
				Index:  i,
				Reason: fmt.Sprintf("%g outside [%g, %g]", vi, b.Lower[i], b.Upper[i]),
			}
		}
	}

	return nil
}

// Repeat returns the bounds of n stacked copies of the box, the search
// space of an n-point design flattened into one vector.
func (b Bounds) Repeat(n int) Bounds {
	d := len(b.Lower)
	out := Bounds{
		Lower: make([]float64, 0, n*d),
		Upper: make([]float64, 0, n*d),
	}

	for i := 0; i < n; i++ {
		out.Lower = append(out.Lower, b.Lower...)
		out.Upper = append(out.Upper, b.Upper...)
	}

	return out
}

// Intervals converts the box to gonum intervals.
func (b Bounds) Intervals() []r1.Interval {
	iv := make([]r1.Interval, len(b.Lower))
	for i := range b.Lower {
		iv[i] = r1.Interval{Min: b.Lower[i], Max: b.Upper[i]}
	}

	return iv
}

// Project clips v into the box in place and returns it.
func (b Bounds) Project(v []float64) []float64 {
	for i := range v {
		v[i] = Clip(v[i], b.Lower[i], b.Upper[i])
	}

	return v
}

// Width returns Upper[i]-Lower[i].
func (b Bounds) Width(i int) float64 { return b.Upper[i] - b.Lower[i] }
