package oed

import (
	"errors"
	"fmt"
)

// Sentinel errors, usable with errors.Is.
var (
	// ErrDomain indicates x or theta outside the declared bounds, or of the
	// wrong dimension.
	ErrDomain = errors.New("oed: input outside domain")

	// ErrSingularMatrix indicates a Fisher information matrix that cannot be
	// inverted.
	ErrSingularMatrix = errors.New("oed: singular matrix")

	// ErrNotSupported indicates an optional capability was requested from an
	// implementation that lacks it.
	ErrNotSupported = errors.New("oed: not supported")

	// ErrInvalidBounds indicates a malformed bounds pair. This is a
	// configuration error.
	ErrInvalidBounds = errors.New("oed: invalid bounds")
)

// DomainError reports an input that violates its declared bounds or
// dimension.
type DomainError struct {
	// Input names the offending argument, e.g. "x" or "theta".
	Input string

	// Index is the offending component, or -1 for a dimension mismatch.
	Index int

	// Reason is a short human readable description.
	Reason string
}

func (e *DomainError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", ErrDomain, e.Input, e.Reason)
	}

	return fmt.Sprintf("%s: %s[%d]: %s", ErrDomain, e.Input, e.Index, e.Reason)
}

// Is makes errors.Is(err, ErrDomain) hold.
func (e *DomainError) Is(target error) bool { return target == ErrDomain }

// SingularMatrixError reports a Fisher information matrix that is not
// positive definite, i.e. the design carries no information about some
// parameter combination.
type SingularMatrixError struct {
	// Dim is the dimension of the matrix.
	Dim int

	// Points is the number of design points the matrix was built from.
	Points int
}

func (e *SingularMatrixError) Error() string {
	return fmt.Sprintf("%s: %dx%d Fisher information from %d design points is not invertible",
		ErrSingularMatrix, e.Dim, e.Dim, e.Points)
}

// Is makes errors.Is(err, ErrSingularMatrix) hold.
func (e *SingularMatrixError) Is(target error) bool { return target == ErrSingularMatrix }

// NotSupportedError reports a missing optional capability.
type NotSupportedError struct {
	Capability string
}

func (e *NotSupportedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrNotSupported, e.Capability)
}

// Is makes errors.Is(err, ErrNotSupported) hold.
func (e *NotSupportedError) Is(target error) bool { return target == ErrNotSupported }

// SecondPartialDerivative returns ∂²f/∂theta[i]∂theta[j] when f implements
// SecondOrderFunction, and a *NotSupportedError otherwise. It never
// approximates.
func SecondPartialDerivative(f ParametricFunction, theta, x []float64, i, j int) ([]float64, error) {
	so, ok := f.(SecondOrderFunction)
	if !ok {
		return nil, &NotSupportedError{Capability: fmt.Sprintf("second partial derivative of %T", f)}
	}

	return so.SecondPartialDerivative(theta, x, i, j), nil
}
