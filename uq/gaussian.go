package uq

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/thalesfsp/oed"
)

// MultivariateGaussian is a normal probability measure on the parameter
// space. It is safe for concurrent use.
type MultivariateGaussian struct {
	mean []float64

	// mu protects normal, whose source is not safe for concurrent use.
	mu     sync.Mutex
	normal *distmv.Normal
}

// NewMultivariateGaussian returns N(mean, cov). cov must be symmetric
// positive definite; a singular covariance returns a
// *oed.SingularMatrixError. A nil src seeds from the clock.
func NewMultivariateGaussian(mean []float64, cov mat.Symmetric, src rand.Source) (*MultivariateGaussian, error) {
	if len(mean) == 0 {
		return nil, &oed.DomainError{Input: "mean", Index: -1, Reason: "empty mean"}
	}

	if cov == nil || cov.SymmetricDim() != len(mean) {
		return nil, &oed.DomainError{
			Input:  "covariance",
			Index:  -1,
			Reason: fmt.Sprintf("expected a %dx%d covariance", len(mean), len(mean)),
		}
	}

	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>9)
	}

	normal, ok := distmv.NewNormal(mean, cov, src)
	if !ok {
		return nil, &oed.SingularMatrixError{Dim: len(mean)}
	}

	return &MultivariateGaussian{
		mean:   append([]float64(nil), mean...),
		normal: normal,
	}, nil
}

// Rand fills dst with one sample and returns it. A nil dst allocates.
func (g *MultivariateGaussian) Rand(dst []float64) []float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.normal.Rand(dst)
}

// Dim is the dimension of the parameter space.
func (g *MultivariateGaussian) Dim() int { return len(g.mean) }

// Mean returns a copy of the mean.
func (g *MultivariateGaussian) Mean() []float64 { return append([]float64(nil), g.mean...) }

// Covariance returns a copy of the covariance matrix.
func (g *MultivariateGaussian) Covariance() *mat.SymDense {
	var cov mat.SymDense
	g.normal.CovarianceMatrix(&cov)

	return &cov
}
