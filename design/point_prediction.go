package design

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/thalesfsp/oed"
)

// DefaultAlpha is the upper quantile level of a point prediction design.
const DefaultAlpha = 0.9

// Spreader reports the width of the prediction interval at x: the
// alpha-quantile minus the (1-alpha)-quantile, per output component.
//
// uq.FunctionWithUncertainty implements it.
type Spreader interface {
	Spread(x []float64, alpha float64) ([]float64, error)
}

// PointPredictionConfig configures NewPointPrediction.
type PointPredictionConfig struct {
	// Bounds of the design point.
	Bounds oed.Bounds

	// Prediction propagates parameter uncertainty to the outputs.
	Prediction Spreader

	// Minimizer drives the search.
	Minimizer oed.Minimizer

	// Alpha in (0.5, 1). Zero means DefaultAlpha.
	Alpha float64

	// Logger is optional.
	Logger *zap.Logger
}

// NewPointPrediction returns the single design point where the predicted
// outputs are least certain: it maximizes the sum over output components of
// the alpha-quantile minus the (1-alpha)-quantile.
//
// The quantiles are Monte Carlo estimates, so the objective is noisy and the
// result is a stochastic approximation.
func NewPointPrediction(c PointPredictionConfig) (*Design, error) {
	if c.Prediction == nil {
		return nil, errors.New("design: nil prediction")
	}

	if c.Minimizer == nil {
		return nil, errors.New("design: nil minimizer")
	}

	if err := c.Bounds.Validate(); err != nil {
		return nil, err
	}

	alpha := c.Alpha
	if alpha == 0 {
		alpha = DefaultAlpha
	}

	if !(alpha > 0.5 && alpha < 1) {
		return nil, &oed.DomainError{Input: "alpha", Index: -1, Reason: fmt.Sprintf("%g outside (0.5, 1)", alpha)}
	}

	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger = logger.With(zap.String("design", NamePointPrediction))
	logger.Info("calculating design", zap.Float64("alpha", alpha))

	best, err := c.Minimizer.Minimize(func(x []float64) float64 {
		spread, err := c.Prediction.Spread(x, alpha)
		if err != nil {
			return oed.Penalty
		}

		return oed.Finite(-floats.Sum(spread))
	}, c.Bounds)
	if err != nil {
		return nil, fmt.Errorf("design: %s: %w", NamePointPrediction, err)
	}

	logger.Info("design finished", zap.Float64s("point", best))

	return &Design{name: NamePointPrediction, points: mat.NewDense(1, len(best), best)}, nil
}
