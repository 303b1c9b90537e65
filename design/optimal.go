package design

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/thalesfsp/oed"
)

//////
// Const, vars, types.
//////

// Config holds the inputs shared by the information-based designs.
//
// Fields:
// - NumberDesigns: Number of new points to place (> 0)
// - Bounds: Bounds of a single design point
// - InitialTheta: Parameter guess at which the Fisher information is evaluated
// - Model: Statistical model providing the Fisher information
// - Minimizer: Global minimizer driving the search
// - PreviousExperiment: Optional points that are already measured
// - Logger: Optional logger; nil disables logging
type Config struct {
	NumberDesigns      int
	Bounds             oed.Bounds
	InitialTheta       []float64
	Model              oed.StatisticalModel
	Minimizer          oed.Minimizer
	PreviousExperiment oed.Experiment
	Logger             *zap.Logger
}

// criterion scores a full design (previous points included); lower is
// better. A *oed.SingularMatrixError is turned into oed.Penalty, any other
// error fails the design.
type criterion func(x0 *mat.Dense) (float64, error)

//////
// Helper functions.
//////

func (c Config) validate() error {
	if c.NumberDesigns <= 0 {
		return fmt.Errorf("design: number of designs must be positive, got %d", c.NumberDesigns)
	}

	if c.Model == nil {
		return errors.New("design: nil statistical model")
	}

	if c.Minimizer == nil {
		return errors.New("design: nil minimizer")
	}

	if err := c.Bounds.Validate(); err != nil {
		return err
	}

	if c.Bounds.Dim() != c.Model.BoundsX().Dim() {
		return &oed.DomainError{
			Input:  "bounds",
			Index:  -1,
			Reason: fmt.Sprintf("design bounds have dimension %d, model expects %d", c.Bounds.Dim(), c.Model.BoundsX().Dim()),
		}
	}

	if err := c.Model.BoundsTheta().Check("initial theta", c.InitialTheta); err != nil {
		return err
	}

	if c.PreviousExperiment != nil {
		previous := c.PreviousExperiment.Experiment()

		n, d := previous.Dims()
		if d != c.Bounds.Dim() {
			return &oed.DomainError{
				Input:  "previous experiment",
				Index:  -1,
				Reason: fmt.Sprintf("points have dimension %d, expected %d", d, c.Bounds.Dim()),
			}
		}

		boundsX := c.Model.BoundsX()
		for i := 0; i < n; i++ {
			if err := boundsX.Check(fmt.Sprintf("previous experiment row %d", i), previous.RawRowView(i)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (c Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}

	return c.Logger
}

func (c Config) previous() *mat.Dense {
	if c.PreviousExperiment == nil {
		return nil
	}

	return c.PreviousExperiment.Experiment()
}

// optimize searches NumberDesigns new points minimizing score over
// previous ∪ new and returns the combined design named name.
func optimize(name string, c Config, score criterion) (*Design, error) {
	logger := c.logger().With(zap.String("design", name))

	previous := c.previous()
	n, d := c.NumberDesigns, c.Bounds.Dim()

	logger.Info("calculating design",
		zap.Int("points", n),
		zap.Int("previous", oed.Rows(previous)),
	)

	// First non-singular scoring error. Minimizers may evaluate
	// concurrently.
	var (
		failMu  sync.Mutex
		failure error
	)

	best, err := c.Minimizer.Minimize(func(v []float64) float64 {
		value, err := score(oed.Stack(previous, oed.Reshape(v, n, d)))
		if err != nil {
			if !errors.Is(err, oed.ErrSingularMatrix) {
				failMu.Lock()
				if failure == nil {
					failure = err
				}
				failMu.Unlock()
			}

			return oed.Penalty
		}

		return oed.Finite(value)
	}, c.Bounds.Repeat(n))
	if err != nil {
		return nil, fmt.Errorf("design: %s: %w", name, err)
	}

	if failure != nil {
		logger.Error("design failed", zap.Error(failure))

		return nil, fmt.Errorf("design: %s: %w", name, failure)
	}

	points := oed.Stack(previous, oed.Reshape(best, n, d))

	logger.Info("design finished", zap.Int("points", oed.Rows(points)))

	return &Design{name: name, points: points}, nil
}

//////
// Factory.
//////

// NewDOptimal places NumberDesigns points maximizing
// det FIM(InitialTheta, previous ∪ new).
//
// Parameters:
// - c: Shared design configuration. Every PreviousExperiment point must lie
// inside the model's design bounds
//
// Returns:
// - *Design: PreviousExperiment points first, then the NumberDesigns new
// points, named NameDOptimal
// - error: Configuration errors, minimizer errors, or the first
// *oed.DomainError raised while scoring a candidate
//
// Important notes:
// - The determinant is evaluated at the single guess InitialTheta; see
// NewBayesianDOptimal for a prior-averaged criterion
// - The minimizer searches the flattened NumberDesigns x d box, so its cost
// grows with the number of new points
//
// Example:
//
//	d, err := design.NewDOptimal(design.Config{
//		NumberDesigns: 5,
//		Bounds:        m.BoundsX(),
//		InitialTheta:  theta,
//		Model:         m,
//		Minimizer:     de,
//	})
func NewDOptimal(c Config) (*Design, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	return optimize(NameDOptimal, c, func(x0 *mat.Dense) (float64, error) {
		det, err := c.Model.DeterminantFisherInformationMatrix(c.InitialTheta, x0)

		return -det, err
	})
}

// NewPiOptimal places NumberDesigns points minimizing the index-th diagonal
// entry of the Cramér-Rao lower bound, the asymptotic variance of
// theta[index].
//
// Parameters:
// - c: Shared design configuration
// - index: Parameter whose variance is minimized, in [0, len(InitialTheta))
//
// Returns:
// - *Design: PreviousExperiment points first, then the new points, named
// NamePiOptimal
// - error: *oed.DomainError for a bad index or out-of-domain points,
// configuration and minimizer errors
//
// Important notes:
// - Candidates with a singular Fisher information matrix score oed.Penalty,
// so the search keeps going; other scoring errors fail the design
// - Without enough previous points every candidate may be singular, and the
// returned design is then whatever the minimizer settled on
func NewPiOptimal(c Config, index int) (*Design, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	if index < 0 || index >= len(c.InitialTheta) {
		return nil, &oed.DomainError{
			Input:  "index",
			Index:  -1,
			Reason: fmt.Sprintf("%d outside [0, %d)", index, len(c.InitialTheta)),
		}
	}

	return optimize(NamePiOptimal, c, func(x0 *mat.Dense) (float64, error) {
		crlb, err := c.Model.CramerRaoLowerBound(c.InitialTheta, x0)
		if err != nil {
			return 0, err
		}

		return crlb.At(index, index), nil
	})
}

// NewBayesianDOptimal is the robust variant of NewDOptimal. Instead of a
// single parameter guess it draws samples parameter vectors from prior once,
// projects them into the model's parameter bounds, and maximizes the mean
// log-determinant of the Fisher information over them. c.InitialTheta is
// only validated.
//
// Designs degenerate for any sample score oed.Penalty.
func NewBayesianDOptimal(c Config, prior oed.ProbabilityMeasure, samples int) (*Design, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	if prior == nil {
		return nil, errors.New("design: nil prior")
	}

	if prior.Dim() != len(c.InitialTheta) {
		return nil, &oed.DomainError{
			Input:  "prior",
			Index:  -1,
			Reason: fmt.Sprintf("prior has dimension %d, expected %d", prior.Dim(), len(c.InitialTheta)),
		}
	}

	if samples <= 0 {
		return nil, fmt.Errorf("design: number of prior samples must be positive, got %d", samples)
	}

	boundsTheta := c.Model.BoundsTheta()

	thetas := make([][]float64, samples)
	for i := range thetas {
		thetas[i] = boundsTheta.Project(prior.Rand(nil))
	}

	return optimize(NameBayesianDOptimal, c, func(x0 *mat.Dense) (float64, error) {
		var sum float64

		for _, theta := range thetas {
			fim, err := c.Model.FisherInformationMatrix(theta, x0)
			if err != nil {
				return 0, err
			}

			logDet, sign := mat.LogDet(fim)
			if sign <= 0 {
				return oed.Penalty, nil
			}

			sum += logDet
		}

		return -sum / float64(len(thetas)), nil
	})
}
