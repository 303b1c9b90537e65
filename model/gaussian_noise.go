// Package model implements statistical models on top of parametric
// functions.
package model

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/thalesfsp/oed"
)

//////
// Const, vars, types.
//////

// epsilon is the float64 machine epsilon.
const epsilon = 0x1p-52

// Config holds the construction parameters of a GaussianNoiseModel.
//
// Fields:
// - Function: The parametric function f(theta, x)
// - Sigma: Standard deviation of the additive i.i.d. Gaussian noise (> 0)
// - BoundsX: Bounds of a single design point
// - BoundsTheta: Bounds of the parameter vector
// - Src: Randomness for Random; nil seeds from the clock
// - Logger: Optional logger; nil disables logging
type Config struct {
	Function    oed.ParametricFunction
	Sigma       float64
	BoundsX     oed.Bounds
	BoundsTheta oed.Bounds
	Src         rand.Source
	Logger      *zap.Logger
}

// GaussianNoiseModel observes y = f(theta, x) + N(0, sigma²·I).
//
// The model is stateless with respect to data and safe for concurrent use;
// Random serializes access to its noise source.
type GaussianNoiseModel struct {
	function    oed.ParametricFunction
	sigma       float64
	boundsX     oed.Bounds
	boundsTheta oed.Bounds
	logger      *zap.Logger

	// noiseMu protects noise.
	noiseMu sync.Mutex
	noise   distuv.Normal
}

//////
// Factory.
//////

// NewGaussianNoiseModel validates cfg and returns the model.
func NewGaussianNoiseModel(cfg Config) (*GaussianNoiseModel, error) {
	if cfg.Function == nil {
		return nil, errors.New("model: nil parametric function")
	}

	if !(cfg.Sigma > 0) || math.IsInf(cfg.Sigma, 0) {
		return nil, fmt.Errorf("model: sigma must be positive and finite, got %g", cfg.Sigma)
	}

	if err := cfg.BoundsX.Validate(); err != nil {
		return nil, fmt.Errorf("model: design bounds: %w", err)
	}

	if err := cfg.BoundsTheta.Validate(); err != nil {
		return nil, fmt.Errorf("model: parameter bounds: %w", err)
	}

	src := cfg.Src
	if src == nil {
		seed := uint64(time.Now().UnixNano())
		src = rand.NewPCG(seed, seed>>1)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GaussianNoiseModel{
		function:    cfg.Function,
		sigma:       cfg.Sigma,
		boundsX:     cfg.BoundsX,
		boundsTheta: cfg.BoundsTheta,
		logger:      logger,
		noise:       distuv.Normal{Mu: 0, Sigma: cfg.Sigma, Src: src},
	}, nil
}

//////
// Methods.
//////

// Function returns the wrapped parametric function.
func (m *GaussianNoiseModel) Function() oed.ParametricFunction { return m.function }

// Sigma returns the noise standard deviation.
func (m *GaussianNoiseModel) Sigma() float64 { return m.sigma }

// BoundsX returns the bounds of a single design point.
func (m *GaussianNoiseModel) BoundsX() oed.Bounds { return m.boundsX }

// BoundsTheta returns the bounds of the parameter vector.
func (m *GaussianNoiseModel) BoundsTheta() oed.Bounds { return m.boundsTheta }

func (m *GaussianNoiseModel) check(theta, x []float64) error {
	if err := m.boundsTheta.Check("theta", theta); err != nil {
		return err
	}

	return m.boundsX.Check("x", x)
}

// Evaluate returns f(theta, x), or a *oed.DomainError if theta or x leaves
// its bounds.
func (m *GaussianNoiseModel) Evaluate(theta, x []float64) ([]float64, error) {
	if err := m.check(theta, x); err != nil {
		return nil, err
	}

	return m.function.Evaluate(theta, x), nil
}

// Random draws one noisy observation f(theta, x) + N(0, sigma²) per output
// component. It simulates a black-box experiment.
func (m *GaussianNoiseModel) Random(theta, x []float64) ([]float64, error) {
	y, err := m.Evaluate(theta, x)
	if err != nil {
		return nil, err
	}

	m.noiseMu.Lock()
	defer m.noiseMu.Unlock()

	for k := range y {
		y[k] += m.noise.Rand()
	}

	return y, nil
}

// RandomFrom is Random with the noise drawn from src instead of the model's
// own source. src is not synchronized: give each goroutine its own.
func (m *GaussianNoiseModel) RandomFrom(theta, x []float64, src rand.Source) ([]float64, error) {
	y, err := m.Evaluate(theta, x)
	if err != nil {
		return nil, err
	}

	noise := distuv.Normal{Mu: 0, Sigma: m.sigma, Src: src}
	for k := range y {
		y[k] += noise.Rand()
	}

	return y, nil
}

// ConditionLimit is the condition number at which round-off of a p x p
// float64 matrix swamps its smallest eigenvalue: 1/(p·eps). A Jacobi-scaled
// Fisher information matrix above it is numerically rank deficient.
func ConditionLimit(p int) float64 {
	return 1 / (float64(max(p, 1)) * epsilon)
}

// jacobian stacks ∂f/∂theta for every design point and output component
// into an (n·k) x p matrix.
func (m *GaussianNoiseModel) jacobian(theta []float64, x0 mat.Matrix) (*mat.Dense, int, error) {
	if err := m.boundsTheta.Check("theta", theta); err != nil {
		return nil, 0, err
	}

	if x0 == nil {
		return nil, 0, nil
	}

	n, d := x0.Dims()
	if d != m.boundsX.Dim() {
		return nil, 0, &oed.DomainError{
			Input:  "x0",
			Index:  -1,
			Reason: fmt.Sprintf("design has %d columns, expected %d", d, m.boundsX.Dim()),
		}
	}

	p := len(theta)
	k := m.function.OutputDim()

	if n == 0 {
		return nil, 0, nil
	}

	jac := mat.NewDense(n*k, p, nil)
	x := make([]float64, d)

	for i := 0; i < n; i++ {
		mat.Row(x, i, x0)

		if err := m.boundsX.Check("x", x); err != nil {
			return nil, 0, err
		}

		for j := 0; j < p; j++ {
			for c, v := range m.function.PartialDerivative(theta, x, j) {
				jac.Set(i*k+c, j, v)
			}
		}
	}

	return jac, n, nil
}

// FisherInformationMatrix returns (1/sigma²) Σ J_iᵀJ_i over the rows of the
// design x0, where J_i holds the partial derivatives of f at the i-th point.
//
// The result is symmetric positive semi-definite. It is singular when the
// design carries no information about some parameter direction; that is
// returned as data, not as an error.
//
// Complexity: O(n·p²) plus one Jacobian evaluation per design point.
func (m *GaussianNoiseModel) FisherInformationMatrix(theta []float64, x0 mat.Matrix) (*mat.SymDense, error) {
	jac, _, err := m.jacobian(theta, x0)
	if err != nil {
		return nil, err
	}

	if jac == nil {
		return mat.NewSymDense(len(theta), nil), nil
	}

	var fim mat.SymDense
	fim.SymOuterK(1/(m.sigma*m.sigma), jac.T())

	return &fim, nil
}

// DeterminantFisherInformationMatrix is the D-optimality criterion. It
// underflows towards 0 for degenerate designs.
func (m *GaussianNoiseModel) DeterminantFisherInformationMatrix(theta []float64, x0 mat.Matrix) (float64, error) {
	fim, err := m.FisherInformationMatrix(theta, x0)
	if err != nil {
		return 0, err
	}

	return mat.Det(fim), nil
}

// LogDeterminantFisherInformationMatrix returns log det FIM, or -Inf when
// the determinant is not positive.
func (m *GaussianNoiseModel) LogDeterminantFisherInformationMatrix(theta []float64, x0 mat.Matrix) (float64, error) {
	fim, err := m.FisherInformationMatrix(theta, x0)
	if err != nil {
		return 0, err
	}

	logDet, sign := mat.LogDet(fim)
	if sign <= 0 {
		return math.Inf(-1), nil
	}

	return logDet, nil
}

// CramerRaoLowerBound returns the inverse of the Fisher information matrix.
//
// The inverse is computed on the Jacobi-scaled matrix D·FIM·D with
// D = diag(FIM)^(-1/2), so parameters on very different scales do not
// masquerade as degeneracy. A *oed.SingularMatrixError is returned when some
// diagonal entry is zero, the scaled matrix is not positive definite, or
// its condition number exceeds ConditionLimit. Ill-conditioned but
// invertible matrices are inverted; their large variances are data.
func (m *GaussianNoiseModel) CramerRaoLowerBound(theta []float64, x0 mat.Matrix) (*mat.SymDense, error) {
	fim, err := m.FisherInformationMatrix(theta, x0)
	if err != nil {
		return nil, err
	}

	p := fim.SymmetricDim()
	singular := &oed.SingularMatrixError{Dim: p, Points: oed.Rows(x0)}

	scale := make([]float64, p)
	for i := range scale {
		d := fim.At(i, i)
		if !(d > 0) || math.IsInf(d, 0) {
			return nil, singular
		}

		scale[i] = 1 / math.Sqrt(d)
	}

	scaled := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			scaled.SetSym(i, j, fim.At(i, j)*scale[i]*scale[j])
		}
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(scaled); !ok {
		return nil, singular
	}

	if cond := chol.Cond(); cond > ConditionLimit(p) || math.IsNaN(cond) {
		return nil, singular
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		var c mat.Condition
		if !errors.As(err, &c) {
			return nil, fmt.Errorf("model: invert Fisher information: %w", err)
		}
	}

	crlb := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			crlb.SetSym(i, j, inv.At(i, j)*scale[i]*scale[j])
		}
	}

	return crlb, nil
}

func (m *GaussianNoiseModel) checkObservations(x0, y mat.Matrix) error {
	if x0 == nil || y == nil {
		return &oed.DomainError{Input: "x0", Index: -1, Reason: "no observations"}
	}

	n, d := x0.Dims()
	ny, k := y.Dims()

	if d != m.boundsX.Dim() {
		return &oed.DomainError{Input: "x0", Index: -1, Reason: fmt.Sprintf("design has %d columns, expected %d", d, m.boundsX.Dim())}
	}

	if ny != n || k != m.function.OutputDim() {
		return &oed.DomainError{
			Input:  "y",
			Index:  -1,
			Reason: fmt.Sprintf("observations are %dx%d, expected %dx%d", ny, k, n, m.function.OutputDim()),
		}
	}

	return nil
}

// SumOfSquaredResiduals returns Σ (y_i - f(theta, x_i))² over every design
// point and output component.
func (m *GaussianNoiseModel) SumOfSquaredResiduals(theta []float64, x0, y mat.Matrix) (float64, error) {
	if err := m.checkObservations(x0, y); err != nil {
		return 0, err
	}

	if err := m.boundsTheta.Check("theta", theta); err != nil {
		return 0, err
	}

	return m.ssr(theta, x0, y), nil
}

func (m *GaussianNoiseModel) ssr(theta []float64, x0, y mat.Matrix) float64 {
	n, d := x0.Dims()
	x := make([]float64, d)

	var sum float64

	for i := 0; i < n; i++ {
		mat.Row(x, i, x0)

		for c, v := range m.function.Evaluate(theta, x) {
			r := y.At(i, c) - v
			sum += r * r
		}
	}

	return sum
}

// LogLikelihood returns the Gaussian log-likelihood of the observations y
// at design x0 under theta.
func (m *GaussianNoiseModel) LogLikelihood(theta []float64, x0, y mat.Matrix) (float64, error) {
	ssr, err := m.SumOfSquaredResiduals(theta, x0, y)
	if err != nil {
		return 0, err
	}

	r, c := y.Dims()
	count := float64(r * c)
	variance := m.sigma * m.sigma

	return -0.5*count*math.Log(2*math.Pi*variance) - ssr/(2*variance), nil
}

// MaximumLikelihoodEstimation minimizes the negative log-likelihood over
// BoundsTheta with the given minimizer. For Gaussian noise this is the
// least-squares fit. There is no closed-form fallback; the result is only as
// good as the minimizer's global search.
func (m *GaussianNoiseModel) MaximumLikelihoodEstimation(x0, y mat.Matrix, minimizer oed.Minimizer) ([]float64, error) {
	if minimizer == nil {
		return nil, errors.New("model: nil minimizer")
	}

	if err := m.checkObservations(x0, y); err != nil {
		return nil, err
	}

	// Materialize once; the objective is called many times.
	design := mat.DenseCopyOf(x0)
	obs := mat.DenseCopyOf(y)

	for i := 0; i < oed.Rows(design); i++ {
		if err := m.boundsX.Check("x", design.RawRowView(i)); err != nil {
			return nil, err
		}
	}

	theta, err := minimizer.Minimize(func(theta []float64) float64 {
		return oed.Finite(m.ssr(theta, design, obs))
	}, m.boundsTheta)
	if err != nil {
		return nil, fmt.Errorf("model: maximum likelihood estimation: %w", err)
	}

	m.logger.Debug("maximum likelihood estimate",
		zap.Float64s("theta", theta),
		zap.Int("points", oed.Rows(design)),
	)

	return theta, nil
}
