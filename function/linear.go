package function

// LinearFunction is f(theta, x) = theta[0] + Σ theta[i+1]·x[i].
//
// theta has one more entry than x. Its second derivatives are identically
// zero.
type LinearFunction struct {
	dim int
}

// NewLinearFunction returns a linear function of a dim-dimensional input.
func NewLinearFunction(dim int) *LinearFunction {
	return &LinearFunction{dim: dim}
}

// Dim is the input dimension.
func (f *LinearFunction) Dim() int { return f.dim }

// OutputDim is 1.
func (f *LinearFunction) OutputDim() int { return 1 }

// Evaluate returns [theta0 + Σ theta_{i+1} x_i].
func (f *LinearFunction) Evaluate(theta, x []float64) []float64 {
	y := theta[0]
	for i, xi := range x {
		y += theta[i+1] * xi
	}

	return []float64{y}
}

// PartialDerivative returns [1] for the intercept and [x_{index-1}]
// otherwise.
func (f *LinearFunction) PartialDerivative(_, x []float64, index int) []float64 {
	if index == 0 {
		return []float64{1}
	}

	if index < 0 || index > len(x) {
		return []float64{0}
	}

	return []float64{x[index-1]}
}

// SecondPartialDerivative is zero for every pair of parameters.
func (f *LinearFunction) SecondPartialDerivative(_, _ []float64, _, _ int) []float64 {
	return []float64{0}
}
