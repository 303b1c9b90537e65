// Package function holds the shipped parametric functions.
package function

import (
	"math"
)

const secondsPerDay = 24 * 3600

// DefaultAgingTimes are the default measurement days of AgingModel.
var DefaultAgingTimes = []float64{7, 35, 63, 119, 175, 231}

// AgingModel is a battery calendar-aging capacity-loss model.
//
// theta = [theta0, theta1, theta2] are the free parameters, x = [SoC, T]
// with the state of charge in p.u. (0..1] and the temperature in Kelvin.
// The output is the relative capacity loss at every day of the time grid:
//
//	Q_k = (1-EOLC)/tEnd^theta2 · (SoC/SoCRef)^(1/theta0) · exp(-theta1(1/T - 1/TRef)) · t_k^theta2
//
// with tEnd and t_k converted to seconds.
//
// AgingModel has no second derivative; oed.SecondPartialDerivative returns
// a *oed.NotSupportedError for it.
type AgingModel struct {
	socRef float64
	tRef   float64
	eolC   float64
	tEnd   float64
	times  []float64
}

// AgingOption configures an AgingModel.
type AgingOption func(*AgingModel)

// WithReferenceSoC sets the reference state of charge (p.u.).
func WithReferenceSoC(soc float64) AgingOption {
	return func(m *AgingModel) { m.socRef = soc }
}

// WithReferenceTemperature sets the reference temperature (K).
func WithReferenceTemperature(t float64) AgingOption {
	return func(m *AgingModel) { m.tRef = t }
}

// WithEndOfLifeCapacity sets the end-of-life capacity (p.u.).
func WithEndOfLifeCapacity(c float64) AgingOption {
	return func(m *AgingModel) { m.eolC = c }
}

// WithEndOfLifeTime sets the time (days) at which end of life is reached at
// reference conditions.
func WithEndOfLifeTime(days float64) AgingOption {
	return func(m *AgingModel) { m.tEnd = days }
}

// WithTimes sets the measurement days.
func WithTimes(days []float64) AgingOption {
	return func(m *AgingModel) { m.times = append([]float64(nil), days...) }
}

// NewAgingModel returns an AgingModel with the reference values SoCRef=0.5,
// TRef=296.15 K, EOLC=0.9, tEnd=520 days and DefaultAgingTimes.
func NewAgingModel(opts ...AgingOption) *AgingModel {
	m := &AgingModel{
		socRef: 0.5,
		tRef:   296.15,
		eolC:   0.9,
		tEnd:   520,
		times:  append([]float64(nil), DefaultAgingTimes...),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// OutputDim is the number of measurement days.
func (m *AgingModel) OutputDim() int { return len(m.times) }

// Times returns a copy of the measurement days.
func (m *AgingModel) Times() []float64 { return append([]float64(nil), m.times...) }

func (m *AgingModel) xRef(theta2 float64) float64 {
	return (1 - m.eolC) / math.Pow(m.tEnd*secondsPerDay, theta2)
}

func (m *AgingModel) dSoC(soc, theta0 float64) float64 {
	return math.Pow(soc/m.socRef, 1/theta0)
}

func (m *AgingModel) dT(t, theta1 float64) float64 {
	return math.Exp(-theta1 * (1/t - 1/m.tRef))
}

// Evaluate returns the capacity loss at every measurement day.
func (m *AgingModel) Evaluate(theta, x []float64) []float64 {
	return m.evaluateAt(theta, x, m.times)
}

func (m *AgingModel) evaluateAt(theta, x, days []float64) []float64 {
	scale := m.xRef(theta[2]) * m.dSoC(x[0], theta[0]) * m.dT(x[1], theta[1])

	out := make([]float64, len(days))
	for k, day := range days {
		out[k] = scale * math.Pow(day*secondsPerDay, theta[2])
	}

	return out
}

// PartialDerivative returns the analytic derivative of Evaluate with respect
// to theta[index]. An index outside 0..2 returns zeros.
func (m *AgingModel) PartialDerivative(theta, x []float64, index int) []float64 {
	q := m.Evaluate(theta, x)

	switch index {
	case 0:
		c := -math.Log(x[0]/m.socRef) / (theta[0] * theta[0])
		for k := range q {
			q[k] *= c
		}
	case 1:
		c := -(1/x[1] - 1/m.tRef)
		for k := range q {
			q[k] *= c
		}
	case 2:
		logEnd := math.Log(m.tEnd * secondsPerDay)
		for k, day := range m.times {
			q[k] *= -(logEnd - math.Log(day*secondsPerDay))
		}
	default:
		for k := range q {
			q[k] = 0
		}
	}

	return q
}

// CapacityCurve returns the remaining capacity in percent of the original
// capacity on the given days.
func (m *AgingModel) CapacityCurve(theta, x, days []float64) []float64 {
	loss := m.evaluateAt(theta, x, days)
	for k := range loss {
		loss[k] = (1 - loss[k]) * 100
	}

	return loss
}
