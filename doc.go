// Package oed provides Optimal Experimental Design: choosing, before any
// data is collected, the input conditions ("design points") that estimate
// the unknown parameters of a statistical model most informatively, and
// quantifying the parameter and prediction uncertainty that results.
//
// # Features
//
// The module includes the following key features:
//
//   - Statistical models: Fisher information matrix, its determinant and the
//     Cramér-Rao lower bound for any design, plus maximum-likelihood
//     estimation (package model)
//   - Derivative-free global minimizers over box constraints: differential
//     evolution, Bayesian optimization with a Gaussian Process surrogate and
//     CMA-ES (package minimizer)
//   - Design constructors: D-optimal, Pi-optimal, point-prediction,
//     Bayesian D-optimal, Latin hypercube and uniform random designs
//     (package design)
//   - Uncertainty quantification: Monte Carlo propagation of a Gaussian
//     parameter posterior through the parametric function, with empirical
//     quantiles and histograms (package uq)
//   - Metrics and benchmarking of designs against each other (packages
//     metric and benchmark)
//
// # Interfaces
//
// The root package only declares the capability sets every component is
// written against, so implementations are interchangeable:
//
//	ParametricFunction  f(theta, x) and its partial derivatives
//	StatisticalModel    noise model wrapped around a ParametricFunction
//	Minimizer           bounded, derivative-free search
//	Experiment          an immutable design matrix with a name
//	ProbabilityMeasure  sampler over the parameter space
//
// # Designs as vectors
//
// A design of n points in d dimensions is optimized as one vector of length
// n*d with the design bounds repeated n times (see Bounds.Repeat), and is
// reshaped row-major back into an n x d matrix (see Reshape and Flatten).
//
// # Errors
//
// Invalid inputs surface as *DomainError, non-invertible Fisher information
// as *SingularMatrixError and missing optional capabilities as
// *NotSupportedError. Numerical degeneracy such as a determinant that
// underflows to zero is returned as data, not as an error.
//
// # Example
//
//	f := function.NewAgingModel()
//	m, _ := model.NewGaussianNoiseModel(model.Config{
//	    Function:    f,
//	    Sigma:       0.002,
//	    BoundsX:     oed.Bounds{Lower: []float64{0.05, 279.15}, Upper: []float64{1, 333.15}},
//	    BoundsTheta: oed.Bounds{Lower: []float64{0.01, 0, 0}, Upper: []float64{10, 10000, 1}},
//	})
//
//	de := minimizer.NewDifferentialEvolution(minimizer.DefaultDifferentialEvolutionConfig())
//
//	d, _ := design.NewDOptimal(design.Config{
//	    NumberDesigns:      5,
//	    Bounds:             m.BoundsX(),
//	    InitialTheta:       thetaHat,
//	    Model:              m,
//	    Minimizer:          de,
//	    PreviousExperiment: previous,
//	})
package oed
