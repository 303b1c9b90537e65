// Package uq propagates parameter uncertainty through a parametric function
// by Monte Carlo sampling.
//
// A typical flow fits theta by maximum likelihood, takes the Cramér-Rao
// lower bound as its covariance, and builds the predictive distribution at
// a design point x:
//
//	theta, _ := model.MaximumLikelihoodEstimation(x0, y, de)
//	cov, _ := model.CramerRaoLowerBound(theta, x0)
//
//	measure, _ := uq.NewMultivariateGaussian(theta, cov, nil)
//	prediction, _ := uq.NewFunctionWithUncertainty(model.Function(), measure, 1000)
//
//	upper, _ := prediction.Quantile(x, 0.9)
//
// Every query draws fresh parameter samples, so results vary from call to
// call within Monte Carlo error.
package uq
