// Package minimizer provides bounded, derivative-free global minimizers that
// satisfy oed.Minimizer.
//
// # Minimizers
//
// 1. DifferentialEvolution:
//
//   - Population-based stochastic search (DE/best/1/bin with dithering)
//
//   - Latin hypercube initialization, optional Nelder-Mead polish
//
//   - Default choice for every design constructor and for
//     maximum-likelihood estimation
//
//     de := NewDifferentialEvolution(DefaultDifferentialEvolutionConfig())
//
// 2. BayesianOptimizer:
//
//   - Gaussian Process surrogate plus an acquisition function (UCB,
//     Probability of Improvement, Expected Improvement, Thompson Sampling)
//
//   - Few objective evaluations, for expensive objectives in low dimension
//
//     config := DefaultBayesianConfig()
//     config.AcquisitionFunc = ExpectedImprovement
//     bo := NewBayesianOptimizer(config)
//
// 3. CMAES:
//
//   - gonum's covariance matrix adaptation evolution strategy with restarts
//
//   - Box constraints enforced by projection plus a quadratic penalty
//
// All minimizers only evaluate the objective inside the bounds, pin
// coordinates whose lower and upper bounds coincide, and replace non-finite
// objective values with oed.Penalty.
//
// # Reproducibility
//
// Every minimizer takes a rand.Source. Each Minimize call derives its own
// random stream from it, so concurrent calls are safe and a fixed seed
// makes a sequence of calls reproducible.
//
// # Progress
//
// DifferentialEvolution and BayesianOptimizer send oed.ProgressUpdate values
// on an optional channel. Updates are dropped when the channel is full.
package minimizer
