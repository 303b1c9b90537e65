// Package design constructs experimental designs.
//
// A design is an ordered set of design points, stored as an n x d matrix
// with one point per row. Optimization-based constructors search over a
// flattened n·d vector with the single-point bounds repeated n times, and
// reshape the minimizer's answer row-major.
//
// # Constructors
//
//   - NewDOptimal: maximizes the determinant of the Fisher information matrix
//   - NewBayesianDOptimal: maximizes the mean log-determinant over samples of
//     a prior on the parameters
//   - NewPiOptimal: minimizes one diagonal entry of the Cramér-Rao lower bound
//   - NewPointPrediction: the single point where the prediction quantile
//     spread is widest
//   - NewRandom, NewLatinHypercube: space-filling baselines
//
// Optimization designs take a previous experiment into account and return
// the previous points followed by the new ones. Point prediction returns
// only the new point.
//
// All optimization designs are locally optimal: they are evaluated at a
// fixed parameter guess (InitialTheta), typically a maximum-likelihood
// estimate from a pilot experiment.
package design
