// Package pipeline runs the battery calendar-aging design study end to end:
// pilot experiment, estimation, uncertainty quantification, optimized
// designs and their benchmark.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/thalesfsp/oed"
	"github.com/thalesfsp/oed/benchmark"
	"github.com/thalesfsp/oed/config"
	"github.com/thalesfsp/oed/design"
	"github.com/thalesfsp/oed/function"
	"github.com/thalesfsp/oed/metric"
	"github.com/thalesfsp/oed/model"
	"github.com/thalesfsp/oed/uq"
)

// Random stream indices, one per component.
const (
	streamNoise uint64 = iota + 1
	streamLatinHypercube
	streamRandom
	streamPilot
	streamMinimizer
	streamMeasure
	streamMetric
	streamPrior
	streamBenchmark
)

// bayesianPriorSamples is the number of prior samples of the Bayesian
// D-optimal design.
const bayesianPriorSamples = 10

// Report summarizes a run.
type Report struct {
	// InitialTheta is the estimate from the pilot experiment.
	InitialTheta []float64

	// Covariance is the Cramér-Rao lower bound of the pilot experiment at
	// InitialTheta.
	Covariance *mat.SymDense

	// QuantilePoint and UpperQuantile are the predictive upper quantile at
	// one Latin hypercube point.
	QuantilePoint []float64
	UpperQuantile []float64

	// PointPrediction is the most uncertain design point.
	PointPrediction []float64

	// Designs holds every benchmarked design.
	Designs []oed.Experiment

	// Metrics holds the results of every metric, keyed by metric name.
	Metrics map[string][]metric.Result

	// Baseline holds sqrt(diag CRLB) at the true theta per design.
	Baseline map[string][]float64
}

// Run executes the pipeline described by cfg.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	boundsX := cfg.BoundsX.Bounds()
	n := cfg.NumberDesigns

	aging := function.NewAgingModel()
	if len(cfg.Theta) != 3 {
		return nil, fmt.Errorf("pipeline: the aging model has 3 parameters, got %d", len(cfg.Theta))
	}

	statisticalModel, err := model.NewGaussianNoiseModel(model.Config{
		Function:    aging,
		Sigma:       cfg.Sigma,
		BoundsX:     boundsX,
		BoundsTheta: cfg.BoundsTheta.Bounds(),
		Src:         cfg.Source(streamNoise),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	blackBox := func(x []float64, src rand.Source) ([]float64, error) {
		return statisticalModel.RandomFrom(cfg.Theta, x, src)
	}

	minimizer := cfg.NewMinimizer(cfg.Source(streamMinimizer))

	//////
	// Baselines and pilot experiment.
	//////

	lhs, err := design.NewLatinHypercube(2*n, boundsX, cfg.Source(streamLatinHypercube))
	if err != nil {
		return nil, err
	}

	random, err := design.NewRandom(2*n, boundsX, cfg.Source(streamRandom))
	if err != nil {
		return nil, err
	}

	pilot, err := design.NewLatinHypercube(n, boundsX, cfg.Source(streamPilot))
	if err != nil {
		return nil, err
	}

	pilotY := mat.NewDense(n, aging.OutputDim(), nil)
	for i := 0; i < n; i++ {
		y, err := statisticalModel.Random(cfg.Theta, pilot.Point(i))
		if err != nil {
			return nil, err
		}

		pilotY.SetRow(i, y)
	}

	initialTheta, err := statisticalModel.MaximumLikelihoodEstimation(pilot.Experiment(), pilotY, minimizer)
	if err != nil {
		return nil, err
	}

	logger.Info("pilot estimate", zap.Float64s("theta", initialTheta))

	//////
	// Uncertainty quantification.
	//////

	covariance, err := statisticalModel.CramerRaoLowerBound(initialTheta, pilot.Experiment())
	if err != nil {
		return nil, fmt.Errorf("pipeline: covariance of the pilot estimate: %w", err)
	}

	measure, err := uq.NewMultivariateGaussian(initialTheta, covariance, cfg.Source(streamMeasure))
	if err != nil {
		return nil, err
	}

	prediction, err := uq.NewFunctionWithUncertainty(aging, measure, cfg.SampleSize)
	if err != nil {
		return nil, err
	}

	quantilePoint := lhs.Point(min(3, lhs.Len()-1))

	upper, err := prediction.Quantile(quantilePoint, design.DefaultAlpha)
	if err != nil {
		return nil, err
	}

	logger.Info("upper quantile",
		zap.Float64s("x", quantilePoint),
		zap.Float64s("quantile", upper),
	)

	if cfg.Output.Histogram != "" {
		last := aging.OutputDim() - 1
		if err := prediction.SaveHistogram(cfg.Output.Histogram, quantilePoint, last, 0); err != nil {
			return nil, err
		}
	}

	//////
	// Optimized designs.
	//////

	pointPrediction, err := design.NewPointPrediction(design.PointPredictionConfig{
		Bounds:     boundsX,
		Prediction: prediction,
		Minimizer:  minimizer,
		Alpha:      cfg.Alpha,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	designConfig := design.Config{
		NumberDesigns:      n,
		Bounds:             boundsX,
		InitialTheta:       initialTheta,
		Model:              statisticalModel,
		Minimizer:          minimizer,
		PreviousExperiment: pilot,
		Logger:             logger,
	}

	pi, err := design.NewPiOptimal(designConfig, cfg.PiIndex)
	if err != nil {
		return nil, err
	}

	dOptimal, err := design.NewDOptimal(designConfig)
	if err != nil {
		return nil, err
	}

	prior, err := uq.NewMultivariateGaussian(initialTheta, covariance, cfg.Source(streamPrior))
	if err != nil {
		return nil, err
	}

	bayesian, err := design.NewBayesianDOptimal(designConfig, prior, bayesianPriorSamples)
	if err != nil {
		return nil, err
	}

	experiments := []oed.Experiment{lhs, random, pi, dOptimal, bayesian}

	//////
	// Benchmark.
	//////

	bench, err := benchmark.New(benchmark.Config{
		Model:       statisticalModel,
		BlackBox:    blackBox,
		Experiments: experiments,
		Minimizer:   cfg.NewMinimizer,
		Repetitions: cfg.Repetitions,
		Workers:     cfg.Workers,
		Src:         cfg.Source(streamBenchmark),
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	if err := bench.Evaluate(ctx); err != nil {
		return nil, err
	}

	if cfg.Output.CSV != "" {
		if err := bench.SaveCSV(cfg.Output.CSV); err != nil {
			return nil, err
		}
	}

	baseline, err := benchmark.Baseline(statisticalModel, cfg.Theta, experiments)
	if err != nil {
		return nil, err
	}

	metrics := []metric.Metric{
		metric.DeterminantOfFisherInformationMatrix{Theta: initialTheta, Model: statisticalModel},
		metric.EstimationMeanParameterEstimations{},
		metric.StdParameterEstimations{},
		&metric.EstimationMeanError{
			Theta:             cfg.Theta,
			Model:             statisticalModel,
			NumberEvaluations: 1000,
			Src:               cfg.Source(streamMetric),
		},
		metric.KFoldCrossValidation{Model: statisticalModel, Minimizer: minimizer, NumberSplits: cfg.KFoldSplits},
	}

	report := &Report{
		InitialTheta:    initialTheta,
		Covariance:      covariance,
		QuantilePoint:   quantilePoint,
		UpperQuantile:   upper,
		PointPrediction: pointPrediction.Point(0),
		Designs:         experiments,
		Metrics:         map[string][]metric.Result{},
		Baseline:        baseline,
	}

	inputs := bench.Inputs()

	for _, m := range metrics {
		results, err := metric.Evaluate(m, inputs)
		if err != nil {
			return nil, err
		}

		report.Metrics[m.Name()] = results
	}

	if cfg.Output.Plots != "" {
		if err := savePlots(cfg.Output.Plots, report); err != nil {
			return nil, err
		}
	}

	return report, nil
}

// savePlots writes one plot per parameter of the standard deviation metric,
// with the Cramér-Rao baseline.
func savePlots(dir string, report *Report) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	name := metric.StdParameterEstimations{}.Name()
	results := report.Metrics[name]

	for p := range report.InitialTheta {
		baseline := make([]float64, len(results))
		for i, r := range results {
			baseline[i] = report.Baseline[r.Design][p]

			// Singular designs have no bound to draw.
			if math.IsInf(baseline[i], 0) {
				baseline[i] = 0
			}
		}

		path := filepath.Join(dir, fmt.Sprintf("std_theta_%d.png", p))
		if err := metric.SavePlot(path, fmt.Sprintf("%s, theta_%d", name, p), results, p, baseline); err != nil {
			return err
		}
	}

	return nil
}
