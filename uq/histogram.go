package uq

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultBins is the number of histogram bins.
const DefaultBins = 30

// Histogram plots the empirical predictive distribution of one output
// component at x, normalized to unit area. bins <= 0 means DefaultBins.
func (f *FunctionWithUncertainty) Histogram(x []float64, component, bins int) (*plot.Plot, error) {
	if component < 0 || component >= f.function.OutputDim() {
		return nil, fmt.Errorf("uq: component %d outside [0, %d)", component, f.function.OutputDim())
	}

	if bins <= 0 {
		bins = DefaultBins
	}

	values := sortedColumns(f.Samples(x))[component]
	if len(values) == 0 {
		return nil, fmt.Errorf("uq: no finite outputs at %v", x)
	}

	hist, err := plotter.NewHist(plotter.Values(values), bins)
	if err != nil {
		return nil, fmt.Errorf("uq: histogram: %w", err)
	}

	hist.Normalize(1)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Predictive distribution at %v", x)
	p.X.Label.Text = fmt.Sprintf("output %d", component)
	p.Y.Label.Text = "density"
	p.Add(hist)

	return p, nil
}

// SaveHistogram writes Histogram(x, component, bins) to path. The file
// extension selects the format (png, svg, pdf, ...).
func (f *FunctionWithUncertainty) SaveHistogram(path string, x []float64, component, bins int) error {
	p, err := f.Histogram(x, component, bins)
	if err != nil {
		return err
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("uq: save histogram: %w", err)
	}

	return nil
}
