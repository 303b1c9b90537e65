package metric

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Plot draws one bar per design for the component-th value of results.
// When baseline is not nil it holds one reference value per result (e.g.
// the square root of the Cramér-Rao lower bound for a standard deviation),
// drawn as a marker over the bar.
func Plot(title string, results []Result, component int, baseline []float64) (*plot.Plot, error) {
	if len(results) == 0 {
		return nil, errors.New("metric: nothing to plot")
	}

	if baseline != nil && len(baseline) != len(results) {
		return nil, fmt.Errorf("metric: %d baseline values for %d designs", len(baseline), len(results))
	}

	values := make(plotter.Values, len(results))
	names := make([]string, len(results))

	for i, r := range results {
		if component < 0 || component >= len(r.Values) {
			return nil, fmt.Errorf("metric: %s has no component %d", r.Design, component)
		}

		values[i] = r.Values[component]
		names[i] = r.Design
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = fmt.Sprintf("component %d", component)

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return nil, fmt.Errorf("metric: bar chart: %w", err)
	}

	p.Add(bars)
	p.NominalX(names...)

	if baseline != nil {
		xys := make(plotter.XYs, len(baseline))
		for i, v := range baseline {
			xys[i].X = float64(i)
			xys[i].Y = v
		}

		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("metric: baseline: %w", err)
		}

		scatter.GlyphStyle.Shape = draw.CrossGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(5)

		p.Add(scatter)
		p.Legend.Add("baseline", scatter)
	}

	return p, nil
}

// SavePlot writes Plot(title, results, component, baseline) to path.
func SavePlot(path, title string, results []Result, component int, baseline []float64) error {
	p, err := Plot(title, results, component, baseline)
	if err != nil {
		return err
	}

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("metric: save plot: %w", err)
	}

	return nil
}
