// Package visualize renders fitted SEFR models as charts.
package visualize

import (
	"fmt"

	"github.com/YuminosukeSato/sefr/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// WeightSeries is the weight vector of one binary classifier.
type WeightSeries struct {
	Name    string
	Weights []float64
}

// WeightsChart draws one group of bars per feature and one bar per series,
// so the weights of all per-label classifiers can be compared side by side.
// featureNames may be nil; features are then named f0, f1, ...
func WeightsChart(title string, series []WeightSeries, featureNames []string) (*plot.Plot, error) {
	if len(series) == 0 {
		return nil, errors.NewValueError("WeightsChart", "no series to plot")
	}
	nFeatures := len(series[0].Weights)
	for _, s := range series {
		if len(s.Weights) != nFeatures {
			return nil, errors.NewDimensionError("WeightsChart", nFeatures, len(s.Weights), 1)
		}
	}
	if featureNames == nil {
		featureNames = make([]string, nFeatures)
		for j := range featureNames {
			featureNames[j] = fmt.Sprintf("f%d", j)
		}
	}
	if len(featureNames) != nFeatures {
		return nil, errors.NewDimensionError("WeightsChart", nFeatures, len(featureNames), 1)
	}

	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = "weight"
	p.Y.Min, p.Y.Max = -1, 1
	p.Legend.Top = true

	width := vg.Points(40 / float64(len(series)))
	for i, s := range series {
		bars, err := plotter.NewBarChart(plotter.Values(s.Weights), width)
		if err != nil {
			return nil, errors.Wrapf(err, "bar chart for %s", s.Name)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(i)
		bars.Offset = width * vg.Length(float64(i)-float64(len(series)-1)/2)
		p.Add(bars)
		p.Legend.Add(s.Name, bars)
	}
	p.Add(plotter.NewGrid())
	p.NominalX(featureNames...)
	return p, nil
}

// SaveWeightsChart renders WeightsChart to path. The image format follows
// the file extension (.png, .svg, .pdf, ...).
func SaveWeightsChart(path, title string, series []WeightSeries, featureNames []string) error {
	p, err := WeightsChart(title, series, featureNames)
	if err != nil {
		return err
	}
	width := vg.Length(len(series[0].Weights)) * 1.2 * vg.Inch
	if width < 4*vg.Inch {
		width = 4 * vg.Inch
	}
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save chart %s", path)
	}
	return nil
}
