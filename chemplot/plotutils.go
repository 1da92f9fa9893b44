package chemplot

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

//Some internal convenience functions.

// isInInt returns true if test is in container, false otherwise.
func isInInt(container []int, test int) bool {
	for _, i := range container {
		if test == i {
			return true
		}
	}
	return false
}

// Series plots each of the series in data against its index (i.e. the frame number) and saves
// the plot to filename. names, if not nil, must have a legend entry for each series.
func Series(data [][]float64, names []string, title, ylabel, filename string) error {
	if len(data) == 0 {
		return fmt.Errorf("chemplot: no data to plot")
	}
	if names != nil && len(names) != len(data) {
		return fmt.Errorf("chemplot: %d names for %d series", len(names), len(data))
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())
	for i, d := range data {
		pts := make(plotter.XYs, len(d))
		for j, v := range d {
			pts[j].X = float64(j)
			pts[j].Y = v
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("chemplot: series %d: %w", i, err)
		}
		l.Color = plotutil.Color(i)
		l.Dashes = plotutil.Dashes(i)
		p.Add(l)
		if names != nil {
			p.Legend.Add(names[i], l)
		}
	}
	return p.Save(6*vg.Inch, 4*vg.Inch, filename)
}

// Histogram plots the distribution of the values in data, in the given number of bins, and
// saves it to filename.
func Histogram(data []float64, bins int, title, xlabel, filename string) error {
	if len(data) == 0 {
		return fmt.Errorf("chemplot: no data to plot")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = "Count"
	h, err := plotter.NewHist(plotter.Values(data), bins)
	if err != nil {
		return fmt.Errorf("chemplot: %w", err)
	}
	p.Add(h)
	return p.Save(5*vg.Inch, 4*vg.Inch, filename)
}
