package report

import (
	"fmt"
	"image/color"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/weiihann/wavebench/harness"
)

// Chart renders a bar chart of mean times, in milliseconds, for the
// successful results of one operation. The image format follows the
// extension of path (png, svg, pdf, ...).
func Chart(results []harness.Result, operation, path string) error {
	var (
		values plotter.Values
		labels []string
	)

	for _, r := range results {
		if !r.OK() || r.Operation != operation {
			continue
		}

		values = append(values, r.Mean*1e3)
		labels = append(labels, r.Library+"\n"+filepath.Base(r.File))
	}

	if len(values) == 0 {
		return fmt.Errorf("no successful %s results to chart", operation)
	}

	p := plot.New()
	p.Title.Text = operation
	p.Y.Label.Text = "mean (ms)"

	bars, err := plotter.NewBarChart(values, vg.Points(20))
	if err != nil {
		return fmt.Errorf("build bar chart: %w", err)
	}
	bars.Color = color.RGBA{R: 66, G: 133, B: 244, A: 255}
	bars.LineStyle.Width = vg.Length(0)

	p.Add(bars, plotter.NewGrid())
	p.NominalX(labels...)

	width := vg.Length(len(values))*1.5*vg.Centimeter + 4*vg.Centimeter
	if err := p.Save(width, 10*vg.Centimeter, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}

	return nil
}
