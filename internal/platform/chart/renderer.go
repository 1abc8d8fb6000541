// Package chart renders price time series to PNG line charts.
package chart

import (
	"bytes"
	"fmt"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Renderer draws batch charts. Rendering is deterministic for identical
// input data, modulo font library version drift.
type Renderer struct{}

// NewRenderer returns a Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderTraining draws an actual-vs-predicted line chart with time on the
// x-axis and price on the y-axis.
func (r *Renderer) RenderTraining(subject string, times []time.Time, actual, predicted []float64) ([]byte, error) {
	p := newPricePlot(subject)

	actualLine, actualPoints, err := plotter.NewLinePoints(toXYs(times, actual))
	if err != nil {
		return nil, fmt.Errorf("failed to plot actual series: %w", err)
	}
	predictedLine, predictedPoints, err := plotter.NewLinePoints(toXYs(times, predicted))
	if err != nil {
		return nil, fmt.Errorf("failed to plot predicted series: %w", err)
	}
	predictedLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(actualLine, actualPoints, predictedLine, predictedPoints)
	p.Legend.Add("Actual Price", actualLine, actualPoints)
	p.Legend.Add("Predicted Price", predictedLine, predictedPoints)

	return writePNG(p)
}

// RenderPrediction draws a predicted-only line chart.
func (r *Renderer) RenderPrediction(subject string, times []time.Time, predicted []float64) ([]byte, error) {
	p := newPricePlot(subject)

	line, points, err := plotter.NewLinePoints(toXYs(times, predicted))
	if err != nil {
		return nil, fmt.Errorf("failed to plot predicted series: %w", err)
	}
	p.Add(line, points)
	p.Legend.Add("Predicted Price", line, points)

	return writePNG(p)
}

func newPricePlot(title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Price"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02"}
	p.Legend.Top = true
	return p
}

func toXYs(times []time.Time, values []float64) plotter.XYs {
	xys := make(plotter.XYs, len(values))
	for i := range values {
		xys[i].X = float64(times[i].Unix())
		xys[i].Y = values[i]
	}
	return xys
}

func writePNG(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(12*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write chart PNG: %w", err)
	}
	return buf.Bytes(), nil
}
