package charts

import (
	"fmt"
	"io"
	"math"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const kdePoints = 200

var columnColors = map[string]string{
	"age":         "add8e6", // lightblue
	"monthly_inc": "008000", // green
}

// ColumnColor returns the bar colour used for a column's distribution chart
func ColumnColor(column string) drawing.Color {
	if hex, ok := columnColors[column]; ok {
		return drawing.ColorFromHex(hex)
	}
	return drawing.ColorFromHex("4682b4")
}

// Distribution is everything needed to draw one histogram with its KDE curve
type Distribution struct {
	Column string    `json:"column"`
	Title  string    `json:"title"`
	Count  int       `json:"count"`
	Bins   []Bin     `json:"bins"`
	KDEX   []float64 `json:"kde_x,omitempty"`
	KDEY   []float64 `json:"kde_y,omitempty"`
}

// NewDistribution bins the values and fits the density curve
func NewDistribution(column, title string, values []float64) (*Distribution, error) {
	if len(values) == 0 {
		return nil, ErrNoNumericData
	}
	d := &Distribution{Column: column, Title: title, Count: len(values), Bins: Histogram(values, 0)}
	width := d.Bins[0].Hi - d.Bins[0].Lo
	d.KDEX, d.KDEY = KDE(values, kdePoints, float64(len(values))*width)
	return d, nil
}

// RenderPNG draws the histogram as filled bars with the KDE line on top
func (d *Distribution) RenderPNG(w io.Writer) error {
	color := ColumnColor(d.Column)

	xLo, xHi := d.Bins[0].Lo, d.Bins[len(d.Bins)-1].Hi
	// go-chart divides by the axis span, so plot in half units when it overflows
	xScale, xName := 1.0, d.Column
	if math.IsInf(xHi-xLo, 0) {
		xScale, xName = 0.5, d.Column+" (x0.5)"
	}

	// bars as one closed step outline filled down to zero
	var xs, ys []float64
	maxY := 0.0
	for _, b := range d.Bins {
		lo, hi := b.Lo*xScale, b.Hi*xScale
		xs = append(xs, lo, lo, hi, hi)
		ys = append(ys, 0, b.Count, b.Count, 0)
		if b.Count > maxY {
			maxY = b.Count
		}
	}
	for _, y := range d.KDEY {
		if y > maxY {
			maxY = y
		}
	}
	if maxY == 0 {
		maxY = 1
	}

	series := []chart.Series{
		chart.ContinuousSeries{
			Name:    "count",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color.WithAlpha(255),
				StrokeWidth: 1,
				FillColor:   color.WithAlpha(160),
			},
		},
	}
	if len(d.KDEX) > 0 {
		series = append(series, chart.ContinuousSeries{
			Name:    "density",
			XValues: scaled(d.KDEX, xScale),
			YValues: d.KDEY,
			Style: chart.Style{
				StrokeColor: color.WithAlpha(255),
				StrokeWidth: 2,
			},
		})
	}

	ch := chart.Chart{
		Title:      d.Title,
		Width:      640,
		Height:     400,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  xName,
			Range: &chart.ContinuousRange{Min: xLo * xScale, Max: xHi * xScale},
		},
		YAxis: chart.YAxis{
			Name:  "Count",
			Range: &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Series: series,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render %s distribution: %w", d.Column, err)
	}
	return nil
}

func scaled(values []float64, k float64) []float64 {
	if k == 1 {
		return values
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v * k
	}
	return out
}
