package charts

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// cool-warm anchors at -1, 0 and +1
var (
	coolEnd = drawing.Color{R: 59, G: 76, B: 192, A: 255}
	midTone = drawing.Color{R: 221, G: 221, B: 221, A: 255}
	warmEnd = drawing.Color{R: 180, G: 4, B: 38, A: 255}
	nanTone = drawing.Color{R: 245, G: 245, B: 245, A: 255}
)

// HeatCell is one annotated square of the correlation heatmap
type HeatCell struct {
	Value      float64
	Label      string // two decimals, empty when undefined
	Background string // #rrggbb
	Foreground string
}

// Heatmap is a correlation matrix laid out for an HTML grid
type Heatmap struct {
	Columns []string
	Rows    [][]HeatCell
}

// NewHeatmap colours every coefficient of m
func NewHeatmap(m *Matrix) *Heatmap {
	h := &Heatmap{Columns: m.Columns, Rows: make([][]HeatCell, m.Size())}
	for i := range h.Rows {
		h.Rows[i] = make([]HeatCell, m.Size())
		for j := range h.Rows[i] {
			v := m.At(i, j)
			cell := HeatCell{Value: v, Background: hex(CoolWarm(v)), Foreground: "#000000"}
			if !math.IsNaN(v) {
				cell.Label = fmt.Sprintf("%.2f", v)
				if math.Abs(v) > 0.6 {
					cell.Foreground = "#ffffff"
				}
			}
			h.Rows[i][j] = cell
		}
	}
	return h
}

// CoolWarm maps a coefficient in [-1, 1] onto a diverging blue-grey-red scale
func CoolWarm(v float64) drawing.Color {
	if math.IsNaN(v) {
		return nanTone
	}
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return lerp(midTone, coolEnd, -v)
	}
	return lerp(midTone, warmEnd, v)
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

func hex(c drawing.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
