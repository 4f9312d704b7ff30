// Package charts renders chart specifications to SVG on the server, for
// clients without JavaScript and for the report command.
package charts

import (
	"io"
	"math"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"autosales-dashboard/internal/models"
)

const (
	DefaultWidth  = 900
	DefaultHeight = 450

	minDot = 3.0
	maxDot = 14.0
)

var palette = []drawing.Color{
	drawing.ColorFromHex("636efa"),
	drawing.ColorFromHex("ef553b"),
	drawing.ColorFromHex("00cc96"),
	drawing.ColorFromHex("ab63fa"),
	drawing.ColorFromHex("ffa15a"),
	drawing.ColorFromHex("19d3f3"),
	drawing.ColorFromHex("ff6692"),
	drawing.ColorFromHex("b6e880"),
}

func colorAt(i int) drawing.Color {
	return palette[i%len(palette)]
}

type Options struct {
	Width  int
	Height int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// RenderSVG writes spec as an SVG document. Charts without points render as
// empty axes so the page layout stays stable.
func RenderSVG(w io.Writer, spec models.ChartSpec, opts Options) error {
	width, height := opts.size()

	if spec.PointCount() == 0 {
		return emptyChart(spec, width, height).Render(chart.SVG, w)
	}

	switch spec.Kind {
	case models.ChartBar:
		return barChart(spec, width, height).Render(chart.SVG, w)
	default:
		return continuousChart(spec, width, height).Render(chart.SVG, w)
	}
}

func yearFormatter(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.Itoa(int(math.Round(f)))
	}
	return ""
}

func continuousChart(spec models.ChartSpec, width, height int) chart.Chart {
	series := make([]chart.Series, 0, len(spec.Series))
	xMin, xMax := math.Inf(1), math.Inf(-1)
	yMin, yMax := math.Inf(1), math.Inf(-1)

	for i, s := range spec.Series {
		if len(s.Points) == 0 {
			continue
		}
		xs := make([]float64, len(s.Points))
		ys := make([]float64, len(s.Points))
		sizes := make([]float64, len(s.Points))
		for j, p := range s.Points {
			xs[j], ys[j], sizes[j] = p.X, p.Y, p.Size
			xMin, xMax = math.Min(xMin, p.X), math.Max(xMax, p.X)
			yMin, yMax = math.Min(yMin, p.Y), math.Max(yMax, p.Y)
		}

		style := chart.Style{
			StrokeColor: colorAt(i),
			StrokeWidth: 2,
		}
		if spec.Kind == models.ChartScatter {
			style = scatterStyle(colorAt(i), sizes, maxSize(spec))
		}

		series = append(series, chart.ContinuousSeries{
			Name:    s.Name,
			Style:   style,
			XValues: xs,
			YValues: ys,
		})
	}

	xAxis := chart.XAxis{Name: spec.XLabel, Range: paddedRange(xMin, xMax)}
	if spec.Kind == models.ChartLine {
		xAxis.ValueFormatter = yearFormatter
	}

	c := chart.Chart{
		Title:  spec.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis:  xAxis,
		YAxis:  chart.YAxis{Name: spec.YLabel, Range: paddedRange(yMin, yMax)},
		Series: series,
	}
	if len(series) > 1 {
		c.Elements = []chart.Renderable{chart.Legend(&c)}
	}
	return c
}

func scatterStyle(col drawing.Color, sizes []float64, largest float64) chart.Style {
	return chart.Style{
		StrokeWidth: chart.Disabled,
		DotColor:    drawing.Color{R: col.R, G: col.G, B: col.B, A: 180},
		DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
			if largest <= 0 || index >= len(sizes) {
				return minDot
			}
			return minDot + (maxDot-minDot)*math.Max(sizes[index], 0)/largest
		},
	}
}

func maxSize(spec models.ChartSpec) float64 {
	largest := 0.0
	for _, s := range spec.Series {
		for _, p := range s.Points {
			largest = math.Max(largest, p.Size)
		}
	}
	return largest
}

// paddedRange widens degenerate ranges; go-chart refuses a zero delta.
func paddedRange(lo, hi float64) *chart.ContinuousRange {
	if lo == hi {
		pad := math.Max(math.Abs(lo)*0.05, 1)
		return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
	}
	pad := (hi - lo) * 0.05
	return &chart.ContinuousRange{Min: lo - pad, Max: hi + pad}
}

func barChart(spec models.ChartSpec, width, height int) chart.BarChart {
	bars := make([]chart.Value, 0)
	top := 0.0
	for _, s := range spec.Series {
		for _, p := range s.Points {
			bars = append(bars, chart.Value{
				Label: yearFormatter(p.X),
				Value: p.Y,
				Style: chart.Style{FillColor: colorAt(0), StrokeColor: colorAt(0)},
			})
			top = math.Max(top, p.Y)
		}
	}
	if top <= 0 {
		top = 1
	}

	barWidth := 40
	if n := len(bars); n > 0 {
		barWidth = max(4, min(40, (width-120)/n-4))
	}

	return chart.BarChart{
		Title:  spec.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth:   barWidth,
		BarSpacing: 4,
		YAxis: chart.YAxis{
			Name:  spec.YLabel,
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
}

func emptyChart(spec models.ChartSpec, width, height int) chart.Chart {
	return chart.Chart{
		Title:  spec.Title + " (no data)",
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: chart.XAxis{Name: spec.XLabel, Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		YAxis: chart.YAxis{Name: spec.YLabel, Range: &chart.ContinuousRange{Min: 0, Max: 1}},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Style:   chart.Style{Hidden: true},
				XValues: []float64{0, 1},
				YValues: []float64{0, 0},
			},
		},
	}
}
