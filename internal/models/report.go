package models

// YearValue is one row of a grouped-by-year aggregate.
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

type ChartKind string

const (
	ChartLine    ChartKind = "line"
	ChartBar     ChartKind = "bar"
	ChartScatter ChartKind = "scatter"
)

type ChartPoint struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size,omitempty"`
}

type ChartSeries struct {
	Name   string       `json:"name"`
	Points []ChartPoint `json:"points"`
}

type ChartSpec struct {
	Kind   ChartKind     `json:"kind"`
	Title  string        `json:"title"`
	XLabel string        `json:"x_label"`
	YLabel string        `json:"y_label"`
	Series []ChartSeries `json:"series"`
}

// PointCount sums the points of every series.
func (c ChartSpec) PointCount() int {
	n := 0
	for _, s := range c.Series {
		n += len(s.Points)
	}
	return n
}

type ReportView struct {
	Selection ReportSelection `json:"selection"`
	Message   string          `json:"message"`
	Chart1    ChartSpec       `json:"chart1"`
	Chart2    ChartSpec       `json:"chart2"`
}

// Chart returns the chart at the 1-based index used by the page layout.
func (v ReportView) Chart(index int) (ChartSpec, bool) {
	switch index {
	case 1:
		return v.Chart1, true
	case 2:
		return v.Chart2, true
	default:
		return ChartSpec{}, false
	}
}
