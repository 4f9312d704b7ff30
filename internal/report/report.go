// Package report turns the sales table into the two canned dashboard views.
// Everything here is a pure function of its inputs; views are recomputed on
// every call and never cached.
package report

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"autosales-dashboard/internal/models"
)

const (
	MessageRecession = "Displaying statistics during Recession period"
	MessageYearly    = "Displaying Yearly Automobile Statistics"
)

const (
	labelYear        = "Year"
	labelSales       = "Automobile_Sales"
	labelAdvertising = "Advertising_Expenditure"
	labelPrice       = "Price"
)

// ComputeViews builds the summary message and both charts for a selection.
func ComputeViews(records []models.SalesRecord, sel models.ReportSelection) (models.ReportView, error) {
	switch sel {
	case models.ReportRecession:
		recession := FilterRecession(records)
		return models.ReportView{
			Selection: sel,
			Message:   MessageRecession,
			Chart1: lineChart("Total Automobile Sales During Recession", labelSales,
				SumByYear(recession, sales)),
			Chart2: scatterChart("Ad Spend vs Sales (Recession Period)", recession),
		}, nil

	case models.ReportYearly:
		return models.ReportView{
			Selection: sel,
			Message:   MessageYearly,
			Chart1:    lineChart("Yearly Automobile Sales", labelSales, SumByYear(records, sales)),
			Chart2: barChart("Average Vehicle Price by Year", labelPrice,
				MeanByYear(records, price)),
		}, nil

	default:
		return models.ReportView{}, fmt.Errorf("%w: %q", models.ErrUnknownSelection, sel)
	}
}

func sales(r models.SalesRecord) float64 { return r.AutomobileSales }
func price(r models.SalesRecord) float64 { return r.Price }

// FilterRecession keeps rows whose recession flag is set, in source order.
func FilterRecession(records []models.SalesRecord) []models.SalesRecord {
	out := make([]models.SalesRecord, 0, len(records))
	for _, r := range records {
		if r.InRecession() {
			out = append(out, r)
		}
	}
	return out
}

// SumByYear returns one entry per distinct year, ascending.
func SumByYear(records []models.SalesRecord, value func(models.SalesRecord) float64) []models.YearValue {
	sums := make(map[int]float64)
	for _, r := range records {
		sums[r.Year] += value(r)
	}

	out := make([]models.YearValue, 0, len(sums))
	for year, sum := range sums {
		out = append(out, models.YearValue{Year: year, Value: sum})
	}
	sortByYear(out)
	return out
}

// MeanByYear returns the per-year arithmetic mean, ascending by year.
// Accumulation is done in decimal so currency columns do not drift.
func MeanByYear(records []models.SalesRecord, value func(models.SalesRecord) float64) []models.YearValue {
	type acc struct {
		sum   decimal.Decimal
		count int64
	}
	groups := make(map[int]*acc)
	for _, r := range records {
		g, ok := groups[r.Year]
		if !ok {
			g = &acc{sum: decimal.Zero}
			groups[r.Year] = g
		}
		g.sum = g.sum.Add(decimal.NewFromFloat(value(r)))
		g.count++
	}

	out := make([]models.YearValue, 0, len(groups))
	for year, g := range groups {
		mean := g.sum.Div(decimal.NewFromInt(g.count))
		out = append(out, models.YearValue{Year: year, Value: mean.InexactFloat64()})
	}
	sortByYear(out)
	return out
}

func sortByYear(values []models.YearValue) {
	slices.SortFunc(values, func(a, b models.YearValue) int {
		return a.Year - b.Year
	})
}

func yearPoints(values []models.YearValue) []models.ChartPoint {
	points := make([]models.ChartPoint, 0, len(values))
	for _, v := range values {
		points = append(points, models.ChartPoint{X: float64(v.Year), Y: v.Value})
	}
	return points
}

func lineChart(title, yLabel string, values []models.YearValue) models.ChartSpec {
	return models.ChartSpec{
		Kind:   models.ChartLine,
		Title:  title,
		XLabel: labelYear,
		YLabel: yLabel,
		Series: []models.ChartSeries{{Name: yLabel, Points: yearPoints(values)}},
	}
}

func barChart(title, yLabel string, values []models.YearValue) models.ChartSpec {
	return models.ChartSpec{
		Kind:   models.ChartBar,
		Title:  title,
		XLabel: labelYear,
		YLabel: yLabel,
		Series: []models.ChartSeries{{Name: yLabel, Points: yearPoints(values)}},
	}
}

// scatterChart keeps row granularity: one series per vehicle type in order
// of first appearance, point size proportional to sales.
func scatterChart(title string, records []models.SalesRecord) models.ChartSpec {
	series := make([]models.ChartSeries, 0)
	byType := make(map[string]int)
	for _, r := range records {
		idx, ok := byType[r.VehicleType]
		if !ok {
			idx = len(series)
			byType[r.VehicleType] = idx
			series = append(series, models.ChartSeries{Name: r.VehicleType, Points: make([]models.ChartPoint, 0)})
		}
		series[idx].Points = append(series[idx].Points, models.ChartPoint{
			X:    r.AdvertisingExpenditure,
			Y:    r.AutomobileSales,
			Size: r.AutomobileSales,
		})
	}

	return models.ChartSpec{
		Kind:   models.ChartScatter,
		Title:  title,
		XLabel: labelAdvertising,
		YLabel: labelSales,
		Series: series,
	}
}
