package dataset

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autosales-dashboard/internal/models"
)

const sampleCSV = `Date,Year,Month,Recession,Consumer_Confidence,Price,Advertising_Expenditure,Automobile_Sales,Vehicle_Type,City
1980-01-31,1980,Jan,1,108.24,27483.57,1558,456.0,Supperminicar,Georgia
1980-02-29,1980,Feb,1,98.75,24308.51,3048,555.9,Supperminicar,New York
1981-03-31,1981,Mar,0,107.48,28238.49,3137,620.0,Mediumfamilycar,New York
1982-04-30,1982,Apr,1,115.58,30292.31,1653,305.2,Smallfamiliycar,Illinois
`

func TestParse_ValidData(t *testing.T) {
	table, err := Parse(context.Background(), strings.NewReader(sampleCSV), ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, 4, table.Len())
	assert.Equal(t, 0, table.Skipped())
	assert.Equal(t, 3, table.RecessionCount())
	assert.Equal(t, []int{1980, 1981, 1982}, table.Years())

	records := table.Records()
	assert.Equal(t, models.SalesRecord{
		Year:                   1980,
		Recession:              1,
		AutomobileSales:        456.0,
		AdvertisingExpenditure: 1558,
		VehicleType:            "Supperminicar",
		Price:                  27483.57,
		Period:                 models.PeriodRecession,
	}, records[0])
	assert.Equal(t, models.PeriodNonRecession, records[2].Period)
}

func TestParse_PeriodMatchesRecessionFlag(t *testing.T) {
	table, err := Parse(context.Background(), strings.NewReader(sampleCSV), ParseOptions{})
	require.NoError(t, err)

	for _, r := range table.Records() {
		assert.Equal(t, r.Recession == 1, r.Period == models.PeriodRecession, "year %d", r.Year)
	}
}

func TestParse_RecordsAreCopies(t *testing.T) {
	table, err := Parse(context.Background(), strings.NewReader(sampleCSV), ParseOptions{})
	require.NoError(t, err)

	records := table.Records()
	records[0].AutomobileSales = -1

	assert.Equal(t, 456.0, table.Records()[0].AutomobileSales)
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want error
	}{
		{"empty", "", ErrEmptyDataset},
		{"missing column", "Year,Recession,Automobile_Sales,Vehicle_Type,Price\n1980,1,10,Sports,100\n", ErrMissingColumn},
		{"header only", "Year,Recession,Automobile_Sales,Advertising_Expenditure,Vehicle_Type,Price\n", ErrNoRecords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), strings.NewReader(tt.csv), ParseOptions{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_MissingColumnNamesColumn(t *testing.T) {
	_, err := Parse(context.Background(), strings.NewReader("Year,Recession\n1980,1\n"), ParseOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Advertising_Expenditure")
	assert.Contains(t, err.Error(), "Automobile_Sales")
}

const dirtyCSV = `Year,Recession,Automobile_Sales,Advertising_Expenditure,Vehicle_Type,Price
1980,1,100,10,Sports,20000
1980,2,100,10,Sports,20000
1981,0,,10,Sports,20000
1981,0,abc,10,Sports,20000
1982,0,NaN,10,Sports,20000
1983,0,50
1984,0,70,12,Executivecar,31000
`

func TestParse_LenientSkipsInvalidRows(t *testing.T) {
	table, err := Parse(context.Background(), strings.NewReader(dirtyCSV), ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, table.Len())
	assert.Equal(t, 5, table.Skipped())
	assert.Equal(t, []int{1980, 1984}, table.Years())
}

func TestParse_StrictRejectsInvalidRows(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		column  string
		wantErr error
	}{
		{"recession flag out of range", "1980,2,100,10,Sports,20000", ColumnRecession, models.ErrInvalidRecessionFlag},
		{"missing sales", "1981,0,,10,Sports,20000", ColumnSales, ErrMissingValue},
		{"not finite", "1982,0,Inf,10,Sports,20000", ColumnSales, ErrNotFinite},
		{"hex year", "0x7D0,0,100,10,Sports,20000", ColumnYear, ErrNotWhole},
		{"binary recession flag", "1980,0b1,100,10,Sports,20000", ColumnRecession, ErrNotWhole},
		{"fractional year", "1980.5,0,100,10,Sports,20000", ColumnYear, ErrNotWhole},
		{"hex float price", "1980,0,100,10,Sports,0x1p4", ColumnPrice, ErrNotNumber},
	}

	header := "Year,Recession,Automobile_Sales,Advertising_Expenditure,Vehicle_Type,Price\n"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(context.Background(), strings.NewReader(header+tt.row+"\n"), ParseOptions{Strict: true})
			require.Error(t, err)

			var rowErr *RowError
			require.ErrorAs(t, err, &rowErr)
			assert.Equal(t, 2, rowErr.Line)
			assert.Equal(t, tt.column, rowErr.Column)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParse_WholeDecimalsInIntegerColumns(t *testing.T) {
	csv := "Year,Recession,Automobile_Sales,Advertising_Expenditure,Vehicle_Type,Price\n" +
		"2001.0,1.0,100,10,Sports,20000\n" +
		"2002,0.00,50,5,Sports,21000\n"

	table, err := Parse(context.Background(), strings.NewReader(csv), ParseOptions{Strict: true})
	require.NoError(t, err)
	require.Equal(t, 2, table.Len())

	records := table.Records()
	assert.Equal(t, 2001, records[0].Year)
	assert.Equal(t, 1, records[0].Recession)
	assert.Equal(t, models.PeriodRecession, records[0].Period)
	assert.Equal(t, 0, records[1].Recession)
}

func TestParse_StrictRejectsShortRow(t *testing.T) {
	csv := "Year,Recession,Automobile_Sales,Advertising_Expenditure,Vehicle_Type,Price\n1983,0,50\n"
	_, err := Parse(context.Background(), strings.NewReader(csv), ParseOptions{Strict: true})

	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Line)
}

func TestParse_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Parse(ctx, strings.NewReader(sampleCSV), ParseOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParse_PreservesOrderAcrossBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString("Year,Recession,Automobile_Sales,Advertising_Expenditure,Vehicle_Type,Price\n")
	rows := batchSize*2 + 17
	for i := 0; i < rows; i++ {
		b.WriteString(strings.Join([]string{
			"2000", "0", strconv.Itoa(i), "1", "Sports", "100",
		}, ","))
		b.WriteString("\n")
	}

	table, err := Parse(context.Background(), strings.NewReader(b.String()), ParseOptions{})
	require.NoError(t, err)
	require.Equal(t, rows, table.Len())

	for i, r := range table.Records() {
		if r.AutomobileSales != float64(i) {
			t.Fatalf("record %d out of order: sales = %v", i, r.AutomobileSales)
		}
	}
}

func TestNewTable(t *testing.T) {
	table, err := NewTable([]models.SalesRecord{
		{Year: 2000, Recession: 1, AutomobileSales: 10},
		{Year: 2000, Recession: 0, AutomobileSales: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, models.PeriodRecession, table.Records()[0].Period)
	assert.Equal(t, models.PeriodNonRecession, table.Records()[1].Period)

	_, err = NewTable([]models.SalesRecord{{Year: 2000, Recession: 3}})
	assert.ErrorIs(t, err, models.ErrInvalidRecessionFlag)
}
