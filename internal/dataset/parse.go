package dataset

import (
	"context"
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"autosales-dashboard/internal/models"
)

const (
	batchSize  = 1000
	maxWorkers = 10
)

const (
	ColumnYear        = "Year"
	ColumnRecession   = "Recession"
	ColumnSales       = "Automobile_Sales"
	ColumnAdvertising = "Advertising_Expenditure"
	ColumnVehicleType = "Vehicle_Type"
	ColumnPrice       = "Price"
)

// RequiredColumns are the source columns every loader must provide.
var RequiredColumns = []string{
	ColumnYear,
	ColumnRecession,
	ColumnSales,
	ColumnAdvertising,
	ColumnVehicleType,
	ColumnPrice,
}

var (
	ErrEmptyDataset  = errors.New("dataset is empty")
	ErrMissingColumn = errors.New("missing required column")
	ErrMissingValue  = errors.New("missing value")
	ErrNotFinite     = errors.New("value is not a finite number")
	ErrNotNumber     = errors.New("value is not a decimal number")
	ErrNotWhole      = errors.New("value is not a whole number")
	ErrNoRecords     = errors.New("no valid records found")
)

type ParseOptions struct {
	// Strict aborts the load on the first invalid row instead of skipping it.
	Strict bool
	Logger *slog.Logger
}

func (o ParseOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// RowError describes a single source row that failed validation.
type RowError struct {
	Line   int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d: column %s: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("row %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

type rawRow struct {
	line   int
	fields map[string]string
}

// recordFields is the decode target for a raw row. Tags are the source
// column names.
type recordFields struct {
	Year                   int     `mapstructure:"Year"`
	Recession              int     `mapstructure:"Recession"`
	AutomobileSales        float64 `mapstructure:"Automobile_Sales"`
	AdvertisingExpenditure float64 `mapstructure:"Advertising_Expenditure"`
	VehicleType            string  `mapstructure:"Vehicle_Type"`
	Price                  float64 `mapstructure:"Price"`
}

// Parse reads a CSV document with a header row and returns the validated
// table.
func Parse(ctx context.Context, r io.Reader, opts ParseOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	index, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	rows := make([]rawRow, 0, batchSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil && !stderrors.Is(err, csv.ErrFieldCount) {
			return nil, errors.Wrap(err, "read csv")
		}
		line, _ := reader.FieldPos(0)
		if err != nil {
			rowErr := &RowError{Line: line, Err: err}
			if opts.Strict {
				return nil, rowErr
			}
			opts.logger().Warn("skipping malformed row", "error", rowErr)
			rows = append(rows, rawRow{line: line})
			continue
		}

		fields := make(map[string]string, len(index))
		for name, pos := range index {
			fields[name] = record[pos]
		}
		rows = append(rows, rawRow{line: line, fields: fields})
	}

	return decodeRows(ctx, rows, opts)
}

func columnIndex(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")] = i
	}

	index := make(map[string]int, len(RequiredColumns))
	var missing []string
	for _, col := range RequiredColumns {
		pos, ok := positions[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		index[col] = pos
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrMissingColumn, "schema mismatch (%s)", strings.Join(missing, ", "))
	}
	return index, nil
}

// decodeRows validates raw rows in parallel batches while keeping source
// order. Rows with a nil field map were already rejected by the reader and
// only count as skipped.
func decodeRows(ctx context.Context, rows []rawRow, opts ParseOptions) (*Table, error) {
	table := &Table{records: make([]models.SalesRecord, 0, len(rows))}

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		records, errs, err := processBatch(ctx, rows[start:end])
		if err != nil {
			return nil, err
		}

		for i, rowErr := range errs {
			if rowErr == nil {
				table.records = append(table.records, records[i])
				continue
			}
			if opts.Strict {
				return nil, rowErr
			}
			if rows[start+i].fields != nil {
				opts.logger().Warn("skipping invalid row", "error", rowErr)
			}
			table.skipped++
		}
	}

	if len(table.records) == 0 {
		return nil, ErrNoRecords
	}
	return table, nil
}

func processBatch(ctx context.Context, batch []rawRow) ([]models.SalesRecord, []error, error) {
	records := make([]models.SalesRecord, len(batch))
	errs := make([]error, len(batch))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	for i, row := range batch {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if row.fields == nil {
				errs[i] = &RowError{Line: row.line, Err: csv.ErrFieldCount}
				return nil
			}
			records[i], errs[i] = decodeRow(row)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return records, errs, nil
}

func decodeRow(row rawRow) (models.SalesRecord, error) {
	trimmed := make(map[string]string, len(row.fields))
	for _, col := range RequiredColumns {
		value := strings.TrimSpace(row.fields[col])
		if value == "" {
			return models.SalesRecord{}, &RowError{Line: row.line, Column: col, Err: ErrMissingValue}
		}
		trimmed[col] = value
	}

	var f recordFields
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: numberHook,
		Result:     &f,
	})
	if err != nil {
		return models.SalesRecord{}, &RowError{Line: row.line, Err: err}
	}
	for _, col := range RequiredColumns {
		if err := dec.Decode(map[string]string{col: trimmed[col]}); err != nil {
			return models.SalesRecord{}, &RowError{Line: row.line, Column: col, Err: errors.Wrapf(numberErr(col), "%q", trimmed[col])}
		}
	}

	for col, v := range map[string]float64{
		ColumnSales:       f.AutomobileSales,
		ColumnAdvertising: f.AdvertisingExpenditure,
		ColumnPrice:       f.Price,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return models.SalesRecord{}, &RowError{Line: row.line, Column: col, Err: ErrNotFinite}
		}
	}

	period, err := models.PeriodFor(f.Recession)
	if err != nil {
		return models.SalesRecord{}, &RowError{Line: row.line, Column: ColumnRecession, Err: err}
	}

	return models.SalesRecord{
		Year:                   f.Year,
		Recession:              f.Recession,
		AutomobileSales:        f.AutomobileSales,
		AdvertisingExpenditure: f.AdvertisingExpenditure,
		VehicleType:            f.VehicleType,
		Price:                  f.Price,
		Period:                 period,
	}, nil
}

// numberHook parses numeric columns as plain base-10 text. Integer columns
// also take whole decimals such as "1.0"; base prefixes like 0x are refused.
func numberHook(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.String {
		return data, nil
	}
	s := data.(string)

	switch to {
	case reflect.Int, reflect.Int64:
		return parseWhole(s)
	case reflect.Float64:
		if strings.ContainsAny(s, "xX_") {
			return nil, ErrNotNumber
		}
		return strconv.ParseFloat(s, 64)
	}
	return data, nil
}

func parseWhole(s string) (int64, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	whole, frac, ok := strings.Cut(s, ".")
	if !ok || frac == "" || strings.Trim(frac, "0") != "" {
		return 0, ErrNotWhole
	}
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrNotWhole
	}
	return n, nil
}

func numberErr(col string) error {
	if col == ColumnYear || col == ColumnRecession {
		return ErrNotWhole
	}
	return ErrNotNumber
}
