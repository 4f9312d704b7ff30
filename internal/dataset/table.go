// Package dataset loads the historical automobile sales table and validates
// every row before it is handed to the report layer.
package dataset

import (
	"slices"

	"autosales-dashboard/internal/models"
)

// Table is the immutable in-memory sales table. It is built once by a
// Source and only ever read afterwards.
type Table struct {
	records []models.SalesRecord
	skipped int
}

// NewTable validates records, derives their Period and returns a table that
// owns a private copy of them.
func NewTable(records []models.SalesRecord) (*Table, error) {
	owned := make([]models.SalesRecord, len(records))
	for i, r := range records {
		period, err := models.PeriodFor(r.Recession)
		if err != nil {
			return nil, &RowError{Line: i + 1, Column: ColumnRecession, Err: err}
		}
		r.Period = period
		owned[i] = r
	}
	return &Table{records: owned}, nil
}

func (t *Table) Len() int {
	return len(t.records)
}

// Skipped reports how many source rows were dropped by validation.
func (t *Table) Skipped() int {
	return t.skipped
}

// Records returns a copy of the rows so callers cannot mutate the table.
func (t *Table) Records() []models.SalesRecord {
	return slices.Clone(t.records)
}

func (t *Table) RecessionCount() int {
	n := 0
	for _, r := range t.records {
		if r.InRecession() {
			n++
		}
	}
	return n
}

// Years returns the distinct years in ascending order.
func (t *Table) Years() []int {
	years := make([]int, 0)
	seen := make(map[int]struct{})
	for _, r := range t.records {
		if _, ok := seen[r.Year]; ok {
			continue
		}
		seen[r.Year] = struct{}{}
		years = append(years, r.Year)
	}
	slices.Sort(years)
	return years
}
