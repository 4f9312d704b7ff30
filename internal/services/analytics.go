package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"autosales-dashboard/internal/dataset"
	"autosales-dashboard/internal/models"
	"autosales-dashboard/internal/report"
)

var (
	ErrAlreadyLoaded = errors.New("dataset already loaded")
	ErrNotLoaded     = errors.New("dataset not loaded")
)

// Analytics is the read-only handle every request shares. The table is set
// exactly once and all report computations run against it.
type Analytics struct {
	mu       sync.RWMutex
	table    *dataset.Table
	source   string
	loadedAt time.Time
	logger   *slog.Logger
}

func NewAnalytics() *Analytics {
	return &Analytics{
		logger: slog.Default(),
	}
}

func (a *Analytics) SetLogger(logger *slog.Logger) {
	if logger != nil {
		a.logger = logger
	}
}

// Load reads the table from src. A second call returns ErrAlreadyLoaded and
// leaves the first table in place.
func (a *Analytics) Load(ctx context.Context, src dataset.Source) error {
	a.mu.RLock()
	loaded := a.table != nil
	a.mu.RUnlock()
	if loaded {
		return ErrAlreadyLoaded
	}

	start := time.Now()
	a.logger.Info("loading dataset", "source", src.String())

	table, err := src.Load(ctx)
	if err != nil {
		return fmt.Errorf("load dataset from %s: %w", src, err)
	}

	if err := a.set(table, src.String()); err != nil {
		return err
	}

	duration := time.Since(start)
	a.logger.Info("dataset loaded",
		"records", table.Len(),
		"skipped", table.Skipped(),
		"recession_rows", table.RecessionCount(),
		"duration", duration)

	return nil
}

// SetTable installs an already built table, mainly for tests.
func (a *Analytics) SetTable(table *dataset.Table) error {
	return a.set(table, "memory")
}

func (a *Analytics) set(table *dataset.Table, source string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.table != nil {
		return ErrAlreadyLoaded
	}
	a.table = table
	a.source = source
	a.loadedAt = time.Now()
	return nil
}

func (a *Analytics) Loaded() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.table != nil
}

// Views computes the report for sel. Nothing is cached; every call
// aggregates from the table.
func (a *Analytics) Views(sel models.ReportSelection) (models.ReportView, error) {
	a.mu.RLock()
	table := a.table
	a.mu.RUnlock()

	if table == nil {
		return models.ReportView{}, ErrNotLoaded
	}

	return report.ComputeViews(table.Records(), sel)
}

func (a *Analytics) Stats() map[string]any {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.table == nil {
		return map[string]any{
			"loaded": false,
		}
	}

	years := a.table.Years()
	stats := map[string]any{
		"loaded":         true,
		"record_count":   a.table.Len(),
		"skipped_rows":   a.table.Skipped(),
		"recession_rows": a.table.RecessionCount(),
		"distinct_years": len(years),
		"source":         a.source,
		"loaded_at":      a.loadedAt.Format(time.RFC3339),
	}
	if len(years) > 0 {
		stats["first_year"] = years[0]
		stats["last_year"] = years[len(years)-1]
	}
	return stats
}
