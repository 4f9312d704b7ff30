// Package scheduler runs the dashboard's periodic housekeeping jobs.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
)

// Sweeper drops per-client state that has been idle for longer than maxIdle.
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

type MaintenanceConfig struct {
	Interval time.Duration
	MaxIdle  time.Duration
}

type Maintenance struct {
	scheduler *gocron.Scheduler
	sweeper   Sweeper
	config    MaintenanceConfig
	logger    *slog.Logger
	runs      atomic.Int64
	removed   atomic.Int64
	stopOnce  sync.Once
}

func NewMaintenance(sweeper Sweeper, cfg MaintenanceConfig, logger *slog.Logger) *Maintenance {
	scheduler := gocron.NewScheduler(time.Local)
	scheduler.SingletonModeAll()

	return &Maintenance{
		scheduler: scheduler,
		sweeper:   sweeper,
		config:    cfg,
		logger:    logger,
	}
}

// Start schedules the sweep and stops the scheduler when ctx is cancelled.
func (m *Maintenance) Start(ctx context.Context) error {
	if m.config.Interval <= 0 {
		return fmt.Errorf("maintenance interval must be positive, got %v", m.config.Interval)
	}

	_, err := m.scheduler.Every(m.config.Interval).WaitForSchedule().Do(m.sweep)
	if err != nil {
		return fmt.Errorf("schedule limiter sweep: %w", err)
	}

	m.logger.Info("starting maintenance scheduler",
		"interval", m.config.Interval,
		"max_idle", m.config.MaxIdle,
	)
	m.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		m.Stop()
	}()

	return nil
}

// Stop is safe to call more than once and from several goroutines.
func (m *Maintenance) Stop() {
	m.stopOnce.Do(func() {
		m.logger.Info("stopping maintenance scheduler", "runs", m.runs.Load())
		m.scheduler.Stop()
	})
}

// Shutdown adapts Stop to the server's shutdown hook signature.
func (m *Maintenance) Shutdown(ctx context.Context) error {
	m.Stop()
	return nil
}

func (m *Maintenance) Runs() int64 {
	return m.runs.Load()
}

func (m *Maintenance) Removed() int64 {
	return m.removed.Load()
}

func (m *Maintenance) sweep() {
	removed := m.sweeper.Sweep(m.config.MaxIdle)
	m.runs.Add(1)
	m.removed.Add(int64(removed))

	if removed > 0 {
		m.logger.Debug("swept idle rate limiters", "removed", removed)
	}
}
