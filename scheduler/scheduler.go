// Package scheduler keeps the rendered medicines table fresh.
// It handles the initial load, the periodic gocron refresh and a staleness monitor,
// and is also the single place where a fetched list is rendered and stored.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/giygas/medicines-web/interfaces"
	"github.com/giygas/medicines-web/logging"
	"github.com/giygas/medicines-web/metrics"
	"github.com/giygas/medicines-web/presenter"
	"github.com/go-co-op/gocron"
)

// LoadErrorPrefix starts every user facing list load error
const LoadErrorPrefix = "Could not load medicines: "

// Compile-time check to ensure Scheduler implements Scheduler interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler handles table refreshes and health monitoring using dependency injection
type Scheduler struct {
	tableStore      interfaces.TableStore
	source          interfaces.MedicineSource
	interval        time.Duration
	monitorInterval time.Duration
	scheduler       *gocron.Scheduler

	stopMonitor chan struct{}
	stopOnce    sync.Once
}

// NewScheduler creates a new scheduler instance with injected dependencies
func NewScheduler(tableStore interfaces.TableStore, source interfaces.MedicineSource, interval time.Duration) *Scheduler {
	return &Scheduler{
		tableStore:      tableStore,
		source:          source,
		interval:        interval,
		monitorInterval: interval,
		scheduler:       gocron.NewScheduler(time.Local),
		stopMonitor:     make(chan struct{}),
	}
}

// Start loads the table once, then refreshes it every interval.
// A failed initial load is stored and logged but does not stop the server:
// the page shows the error and the next refresh may succeed.
func (s *Scheduler) Start() error {
	if err := s.Refresh(context.Background()); err != nil {
		logging.Error("Failed to perform initial medicines load", "error", err)
	}

	_, err := s.scheduler.Every(s.interval).SingletonMode().WaitForSchedule().Do(func() {
		if err := s.Refresh(context.Background()); err != nil {
			logging.Error("Failed to refresh medicines", "error", err)
		}
	})

	if err != nil {
		logging.Error("Failed to schedule refreshes", "error", err)
		return fmt.Errorf("failed to schedule refreshes: %w", err)
	}

	s.scheduler.StartAsync()

	// Start health monitoring
	s.startHealthMonitoring()

	return nil
}

// Stop stops the periodic refresh and the monitor. It is safe to call twice.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	s.stopOnce.Do(func() {
		close(s.stopMonitor)
	})
}

// Refresh fetches the list, renders it and stores the result.
// A fetch failure replaces the table with the error message. When a newer refresh
// began in the meantime, this result is dropped and Refresh returns nil.
func (s *Scheduler) Refresh(ctx context.Context) error {
	token := s.tableStore.BeginFetch()
	start := time.Now()

	records, err := s.source.FetchMedicines(ctx)
	if err != nil {
		if !s.tableStore.ApplyError(token, LoadErrorPrefix+err.Error()) {
			s.dropStale(token, "error")
			return nil
		}
		metrics.RefreshTotals.WithLabelValues("failed").Inc()
		return fmt.Errorf("failed to fetch medicines: %w", err)
	}

	table := presenter.Render(records)
	if !s.tableStore.ApplyTable(token, table) {
		s.dropStale(token, "table")
		return nil
	}

	summary := presenter.Summarize(table)
	metrics.RefreshTotals.WithLabelValues("applied").Inc()
	metrics.SetTableRows(summary.Formatted, summary.Unavailable, summary.Invalid)

	if summary.FlaggedRowsTotal > 0 {
		logging.Warn("Medicines with missing or invalid fields",
			"flagged_rows", summary.FlaggedRowsTotal,
			"unknown_names", summary.UnknownNames,
			"unavailable_prices", summary.Unavailable,
			"invalid_prices", summary.Invalid,
		)
	}

	logging.Info("Medicines table refreshed",
		"duration", time.Since(start).String(),
		"rows", summary.Rows,
		"token", token,
	)

	return nil
}

func (s *Scheduler) dropStale(token uint64, result string) {
	metrics.RefreshTotals.WithLabelValues("stale").Inc()
	logging.Debug("Dropping stale refresh result", "token", token, "result", result)
}

// startHealthMonitoring warns when the table has not been refreshed for two intervals
func (s *Scheduler) startHealthMonitoring() {
	go func() {
		ticker := time.NewTicker(s.monitorInterval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stopMonitor:
				return
			case <-ticker.C:
				s.checkStaleness()
			}
		}
	}()
}

func (s *Scheduler) checkStaleness() bool {
	if !s.tableStore.IsLoaded() {
		logging.Warn("Medicines have never been loaded successfully")
		return true
	}

	lastUpdate := s.tableStore.GetLastUpdated()
	if age := time.Since(lastUpdate); age > 2*s.interval {
		logging.Warn("Medicines table is stale", "age", age.Round(time.Second).String(), "refresh_interval", s.interval.String())
		return true
	}
	return false
}
