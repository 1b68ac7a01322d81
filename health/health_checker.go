// Package health provides health checking functionality for the medicines frontend.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/giygas/medicines-web/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	tableStore      interfaces.TableStore
	refreshInterval time.Duration
}

// NewHealthChecker creates a new health checker with injected dependencies
func NewHealthChecker(tableStore interfaces.TableStore, refreshInterval time.Duration) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		tableStore:      tableStore,
		refreshInterval: refreshInterval,
	}
}

// HealthCheck returns HTTP-specific health data.
// Thresholds are expressed in refresh intervals so they follow the configuration.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	snapshot := h.tableStore.Snapshot()
	isUpdating := h.tableStore.InFlight()
	lastRefreshFailed := snapshot.LoadError != ""

	var dataAge time.Duration
	if snapshot.Loaded {
		dataAge = time.Since(snapshot.LastUpdated)
	}

	switch {
	case !snapshot.Loaded:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case lastRefreshFailed && dataAge > 3*h.refreshInterval:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case lastRefreshFailed || dataAge > 2*h.refreshInterval:
		status = "degraded"
		httpStatus = http.StatusOK

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":         formatTime(snapshot.LastUpdated),
		"data_age_minutes":    math.Round(dataAge.Minutes()*10) / 10,
		"rows":                len(snapshot.Table.Rows),
		"is_updating":         isUpdating,
		"last_refresh_failed": lastRefreshFailed,
		"next_update":         h.CalculateNextUpdate().Format(time.RFC3339),
	}
	if lastRefreshFailed {
		data["last_error"] = snapshot.LoadError
	}
	if startTime := h.tableStore.GetServerStartTime(); !startTime.IsZero() {
		data["uptime_seconds"] = math.Round(time.Since(startTime).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh time.
// Refreshes run one interval after the last attempt; a missed one is due now.
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := time.Now()

	lastAttempt := h.tableStore.Snapshot().LastAttempt
	if lastAttempt.IsZero() {
		return now.Add(h.refreshInterval)
	}

	next := lastAttempt.Add(h.refreshInterval)
	if next.Before(now) {
		return now
	}
	return next
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
