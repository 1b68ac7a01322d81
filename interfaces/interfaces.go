// Package interfaces defines the core abstractions of the medicines frontend
// so the scheduler, handlers and health checks can be tested with mocks.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/giygas/medicines-web/entities"
	"github.com/giygas/medicines-web/presenter"
)

// MedicineSource is the backend holding the medicines list.
type MedicineSource interface {
	// FetchMedicines returns the raw, untrusted records in backend order
	FetchMedicines(ctx context.Context) ([]entities.MedicineRecord, error)

	// CreateMedicine forwards a creation form. A backend rejection is a result with OK false.
	CreateMedicine(ctx context.Context, request entities.CreateRequest) (*entities.CreateResult, error)
}

// TableSnapshot is a consistent view of the table store at one point in time
type TableSnapshot struct {
	Table       presenter.RenderedTable
	LoadError   string    // user facing message of the last failed refresh, "" after a success
	LastUpdated time.Time // last successful refresh
	LastAttempt time.Time // last applied refresh, successful or not
	Token       uint64    // token of the last applied refresh
	Loaded      bool      // a refresh has succeeded at least once
}

// TableStore holds the rendered table shown to users.
// Refreshes are identified by tokens: only the most recently issued token may apply
// its result, so a slow response can never overwrite a newer one.
type TableStore interface {
	BeginFetch() uint64
	ApplyTable(token uint64, table presenter.RenderedTable) bool
	ApplyError(token uint64, message string) bool

	Snapshot() TableSnapshot
	GetLastUpdated() time.Time
	IsLoaded() bool
	InFlight() bool

	SetServerStartTime(startTime time.Time)
	GetServerStartTime() time.Time
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages the periodic refresh of the medicines table.
type Scheduler interface {
	// Refresh fetches, renders and applies the list once
	Refresh(ctx context.Context) error

	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for the HTTP endpoints of the page.
type HTTPHandler interface {
	ServePage(w http.ResponseWriter, r *http.Request)
	RefreshTable(w http.ResponseWriter, r *http.Request)
	CreateMedicine(w http.ResponseWriter, r *http.Request)
	ServeTable(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, data map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled refresh time
	CalculateNextUpdate() time.Time
}

// FormValidator checks the add-medicine form before it is forwarded.
type FormValidator interface {
	// ValidateCreate returns the request to send, or an error describing the rejected field
	ValidateCreate(name, rawPrice string) (entities.CreateRequest, error)
}
