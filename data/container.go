// Package data provides thread-safe storage of the rendered medicines table.
// Readers never block: every applied refresh swaps a complete immutable state.
// Writers are ordered by fetch tokens so that only the newest refresh is shown.
package data

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/giygas/medicines-web/interfaces"
	"github.com/giygas/medicines-web/logging"
	"github.com/giygas/medicines-web/presenter"
)

// Compile-time check to ensure TableContainer implements TableStore
var _ interfaces.TableStore = (*TableContainer)(nil)

// tableState is never mutated after being stored
type tableState struct {
	table       presenter.RenderedTable
	loadError   string
	lastUpdated time.Time
	lastAttempt time.Time
	token       uint64
	loaded      bool
}

// TableContainer holds the table with an atomic pointer for zero-downtime updates
type TableContainer struct {
	state           atomic.Value // *tableState
	latestToken     atomic.Uint64
	applyMu         sync.Mutex
	serverStartTime atomic.Value // time.Time
}

// NewTableContainer creates a container with nothing loaded yet
func NewTableContainer() *TableContainer {
	tc := &TableContainer{}
	tc.state.Store(&tableState{})
	tc.serverStartTime.Store(time.Time{})
	return tc
}

func (tc *TableContainer) load() *tableState {
	if v := tc.state.Load(); v != nil {
		if state, ok := v.(*tableState); ok {
			return state
		}
	}

	logging.Warn("Table state is empty or invalid")
	return &tableState{}
}

// BeginFetch issues the token of a new refresh. Tokens strictly increase.
func (tc *TableContainer) BeginFetch() uint64 {
	return tc.latestToken.Add(1)
}

// ApplyTable stores a successfully rendered table and clears any previous error.
// It returns false, leaving the container untouched, when a newer fetch has begun.
func (tc *TableContainer) ApplyTable(token uint64, table presenter.RenderedTable) bool {
	tc.applyMu.Lock()
	defer tc.applyMu.Unlock()

	if token != tc.latestToken.Load() {
		return false
	}

	now := time.Now()
	tc.state.Store(&tableState{
		table:       table,
		lastUpdated: now,
		lastAttempt: now,
		token:       token,
		loaded:      true,
	})
	return true
}

// ApplyError records a failed refresh. The rows are cleared so a stale table is never
// shown under an error, but the time of the last success is kept for health checks.
func (tc *TableContainer) ApplyError(token uint64, message string) bool {
	tc.applyMu.Lock()
	defer tc.applyMu.Unlock()

	if token != tc.latestToken.Load() {
		return false
	}

	previous := tc.load()
	tc.state.Store(&tableState{
		loadError:   message,
		lastUpdated: previous.lastUpdated,
		lastAttempt: time.Now(),
		token:       token,
		loaded:      previous.loaded,
	})
	return true
}

// Snapshot returns the current state as one consistent value
func (tc *TableContainer) Snapshot() interfaces.TableSnapshot {
	state := tc.load()
	return interfaces.TableSnapshot{
		Table:       state.table,
		LoadError:   state.loadError,
		LastUpdated: state.lastUpdated,
		LastAttempt: state.lastAttempt,
		Token:       state.token,
		Loaded:      state.loaded,
	}
}

// GetLastUpdated returns the time of the last successful refresh
func (tc *TableContainer) GetLastUpdated() time.Time {
	return tc.load().lastUpdated
}

// IsLoaded returns true once a refresh has succeeded
func (tc *TableContainer) IsLoaded() bool {
	return tc.load().loaded
}

// InFlight returns true while the newest issued fetch has not been applied
func (tc *TableContainer) InFlight() bool {
	return tc.latestToken.Load() != tc.load().token
}

// SetServerStartTime sets the server start time
func (tc *TableContainer) SetServerStartTime(startTime time.Time) {
	tc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (tc *TableContainer) GetServerStartTime() time.Time {
	if v := tc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}
