// Package handlers provides the HTTP handlers of the medicines page: the server-side
// rendered table, the refresh action, the add-medicine form and the JSON endpoints.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"runtime"
	"time"

	"github.com/giygas/medicines-web/interfaces"
	"github.com/giygas/medicines-web/logging"
	"github.com/giygas/medicines-web/presenter"
	"github.com/giygas/medicines-web/validation"
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	tableStore    interfaces.TableStore
	scheduler     interfaces.Scheduler
	source        interfaces.MedicineSource
	validator     interfaces.FormValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(tableStore interfaces.TableStore, scheduler interfaces.Scheduler, source interfaces.MedicineSource,
	validator interfaces.FormValidator, healthChecker interfaces.HealthChecker) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		tableStore:    tableStore,
		scheduler:     scheduler,
		source:        source,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		logging.Warn("Failed to write JSON response", "error", err)
	}
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// respondWithPage renders the full page around the current table
func (h *HTTPHandlerImpl) respondWithPage(w http.ResponseWriter, code int, form PageData) {
	snapshot := h.tableStore.Snapshot()

	form.LoadError = snapshot.LoadError
	form.LastUpdated = formatLastUpdated(snapshot.LastUpdated)
	// an error replaces the table entirely
	if snapshot.Loaded && snapshot.LoadError == "" {
		form.TableHTML = template.HTML(presenter.RenderHTML(snapshot.Table)) // #nosec G203 -- every cell is escaped by the presenter
	}

	var buf bytes.Buffer
	if err := renderPage(&buf, form); err != nil {
		logging.Error("Failed to render page", "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		logging.Warn("Failed to write page", "error", err)
	}
}

// refresh reloads the list on behalf of a request. The refresh outlives a client
// disconnect so that the stored state never ends in "context canceled".
func (h *HTTPHandlerImpl) refresh(r *http.Request) {
	if err := h.scheduler.Refresh(context.WithoutCancel(r.Context())); err != nil {
		logging.Warn("Refresh requested by client failed", "error", err)
	}
}

// ServePage renders the medicines page, loading the list first when nothing is there yet
func (h *HTTPHandlerImpl) ServePage(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tableStore.Snapshot()
	if !snapshot.Loaded && snapshot.LoadError == "" {
		h.refresh(r)
	}

	h.respondWithPage(w, http.StatusOK, PageData{})
}

// RefreshTable reloads the list and redirects back to the page
func (h *HTTPHandlerImpl) RefreshTable(w http.ResponseWriter, r *http.Request) {
	h.refresh(r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// CreateMedicine validates the add-medicine form and forwards it to the backend.
// On success the form is cleared and the list reloaded; on failure the list is left
// untouched and the submitted values are kept in the form.
func (h *HTTPHandlerImpl) CreateMedicine(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		logging.Warn("Unreadable create form", "error", err)
		h.respondWithPage(w, http.StatusBadRequest, formError(r, "Error: could not read form"))
		return
	}

	request, err := h.validator.ValidateCreate(r.PostForm.Get("name"), r.PostForm.Get("price"))
	if err != nil {
		var fieldErr *validation.FieldError
		if errors.As(err, &fieldErr) {
			logging.Info("Create form rejected", "field", fieldErr.Field, "reason", fieldErr.Message)
		}
		h.respondWithPage(w, http.StatusUnprocessableEntity, formError(r, "Error: "+err.Error()))
		return
	}

	result, err := h.source.CreateMedicine(r.Context(), request)
	if err != nil {
		logging.Error("Failed to forward medicine to backend", "error", err)
		h.respondWithPage(w, http.StatusBadGateway, formError(r, "Error: "+err.Error()))
		return
	}

	if !result.OK {
		logging.Warn("Backend rejected medicine", "status_code", result.StatusCode, "message", result.Message)
		h.respondWithPage(w, http.StatusBadGateway, formError(r, result.Message))
		return
	}

	logging.Info("Medicine created", "name", request.Name, "price", request.Price)
	h.refresh(r)

	h.respondWithPage(w, http.StatusOK, PageData{
		FormMessage:      result.Message,
		FormMessageColor: formMessageSuccessColor,
	})
}

func formError(r *http.Request, message string) PageData {
	return PageData{
		FormMessage:      message,
		FormMessageColor: formMessageErrorColor,
		FormName:         r.PostForm.Get("name"),
		FormPrice:        r.PostForm.Get("price"),
	}
}

// TableRowResponse is the JSON form of a rendered row
type TableRowResponse struct {
	Name       string `json:"name"`
	Price      string `json:"price"`
	PriceState string `json:"price_state"`
	Advisory   string `json:"advisory,omitempty"`
	NameFlag   bool   `json:"name_flag"`
	PriceFlag  bool   `json:"price_flag"`
}

// TableResponse defines the structure for consistent JSON ordering
type TableResponse struct {
	Loaded      bool               `json:"loaded"`
	Empty       bool               `json:"empty"`
	Error       string             `json:"error,omitempty"`
	LastUpdated string             `json:"last_updated,omitempty"`
	Summary     presenter.Summary  `json:"summary"`
	Rows        []TableRowResponse `json:"rows"`
}

// ServeTable returns the rendered table as JSON
func (h *HTTPHandlerImpl) ServeTable(w http.ResponseWriter, r *http.Request) {
	snapshot := h.tableStore.Snapshot()

	rows := make([]TableRowResponse, 0, len(snapshot.Table.Rows))
	for _, row := range snapshot.Table.Rows {
		rows = append(rows, TableRowResponse{
			Name:       row.DisplayName,
			Price:      row.DisplayPrice(),
			PriceState: row.Price.Status.String(),
			Advisory:   row.Price.Advisory,
			NameFlag:   row.NameFlag,
			PriceFlag:  row.PriceFlag,
		})
	}

	h.RespondWithJSON(w, http.StatusOK, TableResponse{
		Loaded:      snapshot.Loaded,
		Empty:       snapshot.Table.Empty,
		Error:       snapshot.LoadError,
		LastUpdated: formatLastUpdated(snapshot.LastUpdated),
		Summary:     presenter.Summarize(snapshot.Table),
		Rows:        rows,
	})
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, data, httpStatus := h.healthChecker.HealthCheck()

	response := HealthResponse{
		Status: status,
		Data:   data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
			"checked_at": time.Now().Format(time.RFC3339),
		},
	}

	h.RespondWithJSON(w, httpStatus, response)
}
