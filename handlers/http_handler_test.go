package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/giygas/medicines-web/data"
	"github.com/giygas/medicines-web/entities"
	"github.com/giygas/medicines-web/health"
	"github.com/giygas/medicines-web/interfaces"
	"github.com/giygas/medicines-web/scheduler"
	"github.com/giygas/medicines-web/validation"
)

// mockSource stands in for the medicines backend
type mockSource struct {
	mu          sync.Mutex
	records     []entities.MedicineRecord
	fetchErr    error
	fetchCount  int
	createRes   *entities.CreateResult
	createErr   error
	lastRequest *entities.CreateRequest
}

func (m *mockSource) FetchMedicines(ctx context.Context) ([]entities.MedicineRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchCount++
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return m.records, nil
}

func (m *mockSource) CreateMedicine(ctx context.Context, request entities.CreateRequest) (*entities.CreateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastRequest = &request
	if m.createErr != nil {
		return nil, m.createErr
	}
	if m.createRes != nil {
		return m.createRes, nil
	}
	m.records = append(m.records, entities.MedicineRecord{"name": request.Name, "price": request.Price})
	return &entities.CreateResult{OK: true, StatusCode: http.StatusOK, Message: "Medicine created successfully"}, nil
}

func (m *mockSource) fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchCount
}

type testEnv struct {
	handler *HTTPHandlerImpl
	store   *data.TableContainer
	source  *mockSource
}

func newTestEnv(source *mockSource, strict bool) *testEnv {
	store := data.NewTableContainer()
	sched := scheduler.NewScheduler(store, source, time.Minute)
	handler := NewHTTPHandler(
		store,
		sched,
		source,
		validation.NewFormValidator(strict),
		health.NewHealthChecker(store, time.Minute),
	).(*HTTPHandlerImpl)

	return &testEnv{handler: handler, store: store, source: source}
}

func (e *testEnv) refresh(t *testing.T) {
	t.Helper()
	_ = e.handler.scheduler.Refresh(context.Background())
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestNewHTTPHandler(t *testing.T) {
	env := newTestEnv(&mockSource{}, true)

	if env.handler == nil {
		t.Fatal("Handler should not be nil")
	}

	var _ interfaces.HTTPHandler = env.handler
}

func TestRespondWithJSON(t *testing.T) {
	env := newTestEnv(&mockSource{}, true)

	tests := []struct {
		name         string
		payload      any
		expectedJSON string
	}{
		{"map payload", map[string]string{"message": "success"}, `{"message":"success"}`},
		{"nil payload", nil, `null`},
		{"array payload", []string{"item1", "item2"}, `["item1","item2"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()

			env.handler.RespondWithJSON(rr, http.StatusOK, tt.payload)

			if rr.Code != http.StatusOK {
				t.Errorf("Expected status %d, got %d", http.StatusOK, rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
				t.Errorf("Expected Content-Type application/json; charset=utf-8, got %s", ct)
			}
			if !strings.Contains(rr.Body.String(), tt.expectedJSON) {
				t.Errorf("Expected body to contain %s, got %s", tt.expectedJSON, rr.Body.String())
			}
		})
	}
}

func TestRespondWithError(t *testing.T) {
	env := newTestEnv(&mockSource{}, true)
	rr := httptest.NewRecorder()

	env.handler.RespondWithError(rr, http.StatusBadGateway, "backend down")

	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["error"] != "Bad Gateway" || body["message"] != "backend down" || body["code"] != float64(502) {
		t.Errorf("Unexpected error envelope: %v", body)
	}
}

func TestServePageRendersTable(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{
		{"name": "Aspirin", "price": "3"},
		{"name": "<script>alert(1)</script>", "price": 1},
		{"name": "", "price": "abc"},
		{"name": "NoPrice"},
	}}
	env := newTestEnv(source, true)

	rr := httptest.NewRecorder()
	env.handler.ServePage(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Unexpected content type %s", ct)
	}

	body := rr.Body.String()
	for _, expected := range []string{
		`<td title="Aspirin">Aspirin</td>`,
		`>3.00</td>`,
		`&lt;script&gt;alert(1)&lt;/script&gt;`,
		`Unknown name`,
		`Invalid price`,
		`This price is not a valid number`,
		`Price unavailable`,
		`id="add-medicine-form"`,
	} {
		if !strings.Contains(body, expected) {
			t.Errorf("Expected page to contain %q", expected)
		}
	}
	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Error("Record name was not escaped")
	}
	if source.fetches() != 1 {
		t.Errorf("Expected the first page view to load the list once, got %d fetches", source.fetches())
	}
}

func TestServePageDoesNotRefetchWhenLoaded(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{{"name": "Aspirin", "price": 1}}}
	env := newTestEnv(source, true)
	env.refresh(t)

	rr := httptest.NewRecorder()
	env.handler.ServePage(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if source.fetches() != 1 {
		t.Errorf("Expected no extra fetch for a loaded table, got %d fetches", source.fetches())
	}
}

func TestServePageEmptyList(t *testing.T) {
	env := newTestEnv(&mockSource{records: []entities.MedicineRecord{}}, true)

	rr := httptest.NewRecorder()
	env.handler.ServePage(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(rr.Body.String(), "<p>No medicines found.</p>") {
		t.Error("Expected the no records message")
	}
}

func TestServePageShowsLoadError(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{{"name": "Aspirin", "price": 1}}}
	env := newTestEnv(source, true)
	env.refresh(t)

	source.fetchErr = errors.New("Server returned 500")
	env.refresh(t)

	rr := httptest.NewRecorder()
	env.handler.ServePage(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	body := rr.Body.String()
	if !strings.Contains(body, `<p id="error" class="error">Could not load medicines: Server returned 500</p>`) {
		t.Errorf("Expected the load error banner, got %s", body)
	}
	if strings.Contains(body, "Aspirin") {
		t.Error("The table must be cleared when the last load failed")
	}
}

func TestRefreshTableRedirects(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{{"name": "Aspirin", "price": 1}}}
	env := newTestEnv(source, true)

	rr := httptest.NewRecorder()
	env.handler.RefreshTable(rr, httptest.NewRequest(http.MethodPost, "/refresh", nil))

	if rr.Code != http.StatusSeeOther {
		t.Errorf("Expected status 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/" {
		t.Errorf("Expected redirect to /, got %s", loc)
	}
	if !env.store.IsLoaded() {
		t.Error("Expected the refresh to load the table")
	}
}

func TestCreateMedicineSuccess(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{}}
	env := newTestEnv(source, true)
	env.refresh(t)

	rr := httptest.NewRecorder()
	env.handler.CreateMedicine(rr, postForm("/create", url.Values{"name": {"  Ibuprofen "}, "price": {"4.50"}}))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	if source.lastRequest == nil || source.lastRequest.Name != "Ibuprofen" || source.lastRequest.Price != "4.5" {
		t.Errorf("Unexpected forwarded request %+v", source.lastRequest)
	}

	body := rr.Body.String()
	if !strings.Contains(body, `style="color: green;">Medicine created successfully</p>`) {
		t.Errorf("Expected green success message, got %s", body)
	}
	if !strings.Contains(body, `<td title="Ibuprofen">Ibuprofen</td>`) {
		t.Error("Expected the list to be refreshed with the new medicine")
	}
	if !strings.Contains(body, `name="name" type="text" value=""`) {
		t.Error("Expected the form to be cleared")
	}
	if source.fetches() != 2 {
		t.Errorf("Expected a refresh after create, got %d fetches", source.fetches())
	}
}

func TestCreateMedicineValidationError(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{{"name": "Aspirin", "price": 1}}}
	env := newTestEnv(source, true)
	env.refresh(t)

	rr := httptest.NewRecorder()
	env.handler.CreateMedicine(rr, postForm("/create", url.Values{"name": {"Ibuprofen"}, "price": {"abc"}}))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected status 422, got %d", rr.Code)
	}
	if source.lastRequest != nil {
		t.Error("An invalid form must not reach the backend")
	}

	body := rr.Body.String()
	if !strings.Contains(body, `style="color: red;">Error: price must be a number</p>`) {
		t.Errorf("Expected red validation message, got %s", body)
	}
	if !strings.Contains(body, `value="Ibuprofen"`) {
		t.Error("Expected the submitted name to be kept")
	}
	if !strings.Contains(body, `<td title="Aspirin">Aspirin</td>`) {
		t.Error("A failed create must not touch the list")
	}
	if source.fetches() != 1 {
		t.Errorf("A failed create must not refresh the list, got %d fetches", source.fetches())
	}
}

func TestCreateMedicineLenientForwardsNaN(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{}}
	env := newTestEnv(source, false)

	rr := httptest.NewRecorder()
	env.handler.CreateMedicine(rr, postForm("/create", url.Values{"name": {"Ibuprofen"}, "price": {"abc"}}))

	if source.lastRequest == nil || source.lastRequest.Price != "NaN" {
		t.Errorf("Expected NaN to be forwarded in lenient mode, got %+v", source.lastRequest)
	}
}

func TestCreateMedicineBackendRejection(t *testing.T) {
	source := &mockSource{
		records:   []entities.MedicineRecord{{"name": "Aspirin", "price": 1}},
		createRes: &entities.CreateResult{OK: false, StatusCode: http.StatusBadRequest, Message: "Medicine already exists"},
	}
	env := newTestEnv(source, true)
	env.refresh(t)

	rr := httptest.NewRecorder()
	env.handler.CreateMedicine(rr, postForm("/create", url.Values{"name": {"Aspirin"}, "price": {"1"}}))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `style="color: red;">Medicine already exists</p>`) {
		t.Errorf("Expected backend message in red, got %s", rr.Body.String())
	}
	if source.fetches() != 1 {
		t.Errorf("A rejected create must not refresh the list, got %d fetches", source.fetches())
	}
}

func TestCreateMedicineTransportError(t *testing.T) {
	source := &mockSource{createErr: errors.New("connection refused")}
	env := newTestEnv(source, true)

	rr := httptest.NewRecorder()
	env.handler.CreateMedicine(rr, postForm("/create", url.Values{"name": {"Aspirin"}, "price": {"1"}}))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("Expected status 502, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Error: connection refused") {
		t.Errorf("Expected transport error message, got %s", rr.Body.String())
	}
}

func TestCreateMedicineMessageIsEscaped(t *testing.T) {
	source := &mockSource{
		createRes: &entities.CreateResult{OK: false, StatusCode: http.StatusBadRequest, Message: `<img src=x onerror="alert(1)">`},
	}
	env := newTestEnv(source, true)

	rr := httptest.NewRecorder()
	env.handler.CreateMedicine(rr, postForm("/create", url.Values{"name": {"Aspirin"}, "price": {"1"}}))

	if strings.Contains(rr.Body.String(), "<img src=x") {
		t.Error("Backend message was inserted as markup")
	}
}

func TestServeTable(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{
		{"name": "Aspirin", "price": 2.995},
		{"price": -3},
		nil,
	}}
	env := newTestEnv(source, true)
	env.refresh(t)

	rr := httptest.NewRecorder()
	env.handler.ServeTable(rr, httptest.NewRequest(http.MethodGet, "/api/table", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rr.Code)
	}

	var response TableResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}

	if !response.Loaded || response.Empty {
		t.Errorf("Unexpected flags: loaded=%v empty=%v", response.Loaded, response.Empty)
	}
	if len(response.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(response.Rows))
	}

	first := response.Rows[0]
	if first.Name != "Aspirin" || first.Price != "3.00" || first.PriceState != "formatted" || first.NameFlag || first.PriceFlag {
		t.Errorf("Unexpected first row %+v", first)
	}
	second := response.Rows[1]
	if second.Name != "Unknown name" || second.PriceState != "invalid" || second.Advisory != "This price is not a valid number" {
		t.Errorf("Unexpected second row %+v", second)
	}
	third := response.Rows[2]
	if third.PriceState != "unavailable" || !third.NameFlag || !third.PriceFlag {
		t.Errorf("Unexpected third row %+v", third)
	}

	if response.Summary.Formatted != 1 || response.Summary.Invalid != 1 || response.Summary.Unavailable != 1 {
		t.Errorf("Unexpected summary %+v", response.Summary)
	}
}

func TestHealthCheckHandler(t *testing.T) {
	source := &mockSource{records: []entities.MedicineRecord{{"name": "Aspirin", "price": 1}}}
	env := newTestEnv(source, true)

	rr := httptest.NewRecorder()
	env.handler.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 before the first load, got %d", rr.Code)
	}

	env.refresh(t)

	rr = httptest.NewRecorder()
	env.handler.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 after a load, got %d", rr.Code)
	}

	var response HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("Expected healthy, got %s", response.Status)
	}
	if response.Data["rows"] != float64(1) {
		t.Errorf("Expected 1 row in health data, got %v", response.Data["rows"])
	}
	if _, ok := response.System["goroutines"]; !ok {
		t.Error("Expected system information")
	}
}
