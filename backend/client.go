// Package backend is the HTTP client of the medicines backend service.
// It knows two endpoints: GET /medicines for the list and POST /create for new entries.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/giygas/medicines-web/config"
	"github.com/giygas/medicines-web/entities"
	"github.com/giygas/medicines-web/logging"
	"github.com/giygas/medicines-web/metrics"
	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

const (
	// DefaultCreateError is shown when a failed create carries no usable error text
	DefaultCreateError = "Error adding medicine"

	// RequestIDHeader identifies each outgoing call in the backend logs
	RequestIDHeader = "X-Request-ID"

	opFetch  = "fetch"
	opCreate = "create"

	outcomeSuccess   = "success"
	outcomeStatus    = "http_error"
	outcomeTransport = "transport_error"
	outcomeDecode    = "decode_error"
)

var ErrResponseTooLarge = errors.New("response body too large")

// StatusError is returned by FetchMedicines when the backend answers with a non-2xx status
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Server returned %d", e.StatusCode)
}

// Client talks to the medicines backend. It is safe for concurrent use.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	maxResponse int64
}

// NewClient builds a client from the application configuration
func NewClient(cfg *config.Config) *Client {
	return NewClientWithHTTP(cfg.BackendURL, &http.Client{Timeout: cfg.BackendTimeout}, cfg.MaxBackendResponse)
}

// NewClientWithHTTP builds a client around a caller supplied http.Client.
// A maxResponse of zero or less disables the body size limit.
func NewClientWithHTTP(baseURL string, httpClient *http.Client, maxResponse int64) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  httpClient,
		maxResponse: maxResponse,
	}
}

// BaseURL returns the backend address without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// FetchMedicines downloads the medicine list.
// A payload without a "medicines" array yields an empty list, not an error.
// Items that are not JSON objects are returned as nil records.
func (c *Client) FetchMedicines(ctx context.Context) ([]entities.MedicineRecord, error) {
	start := time.Now()
	outcome := outcomeSuccess
	defer func() {
		metrics.ObserveBackendCall(opFetch, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/medicines", nil)
	if err != nil {
		outcome = outcomeTransport
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	requestID := c.setRequestID(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = outcomeTransport
		return nil, fmt.Errorf("failed to fetch medicines: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = outcomeStatus
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		outcome = outcomeTransport
		return nil, err
	}

	payload, err := decodeJSON(body)
	if err != nil {
		outcome = outcomeDecode
		return nil, err
	}

	records := extractMedicines(payload)
	logging.Debug("Medicines fetched",
		"request_id", requestID,
		"records", len(records),
		"duration_ms", time.Since(start).Milliseconds())

	return records, nil
}

// CreateMedicine forwards the form to the backend as application/x-www-form-urlencoded.
// Backend rejections come back as a result with OK false; only transport
// and decoding failures are returned as errors.
func (c *Client) CreateMedicine(ctx context.Context, request entities.CreateRequest) (*entities.CreateResult, error) {
	start := time.Now()
	outcome := outcomeSuccess
	defer func() {
		metrics.ObserveBackendCall(opCreate, outcome, time.Since(start))
	}()

	form := url.Values{}
	form.Set("name", request.Name)
	form.Set("price", request.Price)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/create", strings.NewReader(form.Encode()))
	if err != nil {
		outcome = outcomeTransport
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	requestID := c.setRequestID(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		outcome = outcomeTransport
		return nil, fmt.Errorf("failed to submit medicine: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Warn("Failed to close response body", "error", err)
		}
	}()

	body, err := c.readBody(resp.Body)
	if err != nil {
		outcome = outcomeTransport
		return nil, err
	}

	// the body is parsed before the status is looked at, so a non-JSON error page is a failure too
	payload, err := decodeJSON(body)
	if err != nil {
		outcome = outcomeDecode
		return nil, err
	}
	fields, _ := payload.(map[string]any)

	result := &entities.CreateResult{StatusCode: resp.StatusCode}
	if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		result.OK = true
		result.Message = messageText(fields["message"])
	} else {
		outcome = outcomeStatus
		result.Message = messageText(fields["error"])
		if result.Message == "" {
			result.Message = DefaultCreateError
		}
	}

	logging.Debug("Medicine create forwarded",
		"request_id", requestID,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

func (c *Client) setRequestID(req *http.Request) string {
	id := uuid.NewString()
	req.Header.Set(RequestIDHeader, id)
	return id
}

// readBody reads the whole body, enforcing the size limit, and converts
// ISO-8859-1 bodies to UTF-8.
func (c *Client) readBody(body io.Reader) ([]byte, error) {
	reader := body
	if c.maxResponse > 0 {
		reader = io.LimitReader(body, c.maxResponse+1)
	}

	bodyBytes, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if c.maxResponse > 0 && int64(len(bodyBytes)) > c.maxResponse {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, c.maxResponse)
	}

	if utf8.Valid(bodyBytes) {
		return bodyBytes, nil
	}

	decoded, err := io.ReadAll(charmap.ISO8859_1.NewDecoder().Reader(bytes.NewReader(bodyBytes)))
	if err != nil {
		return nil, fmt.Errorf("failed to decode ISO-8859-1 body: %w", err)
	}
	return decoded, nil
}

// decodeJSON parses exactly one JSON value, keeping numbers as json.Number
func decodeJSON(body []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var payload any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %w", err)
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid JSON response: unexpected data after top-level value")
	}
	return payload, nil
}

func extractMedicines(payload any) []entities.MedicineRecord {
	object, ok := payload.(map[string]any)
	if !ok {
		return []entities.MedicineRecord{}
	}
	items, ok := object["medicines"].([]any)
	if !ok {
		return []entities.MedicineRecord{}
	}

	records := make([]entities.MedicineRecord, len(items))
	for i, item := range items {
		if fields, ok := item.(map[string]any); ok {
			records[i] = entities.MedicineRecord(fields)
		}
	}
	return records
}

// messageText returns the text of a scalar message field, "" for anything else
func messageText(v any) string {
	switch m := v.(type) {
	case string:
		return m
	case json.Number:
		return m.String()
	case bool:
		if m {
			return "true"
		}
	}
	return ""
}
