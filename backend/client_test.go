package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medicines-web/config"
	"github.com/giygas/medicines-web/entities"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(serverURL string) *Client {
	return NewClientWithHTTP(serverURL, &http.Client{Timeout: 5 * time.Second}, 1024)
}

func TestFetchMedicines_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/medicines", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		_, err := uuid.Parse(r.Header.Get(RequestIDHeader))
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"medicines":[{"name":"Aspirin","price":"3"},{"price":-1},"oops",null]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchMedicines(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "Aspirin", records[0].Field("name"))
	assert.Equal(t, "3", records[0].Field("price"))
	assert.Equal(t, json.Number("-1"), records[1].Field("price"))
	assert.Nil(t, records[2])
	assert.Nil(t, records[3])
}

func TestFetchMedicines_MissingOrWrongShape(t *testing.T) {
	t.Parallel()

	bodies := []string{
		`{}`,
		`{"medicines":null}`,
		`{"medicines":{"name":"x"}}`,
		`{"medicines":"nope"}`,
		`[1,2,3]`,
		`null`,
		`42`,
	}

	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			records, err := newTestClient(server.URL).FetchMedicines(context.Background())

			require.NoError(t, err)
			assert.NotNil(t, records)
			assert.Empty(t, records)
		})
	}
}

func TestFetchMedicines_StatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"medicines":[]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchMedicines(context.Background())

	require.Error(t, err)
	assert.Equal(t, "Server returned 500", err.Error())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestFetchMedicines_MalformedJSON(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`{invalid json}`, `{"medicines":[]} trailing`, ``} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := newTestClient(server.URL).FetchMedicines(context.Background())
		server.Close()

		require.Error(t, err, "body %q", body)
		assert.Contains(t, err.Error(), "invalid JSON response")
	}
}

func TestFetchMedicines_Latin1Body(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// "Paracétamol" in ISO-8859-1
		_, _ = w.Write([]byte("{\"medicines\":[{\"name\":\"Parac\xe9tamol\",\"price\":1}]}"))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchMedicines(context.Background())

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Paracétamol", records[0].Field("name"))
}

func TestFetchMedicines_ResponseTooLarge(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"medicines":["` + strings.Repeat("a", 2048) + `"]}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchMedicines(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestFetchMedicines_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	_, err := newTestClient(serverURL).FetchMedicines(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch medicines")
}

func TestFetchMedicines_ContextCanceled(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(server.URL).FetchMedicines(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCreateMedicine_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/create", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get(RequestIDHeader))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "Aspirin & co", r.PostForm.Get("name"))
		assert.Equal(t, "4.5", r.PostForm.Get("price"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Medicine created"}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).CreateMedicine(context.Background(), entities.CreateRequest{
		Name:  "Aspirin & co",
		Price: "4.5",
	})

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, "Medicine created", result.Message)
}

func TestCreateMedicine_Rejected(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"error field", `{"error":"Name already exists"}`, "Name already exists"},
		{"empty error", `{"error":""}`, DefaultCreateError},
		{"null error", `{"error":null}`, DefaultCreateError},
		{"no error field", `{"detail":"x"}`, DefaultCreateError},
		{"array body", `[]`, DefaultCreateError},
		{"numeric error", `{"error":42}`, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			result, err := newTestClient(server.URL).CreateMedicine(context.Background(), entities.CreateRequest{Name: "x", Price: "1"})

			require.NoError(t, err)
			assert.False(t, result.OK)
			assert.Equal(t, http.StatusBadRequest, result.StatusCode)
			assert.Equal(t, tt.message, result.Message)
		})
	}
}

func TestCreateMedicine_InvalidJSONResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`<html>Internal Server Error</html>`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).CreateMedicine(context.Background(), entities.CreateRequest{Name: "x", Price: "1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON response")
}

func TestCreateMedicine_SuccessWithoutMessage(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).CreateMedicine(context.Background(), entities.CreateRequest{Name: "x", Price: "1"})

	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Empty(t, result.Message)
}

func TestNewClient_FromConfig(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		BackendURL:         "http://backend.local:8000/",
		BackendTimeout:     3 * time.Second,
		MaxBackendResponse: 2048,
	}

	client := NewClient(cfg)

	assert.Equal(t, "http://backend.local:8000", client.BaseURL())
	assert.Equal(t, 3*time.Second, client.httpClient.Timeout)
	assert.Equal(t, int64(2048), client.maxResponse)
}
