package logging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestLoggingMiddlewareSkipsQuietPaths(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/health", "/metrics", "/favicon.ico"} {
		t.Run(path, func(t *testing.T) {
			logOutput.Reset()
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))

			if rr.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rr.Code)
			}
			if logOutput.Len() != 0 {
				t.Errorf("expected no logs for %s, got: %s", path, logOutput.String())
			}
		})
	}
}

func TestLoggingMiddlewareLogsRequest(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/create?x=1", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "test-123"))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	logs := logOutput.String()
	for _, want := range []string{"HTTP request", "request_id=test-123", "method=POST", "path=/create", "query=x=1", "status_code=201", "bytes_written=7"} {
		if !strings.Contains(logs, want) {
			t.Errorf("expected %q in logs, got: %s", want, logs)
		}
	}
}

func TestLoggingMiddlewareWarnsOnServerErrors(t *testing.T) {
	var logOutput strings.Builder
	logger := slog.New(slog.NewTextHandler(&logOutput, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if !strings.Contains(logOutput.String(), "level=WARN") || !strings.Contains(logOutput.String(), "request_id=unknown") {
		t.Errorf("expected a warning without request id, got: %s", logOutput.String())
	}
}
