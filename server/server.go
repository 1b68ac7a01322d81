// Package server provides HTTP server management and lifecycle handling for the medicines frontend.
// It includes server setup, middleware configuration, route management, and graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	_ "net/http/pprof" // #nosec G108 -- served on localhost in dev only
	"time"

	"github.com/giygas/medicines-web/config"
	"github.com/giygas/medicines-web/interfaces"
	"github.com/giygas/medicines-web/logging"
	"github.com/giygas/medicines-web/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const rateLimiterCleanupInterval = 30 * time.Minute

// Server represents the HTTP server
type Server struct {
	server      *http.Server
	router      chi.Router
	handler     interfaces.HTTPHandler
	config      *config.Config
	rateLimiter *RateLimiter

	// background work tied to the server lifetime
	bgCtx    context.Context
	bgCancel context.CancelFunc
}

// NewServer creates a new server instance
func NewServer(cfg *config.Config, handler interfaces.HTTPHandler) *Server {
	router := chi.NewRouter()
	bgCtx, bgCancel := context.WithCancel(context.Background())

	server := &Server{
		server: &http.Server{
			Handler:        router,
			Addr:           cfg.Address + ":" + cfg.Port,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   cfg.BackendTimeout*2 + 15*time.Second, // a create waits for the backend twice
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: int(cfg.MaxHeaderSize),
		},
		router:      router,
		handler:     handler,
		config:      cfg,
		rateLimiter: NewRateLimiter(),
		bgCtx:       bgCtx,
		bgCancel:    bgCancel,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// Router exposes the configured router, mainly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures all middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.config.RequireProxy {
		s.router.Use(BlockDirectAccessMiddleware) // Put BEFORE RealIPMiddleware to see original RemoteAddr
	}
	s.router.Use(RealIPMiddleware)
	s.router.Use(logging.LoggingMiddleware(logging.Logger()))
	s.router.Use(middleware.RedirectSlashes)
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestSizeMiddleware(s.config))
	s.router.Use(metrics.Metrics)
	s.router.Use(s.rateLimiter.Middleware)
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handler.ServePage)
	s.router.Post("/refresh", s.handler.RefreshTable)
	s.router.Post("/create", s.handler.CreateMedicine)
	s.router.Get("/api/table", s.handler.ServeTable)
	s.router.Get("/health", s.handler.HealthCheck)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Get("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=31536000") // 1 year
		w.WriteHeader(http.StatusNoContent)
	})
}

// Start starts the server and blocks until it stops.
// A graceful shutdown is not reported as an error.
func (s *Server) Start() error {
	s.rateLimiter.StartCleanup(s.bgCtx, rateLimiterCleanupInterval)

	// Start profiling server if in development mode
	if s.config.Env == config.EnvDevelopment {
		s.startProfilingServer()
	}

	logging.Info(fmt.Sprintf("Starting server at: %s:%s", s.config.Address, s.config.Port))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down server...")

	s.bgCancel()

	if err := s.server.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
		// If graceful shutdown fails, force close
		if err := s.server.Close(); err != nil {
			logging.Error("Server close error", "error", err)
			return err
		}
	}

	logging.Info("Server shutdown complete")
	return nil
}

// startProfilingServer starts the pprof profiling server in development mode
func (s *Server) startProfilingServer() {
	go func() {
		logging.Info("Profiling server started at http://localhost:6060/debug/pprof/")
		if err := http.ListenAndServe("localhost:6060", nil); err != nil { // #nosec G114 -- dev only
			logging.Warn("Profiling server failed", "error", err)
		}
	}()
}
