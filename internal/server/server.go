// Package server is the read-only HTTP surface served next to the pass loop:
// health, status, ledger views, Prometheus metrics, and a manual pass trigger.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polypaper/internal/server/handler"
	"github.com/alanyoungcy/polypaper/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Addr        string
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled
}

// Handlers aggregates the HTTP handlers the server registers. Nil handlers
// are skipped, except Health which is required.
type Handlers struct {
	Health  *handler.HealthHandler
	Status  *handler.StatusHandler
	Ledger  *handler.LedgerHandler
	Pass    *handler.PassHandler
	Metrics http.Handler
}

// Server wraps the http.Server with its route table.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates a Server with all routes registered and the middleware
// chain applied: CORS, then request logging, then auth.
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	if handlers.Status != nil {
		mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	}
	if handlers.Ledger != nil {
		mux.HandleFunc("GET /api/ledger", handlers.Ledger.ListEntries)
		mux.HandleFunc("GET /api/ledger/summary", handlers.Ledger.Summary)
	}
	if handlers.Pass != nil {
		mux.HandleFunc("POST /api/pass/trigger", handlers.Pass.TriggerPass)
	}
	if handlers.Metrics != nil {
		mux.Handle("GET /metrics", handlers.Metrics)
	}

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey, "/api/health", "/metrics")(h)
	h = middleware.Logging(logger, "/api/health", "/metrics")(h)
	h = middleware.CORS(cfg.CORSOrigins)(h)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger.With(slog.String("component", "http_server")),
	}
}

// Handler returns the full middleware chain, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting", slog.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
