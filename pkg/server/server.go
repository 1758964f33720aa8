// Package server provides the management API and health endpoints for the
// retention daemon.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/config"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/health"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/metrics"
)

// Server is the HTTP server hosting the management API, the health
// probes, and the metrics endpoint.
type Server struct {
	config       *config.ServerConfig
	metricsPath  string
	api          *API
	checker      *health.Checker
	collector    *metrics.Collector
	httpServer   *http.Server
	logger       *slog.Logger
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// New creates a new management API server.
func New(cfg *config.ServerConfig, metricsCfg *config.MetricsConfig, api *API, checker *health.Checker, collector *metrics.Collector) *Server {
	metricsPath := metricsCfg.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	return &Server{
		config:      cfg,
		metricsPath: metricsPath,
		api:         api,
		checker:     checker,
		collector:   collector,
		logger:      slog.Default().With("component", "server"),
	}
}

// Start starts the HTTP server and blocks until the context is cancelled,
// Shutdown is called, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("management API listening", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down management API")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully shuts down the server, waiting up to the configured
// shutdown timeout for in-flight requests to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("shutting down management API", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("management API stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler with the full middleware
// chain applied. Exposed so tests can drive the API without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/policies", s.api.listPolicies)
	mux.HandleFunc("POST /api/v1/policies", s.api.createPolicy)
	mux.HandleFunc("GET /api/v1/policies/{id}", s.api.getPolicy)
	mux.HandleFunc("PUT /api/v1/policies/{id}", s.api.updatePolicy)
	mux.HandleFunc("DELETE /api/v1/policies/{id}", s.api.deletePolicy)
	mux.HandleFunc("POST /api/v1/policies/{id}/execute", s.api.executePolicy)
	mux.HandleFunc("GET /api/v1/policies/{id}/stats", s.api.policyStats)
	mux.HandleFunc("GET /api/v1/executions", s.api.listExecutions)
	mux.HandleFunc("GET /api/v1/executions/{id}", s.api.getExecution)
	mux.HandleFunc("GET /api/v1/archives", s.api.listArchives)

	mux.HandleFunc("GET /healthz", s.checker.LivenessHandler())
	mux.HandleFunc("GET /readyz", s.checker.ReadinessHandler())
	mux.Handle("GET "+s.metricsPath, s.collector.Handler())

	// Metrics sits directly around the mux so the matched route pattern
	// is available; recovery is outermost so panics in the other
	// middleware are also caught.
	var handler http.Handler = mux
	handler = MetricsMiddleware(s.collector)(handler)
	handler = RequestLogMiddleware(handler)
	handler = RecoveryMiddleware(handler)

	return handler
}
