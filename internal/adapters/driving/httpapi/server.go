// Package httpapi exposes the pipeline's driving ports over a JSON HTTP
// API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
	"github.com/vendoriq/vendoriq/internal/logger"
)

// Default server timeouts.
const (
	defaultReadTimeout     = 30 * time.Second
	defaultWriteTimeout    = 10 * time.Minute // sync runs stream no progress; the response waits
	defaultIdleTimeout     = 120 * time.Second
	defaultShutdownTimeout = 15 * time.Second
)

// Services bundles the driving ports the API serves.
type Services struct {
	Syncer    driving.Syncer
	Retryer   driving.Retryer
	Status    driving.StatusReporter
	Analytics driving.Analytics
	Searcher  driving.Searcher
}

// Server is the HTTP API server.
type Server struct {
	httpServer *http.Server
	services   Services
}

// NewServer creates the API server listening on addr.
func NewServer(addr string, services Services) *Server {
	s := &Server{services: services}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(requestLogger)

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/sync", s.handleSync)
		r.Post("/retry", s.handleRetry)
		r.Get("/status/summary", s.handleStatusSummary)
		r.Delete("/status", s.handleStatusClear)
		r.Delete("/index", s.handleIndexPurge)
		r.Get("/analytics", s.handleAnalytics)
		r.Get("/search", s.handleSearch)
	})
	router.Get("/healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}
	return s
}

// Run starts the server and blocks until SIGINT/SIGTERM, then shuts down
// gracefully.
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestLogger logs method, path and duration for each request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s -> %d (%s)", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}
