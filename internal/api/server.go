// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api exposes the relay runner over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ManuGH/camrelay/internal/api/middleware"
	"github.com/ManuGH/camrelay/internal/health"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/session"
)

// DefaultStopGrace is how long a relay gets to exit after SIGTERM.
const DefaultStopGrace = 5 * time.Second

// TaskStarter submits start actions.
type TaskStarter interface {
	Start(ctx context.Context, req session.Request) (*session.Task, error)
}

// Deps wires the server. Runner and Catalogue are required.
type Deps struct {
	Runner    TaskStarter
	Catalogue session.CatalogueSource
	Health    *health.Manager

	// BaseContext bounds every submitted task; tasks outlive the request
	// that created them. Defaults to context.Background.
	BaseContext context.Context

	StopGrace      time.Duration
	RateLimit      int    // requests per minute per IP; zero disables
	TracingService string // empty disables tracing
	RegistrySize   int
}

// Server is the HTTP control API.
type Server struct {
	deps    Deps
	tasks   *registry
	logger  zerolog.Logger
	handler http.Handler
}

// New builds the server and its routes.
func New(deps Deps) *Server {
	if deps.BaseContext == nil {
		deps.BaseContext = context.Background()
	}
	if deps.StopGrace <= 0 {
		deps.StopGrace = DefaultStopGrace
	}
	s := &Server{
		deps:   deps,
		tasks:  newRegistry(deps.RegistrySize),
		logger: xglog.WithComponent("api"),
	}
	s.handler = s.routes()
	return s
}

// Handler returns the configured HTTP handler with all routes and middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := middleware.NewRouter(middleware.StackConfig{
		EnableMetrics:      true,
		EnableLogging:      true,
		TracingService:     s.deps.TracingService,
		RateLimitPerMinute: s.deps.RateLimit,
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/relays", s.handleCreateRelay)
		r.Get("/relays/{id}", s.handleGetRelay)
		r.Delete("/relays/{id}", s.handleStopRelay)
		r.Get("/catalogue", s.handleCatalogue)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) { writeNotFound(w) })
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeProblem(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
		return
	}
	s.deps.Health.ServeHealth(w, r)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"ready": true})
		return
	}
	s.deps.Health.ServeReady(w, r)
}

// Serve runs the API on addr until ctx ends, then shuts down gracefully
// within shutdownTimeout.
func Serve(ctx context.Context, addr string, h http.Handler, shutdownTimeout time.Duration) error {
	logger := xglog.WithComponent("api")
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("API server listening (HTTP)")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().
				Err(err).
				Str(xglog.FieldEvent, "api.server.failed").
				Msg("API server (HTTP) failed")
			errCh <- fmt.Errorf("API server (HTTP): %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
		// Bounded and detached so shutdown completes even though ctx is done.
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("API server shutdown: %w", err)
		}
		return <-errCh
	}
}

// StopRelays stops every relay launched through this server and returns how
// many were running.
func (s *Server) StopRelays(grace time.Duration) int {
	stopped := 0
	for _, task := range s.tasks.snapshot() {
		res, done := task.TryResult()
		if !done || res.Relay == nil || !res.Relay.Running() {
			continue
		}
		if err := res.Relay.Stop(grace); err != nil {
			s.logger.Warn().Err(err).Str(xglog.FieldJobID, task.ID()).Msg("failed to stop relay")
			continue
		}
		stopped++
	}
	return stopped
}
