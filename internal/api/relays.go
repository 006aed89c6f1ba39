// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/camrelay/internal/config"
	"github.com/ManuGH/camrelay/internal/discovery"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/session"
)

const maxRequestBody = 16 << 10

// Task states reported by GET /api/v1/relays/{id}.
const (
	StateRunning   = "running"
	StateSucceeded = "succeeded"
	StateFailed    = "failed"
)

// CreateRelayRequest is the body of POST /api/v1/relays.
type CreateRelayRequest struct {
	Host     string `json:"host"`
	Username string `json:"username"`
	Password string `json:"password"`
	Mount    string `json:"mount,omitempty"`
}

// CreateRelayResponse acknowledges an accepted start action.
type CreateRelayResponse struct {
	ID string `json:"id"`
}

// FailureView is the public form of session.Failure.
type FailureView struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// RelayView describes one task and, once succeeded, its relay.
type RelayView struct {
	ID           string       `json:"id"`
	State        string       `json:"state"`
	Host         string       `json:"host"`
	CreatedAt    time.Time    `json:"created_at"`
	ViewerURL    string       `json:"viewer_url,omitempty"`
	Mount        string       `json:"mount,omitempty"`
	Port         int          `json:"port,omitempty"`
	Template     string       `json:"template,omitempty"`
	RelayRunning *bool        `json:"relay_running,omitempty"`
	Failure      *FailureView `json:"failure,omitempty"`
}

// CatalogueResponse lists the path templates in probe order.
type CatalogueResponse struct {
	Templates []string `json:"templates"`
}

func (s *Server) handleCreateRelay(w http.ResponseWriter, r *http.Request) {
	var body CreateRelayRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_request", "request body must be a JSON object with host, username, password and optional mount")
		return
	}

	req := session.Request{
		Credential: discovery.Credential{Host: body.Host, Username: body.Username, Password: body.Password},
		Mount:      body.Mount,
	}

	// The task runs past this request; keep only its correlation ids.
	ctx := xglog.ContextWithRequestID(s.deps.BaseContext, xglog.RequestIDFromContext(r.Context()))
	if sc := trace.SpanContextFromContext(r.Context()); sc.IsValid() {
		ctx = trace.ContextWithRemoteSpanContext(ctx, sc)
	}

	task, err := s.deps.Runner.Start(ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, session.ErrBusy):
		writeProblem(w, http.StatusConflict, "busy", err.Error())
		return
	case errors.Is(err, config.ErrConfiguration):
		writeProblem(w, http.StatusBadRequest, "configuration", err.Error())
		return
	default:
		s.logger.Error().Err(err).Str(xglog.FieldEvent, "api.start.failed").Msg("start rejected")
		writeProblem(w, http.StatusInternalServerError, "internal_error", "")
		return
	}

	s.tasks.add(task)
	reqLogger := xglog.WithContext(r.Context(), s.logger)
	reqLogger.Info().
		Str(xglog.FieldEvent, "api.relay.accepted").
		Str(xglog.FieldJobID, task.ID()).
		Object("camera", req.Credential).
		Msg("relay task accepted")

	w.Header().Set("Location", "/api/v1/relays/"+task.ID())
	writeJSON(w, http.StatusAccepted, CreateRelayResponse{ID: task.ID()})
}

func (s *Server) handleGetRelay(w http.ResponseWriter, r *http.Request) {
	task, ok := s.tasks.get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(task))
}

func (s *Server) handleStopRelay(w http.ResponseWriter, r *http.Request) {
	task, ok := s.tasks.get(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w)
		return
	}
	res, done := task.TryResult()
	if !done {
		writeProblem(w, http.StatusConflict, "task_running", "discovery has not finished yet")
		return
	}
	if res.Relay == nil {
		writeProblem(w, http.StatusConflict, "no_relay", "task did not start a relay")
		return
	}
	if err := res.Relay.Stop(s.deps.StopGrace); err != nil {
		reqLogger := xglog.WithContext(r.Context(), s.logger)
		reqLogger.Error().
			Err(err).
			Str(xglog.FieldEvent, "api.relay.stop_failed").
			Str(xglog.FieldJobID, task.ID()).
			Msg("failed to stop relay")
		writeProblem(w, http.StatusInternalServerError, "stop_failed", err.Error())
		return
	}
	reqLogger := xglog.WithContext(r.Context(), s.logger)
	reqLogger.Info().
		Str(xglog.FieldEvent, "api.relay.stopped").
		Str(xglog.FieldJobID, task.ID()).
		Msg("relay stopped")
	writeJSON(w, http.StatusOK, viewOf(task))
}

func (s *Server) handleCatalogue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, CatalogueResponse{Templates: s.deps.Catalogue.Snapshot().Strings()})
}

func viewOf(task *session.Task) RelayView {
	v := RelayView{
		ID:        task.ID(),
		State:     StateRunning,
		Host:      task.Host(),
		CreatedAt: task.CreatedAt(),
	}
	res, done := task.TryResult()
	if !done {
		return v
	}
	if res.Failure != nil {
		v.State = StateFailed
		v.Failure = &FailureView{Reason: string(res.Failure.Reason), Message: res.Failure.Message}
		return v
	}
	v.State = StateSucceeded
	v.ViewerURL = res.ViewerURL
	v.Mount = res.Mount
	v.Port = res.Port
	v.Template = string(res.Template)
	if res.Relay != nil {
		running := res.Relay.Running()
		v.RelayRunning = &running
	}
	return v
}
