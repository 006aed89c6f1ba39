// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package session runs one start action at a time in the background:
// preflight, discovery and naming, port resolution, relay launch.
package session

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/ManuGH/camrelay/internal/catalogue"
	"github.com/ManuGH/camrelay/internal/config"
	"github.com/ManuGH/camrelay/internal/discovery"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/metrics"
	"github.com/ManuGH/camrelay/internal/mount"
	xnet "github.com/ManuGH/camrelay/internal/platform/net"
	"github.com/ManuGH/camrelay/internal/relay"
	"github.com/ManuGH/camrelay/internal/telemetry"
	"github.com/ManuGH/camrelay/internal/validate"
)

// ErrBusy rejects a start while another task is in flight.
var ErrBusy = errors.New("a discovery is already running")

// Prober finds a working candidate URL.
type Prober interface {
	Probe(ctx context.Context, cred discovery.Credential, cat catalogue.Catalogue) (discovery.ProbeResult, error)
}

// PortResolver picks the ingest port of host.
type PortResolver interface {
	Resolve(ctx context.Context, host string) (int, error)
}

// Launcher starts a detached relay.
type Launcher interface {
	Launch(ctx context.Context, candidateURL, mount string, port int) (*relay.Session, error)
}

// CatalogueSource hands out the catalogue a task probes with.
type CatalogueSource interface {
	Snapshot() catalogue.Catalogue
}

// Deps wires the runner's collaborators. Prober, Resolver, Launcher and
// Catalogue are required.
type Deps struct {
	Prober    Prober
	Resolver  PortResolver
	Launcher  Launcher
	Catalogue CatalogueSource

	// IcecastHost is the host the resolver probes.
	IcecastHost string
	// Settings validates relay settings before a task is accepted.
	Settings func() error
	// Preflight checks the transcoder before any probe runs.
	Preflight func(ctx context.Context) error
	// Namer produces the mount for a request; defaults to mount.Resolve.
	Namer func(requested string) (string, error)
	// Notifier, when set, receives every result.
	Notifier Notifier
}

// Request is the input of a start action.
type Request struct {
	Credential discovery.Credential
	// Mount is optional; a random mount is generated when empty.
	Mount string
}

// Runner admits at most one task at a time.
type Runner struct {
	deps   Deps
	sem    *semaphore.Weighted
	wg     sync.WaitGroup
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewRunner returns a Runner over deps.
func NewRunner(deps Deps) *Runner {
	if deps.Namer == nil {
		deps.Namer = mount.Resolve
	}
	return &Runner{
		deps:   deps,
		sem:    semaphore.NewWeighted(1),
		tracer: telemetry.Tracer("github.com/ManuGH/camrelay/internal/session"),
		logger: xglog.WithComponent("session"),
	}
}

// Start validates req and, if no other task is in flight, runs it on a new
// worker goroutine. Configuration errors and ErrBusy are returned before any
// work begins. ctx bounds the whole task and must outlive the caller's
// request; canceling it cancels discovery but never a launched relay.
func (r *Runner) Start(ctx context.Context, req Request) (*Task, error) {
	req, err := r.validate(req)
	if err != nil {
		return nil, err
	}

	if !r.sem.TryAcquire(1) {
		return nil, ErrBusy
	}

	task := newTask(uuid.NewString(), req.Credential)
	cat := r.deps.Catalogue.Snapshot()

	r.wg.Add(1)
	go r.run(xglog.ContextWithJobID(ctx, task.id), task, req, cat)
	return task, nil
}

// Wait blocks until every started worker has published its result.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Busy reports whether a task is in flight.
func (r *Runner) Busy() bool {
	if r.sem.TryAcquire(1) {
		r.sem.Release(1)
		return false
	}
	return true
}

func (r *Runner) validate(req Request) (Request, error) {
	v := validate.New()
	v.Host("host", req.Credential.Host)
	v.NotEmpty("username", req.Credential.Username)
	v.Secret("password", req.Credential.Password)
	if err := v.Err(); err != nil {
		return req, config.Errorf("start request", err)
	}
	if host, err := xnet.NormalizeHost(req.Credential.Host); err == nil {
		req.Credential.Host = host
	}

	if req.Mount != "" {
		name, err := mount.Normalize(req.Mount)
		if err != nil {
			return req, err
		}
		req.Mount = name
	}

	if r.deps.Settings != nil {
		if err := r.deps.Settings(); err != nil {
			if !errors.Is(err, config.ErrConfiguration) {
				err = config.Errorf("relay settings", err)
			}
			return req, err
		}
	}
	return req, nil
}

func (r *Runner) run(ctx context.Context, task *Task, req Request, cat catalogue.Catalogue) {
	defer r.wg.Done()

	started := time.Now()
	logger := xglog.WithContext(ctx, r.logger)
	res := Result{JobID: task.id, StartedAt: started}

	defer func() {
		if p := recover(); p != nil {
			logger.Error().
				Str(xglog.FieldEvent, "session.panic").
				Str("panic", fmt.Sprint(p)).
				Bytes("stack", debug.Stack()).
				Msg("task panicked")
			res = Result{JobID: task.id, StartedAt: started, Failure: &Failure{
				Reason:  ReasonInternal,
				Message: fmt.Sprintf("internal error: %v", p),
			}}
		}
		r.publish(task, res)
	}()

	res = r.execute(ctx, task, req, cat, res)
}

// publish stores the result, notifies, frees the slot and only then closes
// Done, so a caller woken by Done can start the next task.
func (r *Runner) publish(task *Task, res Result) {
	res.FinishedAt = time.Now()
	task.result = res

	outcome := "succeeded"
	if res.Failure != nil {
		outcome = string(res.Failure.Reason)
	}
	metrics.RecordTask(outcome, res.FinishedAt.Sub(res.StartedAt).Seconds())

	r.notify(res)
	r.sem.Release(1)
	close(task.done)
}

func (r *Runner) notify(res Result) {
	if r.deps.Notifier == nil {
		return
	}
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error().Str("panic", fmt.Sprint(p)).Str(xglog.FieldJobID, res.JobID).Msg("notifier panicked")
		}
	}()
	r.deps.Notifier.Notify(res)
}

func (r *Runner) execute(ctx context.Context, task *Task, req Request, cat catalogue.Catalogue, res Result) Result {
	ctx, span := r.tracer.Start(ctx, "session.run", trace.WithAttributes(telemetry.JobAttributes(task.id, "")...))
	defer span.End()

	logger := xglog.WithContext(ctx, r.logger).With().Object("camera", req.Credential).Logger()
	logger.Info().Str(xglog.FieldEvent, "session.start").Int("templates", len(cat)).Msg("discovery started")

	fail := func(stage string, err error) Result {
		res.Failure = NewFailure(err)
		telemetry.RecordError(span, err, string(res.Failure.Reason))
		logger.Warn().
			Str(xglog.FieldEvent, "session.failed").
			Str(xglog.FieldStage, stage).
			Str(xglog.FieldReason, string(res.Failure.Reason)).
			Err(err).
			Msg("start action failed")
		return res
	}

	if r.deps.Preflight != nil {
		if err := r.deps.Preflight(ctx); err != nil {
			if !errors.Is(err, config.ErrConfiguration) {
				err = config.Errorf("transcoder preflight", err)
			}
			return fail("preflight", err)
		}
	}

	var (
		probe     discovery.ProbeResult
		mountName string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(recovered(func() error {
		var err error
		probe, err = r.deps.Prober.Probe(gctx, req.Credential, cat)
		return err
	}))
	g.Go(recovered(func() error {
		var err error
		mountName, err = r.deps.Namer(req.Mount)
		return err
	}))
	if err := g.Wait(); err != nil {
		return fail("discover", err)
	}
	res.Template = probe.Template
	res.Mount = mountName

	port, err := r.deps.Resolver.Resolve(ctx, r.deps.IcecastHost)
	if err != nil {
		return fail("resolve", err)
	}
	res.Port = port

	sess, err := r.deps.Launcher.Launch(ctx, probe.URL, mountName, port)
	if err != nil {
		return fail("launch", err)
	}
	res.Relay = sess
	res.ViewerURL = sess.ViewerURL

	span.SetAttributes(telemetry.JobAttributes(task.id, "succeeded")...)
	logger.Info().
		Str(xglog.FieldEvent, "session.succeeded").
		Str(xglog.FieldTemplate, string(probe.Template)).
		Str(xglog.FieldMount, mountName).
		Int(xglog.FieldPort, port).
		Str(xglog.FieldViewerURL, sess.ViewerURL).
		Msg("relay published")
	return res
}

// recovered turns a panic in an errgroup goroutine into an error.
func recovered(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v", p)
			}
		}()
		return fn()
	}
}
