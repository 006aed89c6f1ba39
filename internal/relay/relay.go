// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package relay publishes a discovered camera stream to Icecast through a
// detached transcoder process.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/camrelay/internal/config"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/metrics"
	xnet "github.com/ManuGH/camrelay/internal/platform/net"
	"github.com/ManuGH/camrelay/internal/telemetry"
)

// Process is a running relay. Done closes once the process has exited.
type Process interface {
	PID() int
	Done() <-chan struct{}
	// Err is the exit error; only meaningful after Done is closed.
	Err() error
	// Stop terminates the whole process group, escalating to SIGKILL after grace.
	Stop(grace time.Duration) error
	// Diagnostics returns the last lines the process wrote to stderr.
	Diagnostics() []string
}

// Starter spawns relay processes. Processes must outlive the caller's context.
type Starter interface {
	StartRelay(cmd Command) (Process, error)
}

// LaunchError reports a relay process that could not be started.
type LaunchError struct {
	Mount string
	Err   error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start relay for %s: %v", e.Mount, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// ErrNoProcess is returned by Session methods on a session without a process.
var ErrNoProcess = errors.New("relay session has no process")

// Session is one launched relay. Only the Launcher builds sessions.
type Session struct {
	ID           string
	CandidateURL string
	Mount        string
	Port         int
	ViewerURL    string
	StartedAt    time.Time

	process Process
}

// PID returns the relay process id.
func (s *Session) PID() int {
	if s.process == nil {
		return 0
	}
	return s.process.PID()
}

// Done closes when the relay process exits.
func (s *Session) Done() <-chan struct{} {
	if s.process == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.process.Done()
}

// Running reports whether the relay process is still alive.
func (s *Session) Running() bool {
	select {
	case <-s.Done():
		return false
	default:
		return true
	}
}

// Err returns the exit error of a finished relay.
func (s *Session) Err() error {
	if s.process == nil {
		return ErrNoProcess
	}
	return s.process.Err()
}

// Stop terminates the relay. Stopping an exited relay is a no-op.
func (s *Session) Stop(grace time.Duration) error {
	if s.process == nil {
		return ErrNoProcess
	}
	if !s.Running() {
		return nil
	}
	return s.process.Stop(grace)
}

// Diagnostics returns the tail of the relay's stderr.
func (s *Session) Diagnostics() []string {
	if s.process == nil {
		return nil
	}
	return s.process.Diagnostics()
}

// Options configures a Launcher.
type Options struct {
	Host        string
	PublishUser string
	// PublishSecret is the Icecast source password. It is required.
	PublishSecret string
	Encoding      Encoding
}

// Launcher builds relay commands and starts them detached.
type Launcher struct {
	opts    Options
	starter Starter
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewLauncher returns a Launcher that publishes through starter.
func NewLauncher(starter Starter, opts Options) *Launcher {
	if opts.Encoding == (Encoding{}) {
		opts.Encoding = DefaultEncoding()
	}
	return &Launcher{
		opts:    opts,
		starter: starter,
		tracer:  telemetry.Tracer("github.com/ManuGH/camrelay/internal/relay"),
		logger:  xglog.WithComponent("relay"),
	}
}

// Launch starts a relay of candidateURL to mount on the resolved Icecast port.
// The process is not bound to ctx and keeps running after Launch returns.
func (l *Launcher) Launch(ctx context.Context, candidateURL, mount string, port int) (*Session, error) {
	ctx, span := l.tracer.Start(ctx, "relay.launch", trace.WithAttributes(
		telemetry.RelayAttributes(l.opts.Host, port, mount)...,
	))
	defer span.End()

	logger := xglog.WithContext(ctx, l.logger).With().
		Str(xglog.FieldMount, mount).
		Int(xglog.FieldPort, port).
		Logger()

	publish := PublishURL(l.opts.PublishUser, l.opts.PublishSecret, l.opts.Host, port, mount)
	cmd := Command{InputURL: candidateURL, PublishURL: publish, Encoding: l.opts.Encoding}

	proc, err := l.starter.StartRelay(cmd)
	if err != nil {
		metrics.IncRelayLaunch("error")
		telemetry.RecordError(span, err, "launch_failed")
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "relay.launch_failed").
			Str(xglog.FieldURL, config.MaskURL(publish)).
			Msg("relay process could not be started")
		return nil, &LaunchError{Mount: mount, Err: err}
	}

	s := &Session{
		ID:           uuid.NewString(),
		CandidateURL: candidateURL,
		Mount:        mount,
		Port:         port,
		ViewerURL:    ViewerURL(l.opts.Host, port, mount),
		StartedAt:    time.Now(),
		process:      proc,
	}
	metrics.IncRelayLaunch("ok")
	logger.Info().
		Str(xglog.FieldEvent, "relay.started").
		Str(xglog.FieldSessionID, s.ID).
		Int(xglog.FieldPID, proc.PID()).
		Str(xglog.FieldURL, config.MaskURL(candidateURL)).
		Str(xglog.FieldViewerURL, s.ViewerURL).
		Msg("relay running")
	return s, nil
}

// PublishURL is the icecast:// source endpoint, credentials included.
func PublishURL(user, secret, host string, port int, mount string) string {
	u := url.URL{
		Scheme: "icecast",
		User:   url.UserPassword(user, secret),
		Host:   xnet.JoinHostPort(host, port),
		Path:   "/" + strings.TrimPrefix(mount, "/"),
	}
	return u.String()
}

// ViewerURL is the public http:// listen URL. The port is always explicit.
func ViewerURL(host string, port int, mount string) string {
	u := url.URL{
		Scheme: "http",
		Host:   xnet.JoinHostPort(host, port),
		Path:   "/" + strings.TrimPrefix(mount, "/"),
	}
	return u.String()
}
