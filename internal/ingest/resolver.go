// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package ingest picks the Icecast port a relay publishes to.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/metrics"
	xnet "github.com/ManuGH/camrelay/internal/platform/net"
	"github.com/ManuGH/camrelay/internal/telemetry"
)

// ErrUnreachable is returned when no candidate port accepted a connection.
var ErrUnreachable = errors.New("icecast server unreachable")

// DefaultPorts are tried in this order.
var DefaultPorts = []int{80, 8000}

const defaultDialTimeout = 3 * time.Second

// Dialer is the subset of net.Dialer the resolver needs.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Resolver finds the first reachable ingest port.
type Resolver struct {
	ports   []int
	timeout time.Duration
	dialer  Dialer
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewResolver returns a Resolver trying ports in order. A nil dialer uses net.Dialer.
func NewResolver(ports []int, timeout time.Duration, dialer Dialer) *Resolver {
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return &Resolver{
		ports:   append([]int(nil), ports...),
		timeout: timeout,
		dialer:  dialer,
		tracer:  telemetry.Tracer("github.com/ManuGH/camrelay/internal/ingest"),
		logger:  xglog.WithComponent("ingest"),
	}
}

// Ports returns the candidate ports in preference order.
func (r *Resolver) Ports() []int {
	return append([]int(nil), r.ports...)
}

// Resolve dials each port of host in order and returns the first that accepts.
// The probe connection is closed immediately.
func (r *Resolver) Resolve(ctx context.Context, host string) (int, error) {
	ctx, span := r.tracer.Start(ctx, "ingest.resolve", trace.WithAttributes(
		attribute.String(telemetry.IcecastHostKey, host),
	))
	defer span.End()

	logger := xglog.WithContext(ctx, r.logger).With().Str(xglog.FieldHost, host).Logger()

	var errs []error
	for _, port := range r.ports {
		if err := ctx.Err(); err != nil {
			metrics.IncIngestResolve("canceled")
			return 0, fmt.Errorf("resolve ingest port: %w", err)
		}

		dialCtx, cancel := context.WithTimeout(ctx, r.timeout)
		conn, err := r.dialer.DialContext(dialCtx, "tcp", xnet.JoinHostPort(host, port))
		cancel()

		if err != nil {
			logger.Debug().Err(err).Int(xglog.FieldPort, port).Msg("ingest port rejected")
			errs = append(errs, fmt.Errorf("port %d: %w", port, err))
			continue
		}
		_ = conn.Close()

		span.SetAttributes(attribute.Int(telemetry.IcecastPortKey, port))
		metrics.IncIngestResolve("ok")
		logger.Info().Int(xglog.FieldPort, port).Msg("ingest port resolved")
		return port, nil
	}

	if err := ctx.Err(); err != nil {
		metrics.IncIngestResolve("canceled")
		return 0, fmt.Errorf("resolve ingest port: %w", err)
	}

	metrics.IncIngestResolve("unreachable")
	err := fmt.Errorf("%w on ports %s: %w", ErrUnreachable, portList(r.ports), errors.Join(errs...))
	telemetry.RecordError(span, err, "port_unreachable")
	logger.Warn().Ints("ports", r.ports).Msg("no ingest port reachable")
	return 0, err
}

func portList(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ", ")
}
