// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package discovery finds the first working RTSP endpoint of a camera by
// probing an ordered catalogue of vendor path templates.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ManuGH/camrelay/internal/catalogue"
	"github.com/ManuGH/camrelay/internal/config"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/metrics"
	"github.com/ManuGH/camrelay/internal/telemetry"
)

// ErrNotFound is returned once every template of the catalogue failed.
var ErrNotFound = errors.New("could not detect camera stream")

const defaultProbeTimeout = 8 * time.Second

// Options tunes a Prober.
type Options struct {
	// Timeout bounds every single attempt.
	Timeout time.Duration
	// Interval paces consecutive attempts. Zero disables pacing.
	Interval time.Duration
	// RTSPPort is embedded into every candidate URL.
	RTSPPort int
}

// Prober walks a catalogue in order and stops at the first validated stream.
type Prober struct {
	runner  ProbeRunner
	opts    Options
	limiter *rate.Limiter
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// NewProber returns a Prober backed by runner.
func NewProber(runner ProbeRunner, opts Options) *Prober {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultProbeTimeout
	}
	if opts.RTSPPort <= 0 {
		opts.RTSPPort = DefaultRTSPPort
	}
	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}
	return &Prober{
		runner:  runner,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		tracer:  telemetry.Tracer("github.com/ManuGH/camrelay/internal/discovery"),
		logger:  xglog.WithComponent("discovery"),
	}
}

// Probe tries every template of cat exactly once, in order. The first attempt
// that satisfies the success predicate wins and ends iteration. ErrNotFound
// is returned when the catalogue is exhausted; a canceled ctx stops iteration
// and returns the context error.
func (p *Prober) Probe(ctx context.Context, cred Credential, cat catalogue.Catalogue) (ProbeResult, error) {
	ctx, span := p.tracer.Start(ctx, "discovery.probe", trace.WithAttributes(
		attribute.String(telemetry.CameraHostKey, cred.Host),
		attribute.Int(telemetry.ProbeTemplatesKey, len(cat)),
	))
	defer span.End()

	logger := xglog.WithContext(ctx, p.logger).With().
		Object("camera", cred).
		Logger()

	for i, tmpl := range cat {
		if err := p.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			}
			metrics.IncDiscovery("canceled")
			telemetry.RecordError(span, err, OutcomeCanceled)
			return ProbeResult{}, fmt.Errorf("probe canceled before %s: %w", tmpl, err)
		}

		url := CandidateURL(cred, p.opts.RTSPPort, tmpl)
		start := time.Now()
		out := p.attempt(ctx, url)
		elapsed := time.Since(start)

		if err := ctx.Err(); err != nil {
			metrics.IncProbeAttempt(OutcomeCanceled, elapsed.Seconds())
			metrics.IncDiscovery("canceled")
			telemetry.RecordError(span, err, OutcomeCanceled)
			return ProbeResult{}, fmt.Errorf("probe canceled at %s: %w", tmpl, err)
		}

		outcome := Classify(out)
		metrics.IncProbeAttempt(outcome, elapsed.Seconds())
		span.AddEvent("probe.attempt", trace.WithAttributes(
			telemetry.ProbeAttemptAttributes(string(tmpl), i+1, outcome)...,
		))

		if outcome == OutcomeOK {
			logger.Info().
				Str(xglog.FieldEvent, "probe.found").
				Str(xglog.FieldTemplate, string(tmpl)).
				Int(xglog.FieldAttempt, i+1).
				Str(xglog.FieldURL, config.MaskURL(url)).
				Dur("duration", elapsed).
				Msg("camera stream detected")
			metrics.IncDiscovery("found")
			return ProbeResult{Template: tmpl, URL: url, Success: true, Output: out.Output}, nil
		}

		failure := &ProbeFailure{Template: tmpl, Outcome: outcome, Err: out.Err}
		logger.Debug().
			Str(xglog.FieldEvent, "probe.failed").
			Str(xglog.FieldTemplate, string(tmpl)).
			Int(xglog.FieldAttempt, i+1).
			Str(xglog.FieldOutcome, outcome).
			Int(xglog.FieldExitCode, out.ExitCode).
			Str(xglog.FieldURL, config.MaskURL(url)).
			Err(failure).
			Msg("template rejected")
	}

	metrics.IncDiscovery("not_found")
	telemetry.RecordError(span, ErrNotFound, "not_found")
	logger.Warn().
		Str(xglog.FieldEvent, "probe.exhausted").
		Int("templates", len(cat)).
		Msg("no template produced a stream")
	return ProbeResult{}, fmt.Errorf("%w: %d templates tried on %s", ErrNotFound, len(cat), cred.Host)
}

// attempt runs one probe under its own deadline. An attempt whose deadline
// fired is reported as timed out even if the runner did not flag it.
func (p *Prober) attempt(ctx context.Context, url string) Outcome {
	attemptCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	out := p.runner.RunProbe(attemptCtx, url)
	if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && Classify(out) != OutcomeOK {
		out.TimedOut = true
	}
	return out
}
