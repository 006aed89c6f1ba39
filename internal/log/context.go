// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package log provides structured logging utilities built on zerolog.
package log

import (
	"context"

	"github.com/rs/zerolog"
)

// correlation holds the IDs that tie log lines of one request or task together.
type correlation struct {
	requestID string
	jobID     string
}

type correlationKey struct{}

func correlationFrom(ctx context.Context) correlation {
	if ctx == nil {
		return correlation{}
	}
	c, _ := ctx.Value(correlationKey{}).(correlation)
	return c
}

func withCorrelation(ctx context.Context, update func(*correlation)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	c := correlationFrom(ctx)
	update(&c)
	return context.WithValue(ctx, correlationKey{}, c)
}

// ContextWithRequestID returns ctx carrying the HTTP request ID. A nil ctx is
// treated as context.Background().
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, func(c *correlation) { c.requestID = id })
}

// ContextWithJobID returns ctx carrying the start-task ID.
func ContextWithJobID(ctx context.Context, id string) context.Context {
	return withCorrelation(ctx, func(c *correlation) { c.jobID = id })
}

func RequestIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx).requestID
}

func JobIDFromContext(ctx context.Context) string {
	return correlationFrom(ctx).jobID
}

// WithContext adds request_id and job_id from ctx to logger. Logger is
// returned unchanged when ctx carries neither.
func WithContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	c := correlationFrom(ctx)
	if c.requestID == "" && c.jobID == "" {
		return logger
	}
	b := logger.With()
	if c.requestID != "" {
		b = b.Str(FieldRequestID, c.requestID)
	}
	if c.jobID != "" {
		b = b.Str(FieldJobID, c.jobID)
	}
	return b.Logger()
}

// WithComponentFromContext is WithComponent plus the correlation fields of ctx.
func WithComponentFromContext(ctx context.Context, component string) zerolog.Logger {
	return WithContext(ctx, WithComponent(component))
}
