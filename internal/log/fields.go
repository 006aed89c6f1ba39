// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldJobID     = "job_id"
	FieldRequestID = "request_id"
	FieldSessionID = "session_id"

	// Process / pipeline fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldStage     = "stage"
	FieldPID       = "pid"
	FieldExitCode  = "exit_code"

	// Discovery fields
	FieldHost     = "host"
	FieldTemplate = "template"
	FieldAttempt  = "attempt"
	FieldOutcome  = "outcome"
	FieldURL      = "url" // always masked

	// Relay fields
	FieldMount     = "mount"
	FieldPort      = "port"
	FieldViewerURL = "viewer_url"
	FieldReason    = "reason"
)
