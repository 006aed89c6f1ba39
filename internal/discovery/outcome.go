// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package discovery

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ManuGH/camrelay/internal/catalogue"
)

// Markers the transcoder prints once it has opened an input and found a stream.
var (
	markerInput  = []byte("Input #0")
	markerStream = []byte("Stream #0:")
)

// Outcome classes reported per probe attempt.
const (
	OutcomeOK          = "ok"
	OutcomeStartFailed = "start_failed"
	OutcomeTimeout     = "timeout"
	OutcomeExitNonZero = "exit_nonzero"
	OutcomeNoMarkers   = "no_markers"
	OutcomeCanceled    = "canceled"
)

// Outcome is what a ProbeRunner observed for one bounded probe.
type Outcome struct {
	// Started is false when the process could not be spawned at all.
	Started bool
	// TimedOut is set when the attempt deadline expired before the process exited.
	TimedOut bool
	// ExitCode is -1 when the process did not exit normally.
	ExitCode int
	// Output holds combined stdout and stderr, possibly truncated to a tail.
	Output []byte
	Err    error
}

// ProbeRunner runs one bounded probe of url. Implementations must return
// promptly once ctx is done.
type ProbeRunner interface {
	RunProbe(ctx context.Context, url string) Outcome
}

// ProbeRunnerFunc adapts a function to ProbeRunner.
type ProbeRunnerFunc func(ctx context.Context, url string) Outcome

// RunProbe calls f.
func (f ProbeRunnerFunc) RunProbe(ctx context.Context, url string) Outcome {
	return f(ctx, url)
}

// HasStreamMarkers reports whether output shows an opened input with at least
// one stream. Audio-only inputs qualify.
func HasStreamMarkers(output []byte) bool {
	return bytes.Contains(output, markerInput) && bytes.Contains(output, markerStream)
}

// Classify maps an Outcome to its outcome class. Only OutcomeOK is a success.
func Classify(o Outcome) string {
	switch {
	case !o.Started:
		return OutcomeStartFailed
	case o.TimedOut:
		return OutcomeTimeout
	case o.ExitCode != 0:
		return OutcomeExitNonZero
	case !HasStreamMarkers(o.Output):
		return OutcomeNoMarkers
	default:
		return OutcomeOK
	}
}

// ProbeResult describes one probed template.
type ProbeResult struct {
	Template catalogue.PathTemplate
	URL      string
	Success  bool
	Output   []byte
}

// ProbeFailure is an absorbed per-template failure. It only drives iteration.
type ProbeFailure struct {
	Template catalogue.PathTemplate
	Outcome  string
	Err      error
}

func (f *ProbeFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("probe %s: %s: %v", f.Template, f.Outcome, f.Err)
	}
	return fmt.Sprintf("probe %s: %s", f.Template, f.Outcome)
}

func (f *ProbeFailure) Unwrap() error { return f.Err }
