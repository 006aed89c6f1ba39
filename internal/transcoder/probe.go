// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package transcoder drives the external ffmpeg binary: bounded probes, detached
// relays and the version preflight.
package transcoder

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/camrelay/internal/config"
	"github.com/ManuGH/camrelay/internal/discovery"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/procgroup"
)

const (
	// DefaultBinary is used when no binary is configured.
	DefaultBinary = "ffmpeg"

	maxProbeOutput  = 32 << 10
	defaultKillWait = 2 * time.Second
	defaultIODelay  = time.Second
)

var _ discovery.ProbeRunner = (*ProbeRunner)(nil)

// ProbeRunner runs ffmpeg against a candidate URL into the null muxer.
type ProbeRunner struct {
	bin       string
	duration  time.Duration
	killGrace time.Duration
	logger    zerolog.Logger
}

// NewProbeRunner returns a runner reading duration of media per probe.
func NewProbeRunner(bin string, duration time.Duration) *ProbeRunner {
	if bin == "" {
		bin = DefaultBinary
	}
	return &ProbeRunner{
		bin:       bin,
		duration:  duration,
		killGrace: 500 * time.Millisecond,
		logger:    xglog.WithComponent("transcoder"),
	}
}

// RunProbe runs one bounded probe. When ctx ends first the process group is
// terminated and the outcome is flagged as timed out for deadline expiry.
func (r *ProbeRunner) RunProbe(ctx context.Context, url string) discovery.Outcome {
	// #nosec G204 -- binary comes from operator config; url is built by discovery
	cmd := exec.Command(r.bin, ProbeArgs(url, r.duration)...)
	procgroup.Set(cmd)
	cmd.WaitDelay = defaultIODelay

	out := newTailBuffer(maxProbeOutput)
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return discovery.Outcome{Started: false, ExitCode: -1, Err: err}
	}

	exited := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(exited)
	}()

	select {
	case <-exited:
		return outcomeFromWait(waitErr, out.Bytes())
	case <-ctx.Done():
	}

	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)
	if err := procgroup.Terminate(cmd, exited, r.killGrace, defaultKillWait); err != nil {
		r.logger.Warn().
			Err(err).
			Int(xglog.FieldPID, cmd.Process.Pid).
			Str(xglog.FieldURL, config.MaskURL(url)).
			Msg("probe process did not exit after SIGKILL")
		return discovery.Outcome{Started: true, TimedOut: timedOut, ExitCode: -1, Output: out.Bytes(), Err: err}
	}

	o := outcomeFromWait(waitErr, out.Bytes())
	o.TimedOut = timedOut
	if o.Err == nil {
		o.Err = ctx.Err()
	}
	return o
}

func outcomeFromWait(err error, output []byte) discovery.Outcome {
	o := discovery.Outcome{Started: true, Output: output}
	if err == nil {
		return o
	}
	o.Err = err
	o.ExitCode = -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		o.ExitCode = exitErr.ExitCode()
	}
	return o
}
