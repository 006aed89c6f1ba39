// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package transcoder

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/metrics"
	"github.com/ManuGH/camrelay/internal/procgroup"
	"github.com/ManuGH/camrelay/internal/relay"
)

const diagnosticLines = 64

var _ relay.Starter = (*RelayStarter)(nil)

// RelayStarter spawns long-running ffmpeg relays in their own process group.
type RelayStarter struct {
	bin    string
	logDir string
	logger zerolog.Logger
}

// NewRelayStarter returns a starter for bin.
func NewRelayStarter(bin string) *RelayStarter {
	if bin == "" {
		bin = DefaultBinary
	}
	return &RelayStarter{bin: bin, logger: xglog.WithComponent("transcoder")}
}

// WithLogDir makes every relay write its output to a file in dir instead of
// an in-memory ring. Relays then hold no pipe to this process and survive
// its exit.
func (s *RelayStarter) WithLogDir(dir string) *RelayStarter {
	s.logDir = dir
	return s
}

// StartRelay starts the relay and returns without waiting for it. A reaper
// goroutine owns cmd.Wait and records the exit.
func (s *RelayStarter) StartRelay(c relay.Command) (relay.Process, error) {
	args := RelayArgs(c)
	// #nosec G204 -- binary comes from operator config; args are built from the fixed encoding policy
	cmd := exec.Command(s.bin, args...)
	procgroup.Set(cmd)
	cmd.WaitDelay = defaultIODelay

	var (
		ring    *LineRing
		logFile *os.File
	)
	if s.logDir != "" {
		name := filepath.Join(s.logDir, fmt.Sprintf("camrelay-relay-%d.log", time.Now().UnixNano()))
		// #nosec G304 -- dir comes from the operator; the name is generated
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open relay log: %w", err)
		}
		logFile = f
		cmd.Stdout = f
		cmd.Stderr = f
	} else {
		ring = NewLineRing(diagnosticLines)
		cmd.Stdout = ring
		cmd.Stderr = ring
	}

	err := cmd.Start()
	if logFile != nil {
		// The child holds its own descriptor.
		_ = logFile.Close()
	}
	if err != nil {
		return nil, err
	}

	logger := s.logger.With().Int(xglog.FieldPID, cmd.Process.Pid).Logger()
	p := &process{
		cmd:    cmd,
		ring:   ring,
		done:   make(chan struct{}),
		logger: logger,
	}
	if logFile != nil {
		p.logPath = logFile.Name()
	}
	p.logger.Debug().
		Str(xglog.FieldEvent, "relay.exec").
		Str("args", strings.Join(MaskArgs(args), " ")).
		Msg("relay process started")

	go p.reap()
	return p, nil
}

type process struct {
	cmd     *exec.Cmd
	ring    *LineRing
	done    chan struct{}
	err     error
	logPath string
	stopped atomic.Bool
	logger  zerolog.Logger
}

func (p *process) reap() {
	err := p.cmd.Wait()
	p.err = err
	close(p.done)

	reason := "exited"
	switch {
	case p.stopped.Load():
		reason = "stopped"
	case err != nil:
		reason = "failed"
	}
	metrics.IncRelayExit(reason)

	ev := p.logger.Info()
	if reason == "failed" {
		ev = p.logger.Warn().Strs("stderr_tail", p.tail(8))
	}
	exitCode := -1
	var exitErr *exec.ExitError
	if err == nil {
		exitCode = 0
	} else if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	ev.Str(xglog.FieldEvent, "relay.exit").
		Str(xglog.FieldReason, reason).
		Int(xglog.FieldExitCode, exitCode).
		AnErr("wait_error", err).
		Msg("relay process exited")
}

func (p *process) PID() int              { return p.cmd.Process.Pid }
func (p *process) Done() <-chan struct{} { return p.done }

func (p *process) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *process) Stop(grace time.Duration) error {
	p.stopped.Store(true)
	return procgroup.Terminate(p.cmd, p.done, grace, defaultKillWait)
}

func (p *process) Diagnostics() []string {
	return p.tail(diagnosticLines)
}

func (p *process) tail(n int) []string {
	if p.ring == nil {
		return []string{"output written to " + p.logPath}
	}
	return p.ring.LastN(n)
}
