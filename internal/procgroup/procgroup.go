// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup starts transcoder processes in their own process group and
// tears whole groups down on timeout or stop.
package procgroup

import (
	"errors"
	"os/exec"
	"syscall"
	"time"

	"github.com/ManuGH/camrelay/internal/metrics"
)

// ErrKillFailed reports a group that outlived SIGKILL plus the kill wait.
var ErrKillFailed = errors.New("kill operation failed")

// Terminate stops a process group started with Set. It sends SIGTERM, waits up
// to grace for exited to close, then sends SIGKILL and waits up to killWait.
// exited must be closed by whoever owns cmd.Wait. Safe on nil commands.
func Terminate(cmd *exec.Cmd, exited <-chan struct{}, grace, killWait time.Duration) error {
	if cmd == nil || cmd.Process == nil {
		return nil
	}

	if err := Kill(cmd, syscall.SIGTERM); err != nil {
		metrics.IncProcTerminate("SIGTERM", "error")
	} else {
		metrics.IncProcTerminate("SIGTERM", "sent")
	}

	select {
	case <-exited:
		return nil
	case <-time.After(grace):
	}

	if err := Kill(cmd, syscall.SIGKILL); err != nil {
		metrics.IncProcTerminate("SIGKILL", "error")
	} else {
		metrics.IncProcTerminate("SIGKILL", "sent")
	}

	select {
	case <-exited:
		return nil
	case <-time.After(killWait):
		return ErrKillFailed
	}
}
