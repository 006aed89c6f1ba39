// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package procgroup

import (
	"bufio"
	"os/exec"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func startGroup(t *testing.T, script string) (*exec.Cmd, <-chan struct{}) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()
	return cmd, exited
}

func TestTerminateGroupWithSIGTERM(t *testing.T) {
	cmd, exited := startGroup(t, "sleep 100 & sleep 100")

	pid := cmd.Process.Pid
	pgid, err := syscall.Getpgid(pid)
	require.NoError(t, err)
	require.Equal(t, pid, pgid, "PID should be PGID leader")

	require.NoError(t, Terminate(cmd, exited, 2*time.Second, time.Second))

	select {
	case <-exited:
	default:
		t.Fatal("group leader should have exited")
	}
}

func TestTerminateEscalatesToSIGKILL(t *testing.T) {
	cmd := exec.Command("sh", "-c", "trap '' TERM; echo ready; while true; do sleep 1; done")
	Set(cmd)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	// SIGTERM must not land before the trap is installed.
	line, err := bufio.NewReader(stdout).ReadString('\n')
	require.NoError(t, err)
	require.Equal(t, "ready\n", line)

	exited := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(exited)
	}()

	start := time.Now()
	require.NoError(t, Terminate(cmd, exited, 200*time.Millisecond, 2*time.Second))
	require.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)

	select {
	case <-exited:
	default:
		t.Fatal("process should have exited after SIGKILL")
	}
}

func TestKillAlreadyGone(t *testing.T) {
	cmd, exited := startGroup(t, "exit 0")
	<-exited
	require.NoError(t, Kill(cmd, syscall.SIGTERM), "Should not fail if process is already gone")
	require.NoError(t, Terminate(cmd, exited, 10*time.Millisecond, 10*time.Millisecond))
}

func TestTerminateNilCommand(t *testing.T) {
	require.NoError(t, Terminate(nil, nil, time.Millisecond, time.Millisecond))
}
