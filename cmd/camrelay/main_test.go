// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/camrelay/internal/catalogue"
	"github.com/ManuGH/camrelay/internal/relay"
	"github.com/ManuGH/camrelay/internal/testutil"
	"github.com/ManuGH/camrelay/internal/version"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Usage(t *testing.T) {
	code, _, stderr := runCLI(t)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "camrelay start")

	code, _, stderr = runCLI(t, "bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "Unknown command: bogus")
}

func TestRun_Version(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, 0, code)
	assert.True(t, strings.HasPrefix(stdout, version.Version))
}

func TestCatalogueCommand_PrintsDefaultOrder(t *testing.T) {
	t.Setenv("CAMRELAY_CONFIG", "")
	code, stdout, stderr := runCLI(t, "catalogue")
	require.Equal(t, 0, code, stderr)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	assert.Equal(t, catalogue.Default().Strings(), lines)
}

func TestCatalogueCommand_UsesConfiguredFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "paths.txt"), []byte("/b\n/a\n/b\n"), 0o600))
	cfgPath := filepath.Join(dir, "camrelay.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("probe:\n  catalogue_file: paths.txt\n"), 0o600))

	code, stdout, stderr := runCLI(t, "catalogue", "--config", cfgPath)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "/b\n/a\n", stdout)
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camrelay.yaml")

	code, stdout, stderr := runCLI(t, "config", "init", "--out", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, path)
	_, err := os.Stat(path)
	require.NoError(t, err)

	code, _, stderr = runCLI(t, "config", "init", "--out", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--force")

	code, _, _ = runCLI(t, "config", "init", "--out", path, "--force")
	assert.Equal(t, 0, code)

	// The written file loads back cleanly.
	code, _, stderr = runCLI(t, "config", "show", "--config", path)
	assert.Equal(t, 0, code, stderr)
}

func TestConfigShow_MasksSecrets(t *testing.T) {
	t.Setenv("CAMRELAY_CONFIG", "")
	t.Setenv("CAMRELAY_ICECAST_SECRET", "hunter2-icecast")

	for _, format := range []string{"yaml", "json"} {
		code, stdout, stderr := runCLI(t, "config", "show", "--format", format)
		require.Equal(t, 0, code, stderr)
		assert.NotContains(t, stdout, "hunter2-icecast")
		assert.Contains(t, stdout, "***")
	}

	code, _, _ := runCLI(t, "config", "show", "--format", "xml")
	assert.Equal(t, 2, code)
}

func TestStart_RejectsInvalidInput(t *testing.T) {
	t.Setenv("CAMRELAY_CONFIG", "")
	t.Setenv("CAMRELAY_CAMERA_PASSWORD", "")

	code, stdout, stderr := runCLI(t, "start", "--user", "admin", "--password", "pw")
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "configuration error")
}

func TestStart_RejectsMissingRelaySettings(t *testing.T) {
	t.Setenv("CAMRELAY_CONFIG", "")
	t.Setenv("CAMRELAY_ICECAST_HOST", "")
	t.Setenv("CAMRELAY_CAMERA_PASSWORD", "from-env")

	code, _, stderr := runCLI(t, "start", "--host", "10.0.0.5", "--user", "admin")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "relay settings")
	assert.NotContains(t, stderr, "from-env")
}

func TestStart_RejectsStrayArguments(t *testing.T) {
	code, _, stderr := runCLI(t, "start", "--host", "h", "extra")
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr, "unexpected arguments")
}

func TestParseStartFlags_PasswordFromEnv(t *testing.T) {
	t.Setenv(passwordEnv, "s3cret")

	o, err := parseStartFlags([]string{"--host", "10.0.0.5", "--user", "admin"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", o.password)

	o, err = parseStartFlags([]string{"--host", "10.0.0.5", "--user", "admin", "--password", "flag"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "flag", o.password)
}

func launchFake(t *testing.T) (*relay.Session, *testutil.FakeProcess) {
	t.Helper()
	starter := &testutil.FakeStarter{}
	l := relay.NewLauncher(starter, relay.Options{Host: "icecast.test", PublishUser: "source", PublishSecret: "x"})
	s, err := l.Launch(context.Background(), "rtsp://cam/stream1", "m.webm", 8000)
	require.NoError(t, err)
	return s, starter.Processes()[0]
}

func TestWaitRelay_StopsOnCancel(t *testing.T) {
	s, proc := launchFake(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code := waitRelay(ctx, s, time.Millisecond, &bytes.Buffer{})
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, proc.Stops())
}

func TestWaitRelay_ReportsUnexpectedExit(t *testing.T) {
	s, proc := launchFake(t)
	proc.SetDiagnostics("Connection refused")
	proc.Exit(errors.New("exit status 1"))

	var stderr bytes.Buffer
	code := waitRelay(context.Background(), s, time.Millisecond, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "Connection refused")
	assert.Contains(t, stderr.String(), "relay exited")
}
