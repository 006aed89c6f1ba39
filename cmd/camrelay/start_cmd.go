// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ManuGH/camrelay/internal/config"
	"github.com/ManuGH/camrelay/internal/discovery"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/relay"
	"github.com/ManuGH/camrelay/internal/session"
	"github.com/ManuGH/camrelay/internal/transcoder"
)

// passwordEnv supplies the camera password when --password is omitted.
const passwordEnv = config.EnvPrefix + "CAMERA_PASSWORD"

type startOptions struct {
	host       string
	user       string
	password   string
	mount      string
	configPath string
	wait       bool
	stopGrace  time.Duration
	logDir     string
}

func parseStartFlags(args []string, stderr io.Writer) (startOptions, error) {
	var o startOptions
	fs := flag.NewFlagSet("camrelay start", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.host, "host", "", "camera IP address or host name")
	fs.StringVar(&o.user, "user", "", "camera user name")
	fs.StringVar(&o.password, "password", "", "camera password (or "+passwordEnv+")")
	fs.StringVar(&o.mount, "mount", "", "Icecast mount name; random when empty")
	fs.StringVar(&o.configPath, "config", "", "path to config file (YAML)")
	fs.BoolVar(&o.wait, "wait", false, "keep running until interrupted, then stop the relay")
	fs.DurationVar(&o.stopGrace, "stop-grace", 5*time.Second, "time the relay gets to exit after SIGTERM (with --wait)")
	fs.StringVar(&o.logDir, "log-dir", os.TempDir(), "directory for relay output when not waiting")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	if o.password == "" {
		o.password = config.ParseString(passwordEnv, "")
	}
	return o, nil
}

func runStart(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseStartFlags(args, stderr)
	if err != nil {
		if err != flag.ErrHelp {
			fmt.Fprintln(stderr, err)
		}
		return 2
	}

	cfg, err := loadConfig(resolveConfigPath(opts.configPath))
	if err != nil {
		return fail(stderr, "%v", err)
	}
	configureLogging(cfg, stderr)
	logger := xglog.WithComponent("cli")

	tp, err := setupTelemetry(ctx, cfg)
	if err != nil {
		return fail(stderr, "telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}()

	// Without --wait the relay must outlive this process, so its output goes
	// to a file instead of a pipe.
	starter := transcoder.NewRelayStarter(cfg.FFmpeg.Bin)
	if !opts.wait {
		starter = starter.WithLogDir(opts.logDir)
	}
	a, err := newApp(cfg, starter)
	if err != nil {
		return fail(stderr, "%v", err)
	}

	task, err := a.runner.Start(ctx, session.Request{
		Credential: discovery.Credential{Host: opts.host, Username: opts.user, Password: opts.password},
		Mount:      opts.mount,
	})
	if err != nil {
		return fail(stderr, "%v", err)
	}
	logger.Debug().Str(xglog.FieldJobID, task.ID()).Msg("discovery submitted")

	res := task.Result()
	if res.Failure != nil {
		return fail(stderr, "%s", res.Failure.Message)
	}
	fmt.Fprintln(stdout, res.ViewerURL)

	if !opts.wait {
		return 0
	}
	return waitRelay(ctx, res.Relay, opts.stopGrace, stderr)
}

// waitRelay blocks until ctx ends, then stops the relay, or until the relay
// exits on its own.
func waitRelay(ctx context.Context, s *relay.Session, grace time.Duration, stderr io.Writer) int {
	select {
	case <-ctx.Done():
		if err := s.Stop(grace); err != nil {
			return fail(stderr, "stop relay: %v", err)
		}
		return 0
	case <-s.Done():
		if err := s.Err(); err != nil {
			for _, line := range s.Diagnostics() {
				fmt.Fprintln(stderr, line)
			}
			return fail(stderr, "relay exited: %v", err)
		}
		return 0
	}
}
