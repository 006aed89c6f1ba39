// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"flag"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/camrelay/internal/api"
	"github.com/ManuGH/camrelay/internal/catalogue"
	"github.com/ManuGH/camrelay/internal/health"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/telemetry"
	"github.com/ManuGH/camrelay/internal/transcoder"
	"github.com/ManuGH/camrelay/internal/version"
)

const (
	shutdownTimeout    = 30 * time.Second
	transcoderCheckTTL = 30 * time.Second
)

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("camrelay serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	// Safe defaults until the config is loaded.
	xglog.Configure(xglog.Config{Level: "info", Output: stderr, Service: "camrelay", Version: version.Version})
	logger := xglog.WithComponent("daemon")

	path := resolveConfigPath(*configPath)
	cfg, err := loadConfig(path)
	if err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "config.load_failed").
			Str("config_path", path).
			Msg("failed to load configuration")
		return 1
	}
	configureLogging(cfg, stderr)
	logger = xglog.WithComponent("daemon")
	if path != "" {
		logger.Info().Str(xglog.FieldEvent, "config.loaded").Str("source", "file").Str("path", path).Msg("loaded configuration from file")
	} else {
		logger.Info().Str(xglog.FieldEvent, "config.loaded").Str("source", "env+defaults").Msg("loaded configuration from environment and defaults")
	}
	logger.Debug().Interface("config", cfg.Masked()).Msg("effective configuration")

	tp, err := setupTelemetry(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "telemetry.init_failed").Msg("failed to initialise tracing")
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("tracer shutdown failed")
		}
	}()

	a, err := newApp(cfg, transcoder.NewRelayStarter(cfg.FFmpeg.Bin))
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "startup.wiring_failed").Msg("failed to build relay pipeline")
		return 1
	}

	if err := health.PerformStartupChecks(ctx, cfg, a.preflight); err != nil {
		logger.Error().
			Err(err).
			Str(xglog.FieldEvent, "startup.check_failed").
			Msg("Startup checks failed. Please verify configuration and the transcoder installation.")
		return 1
	}

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewTranscoderChecker(a.preflight, transcoderCheckTTL))
	hm.RegisterChecker(a.lastTask)
	hm.RegisterChecker(health.NewSessionChecker(a.runner.Busy))
	if cfg.Probe.CatalogueFile != "" {
		hm.RegisterChecker(health.NewFileChecker("catalogue", cfg.Probe.CatalogueFile))
	}

	srv := api.New(api.Deps{
		Runner:         a.runner,
		Catalogue:      a.store,
		Health:         hm,
		BaseContext:    ctx,
		RateLimit:      cfg.API.RateLimit,
		TracingService: telemetry.DefaultServiceName,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return api.Serve(gctx, cfg.API.Listen, srv.Handler(), shutdownTimeout)
	})
	if cfg.Probe.CatalogueFile != "" {
		g.Go(func() error {
			return catalogue.NewWatcher(cfg.Probe.CatalogueFile, a.store).Run(gctx)
		})
	}

	err = g.Wait()
	a.runner.Wait()
	if n := srv.StopRelays(api.DefaultStopGrace); n > 0 {
		logger.Info().Int("relays", n).Msg("stopped running relays")
	}
	if err != nil {
		logger.Error().Err(err).Str(xglog.FieldEvent, "daemon.failed").Msg("daemon stopped with error")
		return 1
	}
	logger.Info().Str(xglog.FieldEvent, "daemon.stopped").Msg("daemon stopped")
	return 0
}
