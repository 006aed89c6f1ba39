// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ManuGH/camrelay/internal/catalogue"
	"github.com/ManuGH/camrelay/internal/config"
	"github.com/ManuGH/camrelay/internal/discovery"
	"github.com/ManuGH/camrelay/internal/health"
	"github.com/ManuGH/camrelay/internal/ingest"
	xglog "github.com/ManuGH/camrelay/internal/log"
	"github.com/ManuGH/camrelay/internal/relay"
	"github.com/ManuGH/camrelay/internal/session"
	"github.com/ManuGH/camrelay/internal/telemetry"
	"github.com/ManuGH/camrelay/internal/transcoder"
	"github.com/ManuGH/camrelay/internal/version"
)

// resolveConfigPath prefers --config, then CAMRELAY_CONFIG.
func resolveConfigPath(flagValue string) string {
	if p := strings.TrimSpace(flagValue); p != "" {
		return p
	}
	return strings.TrimSpace(config.ParseString(config.EnvPrefix+"CONFIG", ""))
}

func loadConfig(path string) (config.AppConfig, error) {
	return config.NewLoader(path, version.Version).Load()
}

func configureLogging(cfg config.AppConfig, out io.Writer) {
	xglog.Configure(xglog.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Output:  out,
		Service: "camrelay",
		Version: cfg.Version,
	})
}

func setupTelemetry(ctx context.Context, cfg config.AppConfig) (*telemetry.Provider, error) {
	return telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    telemetry.DefaultServiceName,
		ServiceVersion: cfg.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
}

func loadCatalogue(cfg config.AppConfig) (catalogue.Catalogue, error) {
	if cfg.Probe.CatalogueFile == "" {
		return catalogue.Default(), nil
	}
	cat, err := catalogue.LoadFile(cfg.Probe.CatalogueFile)
	if err != nil {
		return nil, config.Errorf("catalogue", err)
	}
	return cat, nil
}

// app holds the wired pipeline shared by start and serve.
type app struct {
	cfg       config.AppConfig
	store     *catalogue.Store
	runner    *session.Runner
	lastTask  *health.LastTaskChecker
	preflight func(ctx context.Context) (string, error)
}

func newApp(cfg config.AppConfig, starter relay.Starter) (*app, error) {
	cat, err := loadCatalogue(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		store:    catalogue.NewStore(cat),
		lastTask: health.NewLastTaskChecker(),
		preflight: func(ctx context.Context) (string, error) {
			return transcoder.Preflight(ctx, cfg.FFmpeg.Bin, cfg.FFmpeg.PreflightTimeout)
		},
	}

	prober := discovery.NewProber(
		transcoder.NewProbeRunner(cfg.FFmpeg.Bin, cfg.Probe.Duration),
		discovery.Options{
			Timeout:  cfg.Probe.Timeout,
			Interval: cfg.Probe.Interval,
			RTSPPort: cfg.Probe.RTSPPort,
		},
	)
	launcher := relay.NewLauncher(starter, relay.Options{
		Host:          cfg.Icecast.Host,
		PublishUser:   cfg.Icecast.PublishUser,
		PublishSecret: cfg.Icecast.PublishSecret,
	})

	a.runner = session.NewRunner(session.Deps{
		Prober:      prober,
		Resolver:    ingest.NewResolver(cfg.Icecast.Ports, cfg.Icecast.DialTimeout, nil),
		Launcher:    launcher,
		Catalogue:   a.store,
		IcecastHost: cfg.Icecast.Host,
		Settings:    func() error { return config.ValidateRelay(cfg) },
		Preflight: func(ctx context.Context) error {
			_, err := a.preflight(ctx)
			return err
		},
		Notifier: a.lastTask,
	})
	return a, nil
}

func fail(w io.Writer, format string, args ...any) int {
	fmt.Fprintf(w, "Error: "+format+"\n", args...)
	return 1
}
