// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/ManuGH/camrelay/internal/config"
	"github.com/ManuGH/camrelay/internal/log"
)

// PerformStartupChecks validates the environment before the control API starts.
// Missing relay settings only warn: the API still serves reads, and every
// start request is rejected with a configuration error until they are set.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig, preflight func(context.Context) (string, error)) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("Running pre-flight startup checks...")

	if err := checkListenAddr(logger, cfg.API.Listen); err != nil {
		return fmt.Errorf("listen address check failed: %w", err)
	}

	if cfg.Probe.CatalogueFile != "" {
		if err := checkFileReadable(cfg.Probe.CatalogueFile); err != nil {
			return fmt.Errorf("catalogue file check failed: %w", err)
		}
		logger.Info().Str("path", cfg.Probe.CatalogueFile).Msg("✓ Catalogue file is readable")
	}

	if preflight != nil {
		version, err := preflight(ctx)
		if err != nil {
			return fmt.Errorf("transcoder check failed: %w", err)
		}
		logger.Info().Str("ffmpeg", cfg.FFmpeg.Bin).Str("version", version).Msg("✓ Transcoder available")
	}

	if err := config.ValidateRelay(cfg); err != nil {
		logger.Warn().Err(err).Msg("relay settings incomplete; start requests will be rejected")
	} else {
		logger.Info().Str("icecast_host", cfg.Icecast.Host).Ints("ports", cfg.Icecast.Ports).Msg("✓ Relay settings complete")
	}

	logger.Info().Msg("✅ All startup checks passed")
	return nil
}

func checkListenAddr(logger zerolog.Logger, addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid API listen address %q: %w", addr, err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil || portNum < 0 || portNum > 65535 {
		return fmt.Errorf("invalid API listen port %q in %q", port, addr)
	}
	logger.Info().Str("addr", addr).Msg("✓ API listen address is valid")
	return nil
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
