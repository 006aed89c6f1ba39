// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"time"

	"github.com/ManuGH/camrelay/internal/validate"
)

// Validate checks the configuration without requiring relay secrets, so
// read-only commands (catalogue listing, config dumps) work on a bare install.
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.OneOf("LogFormat", cfg.LogFormat, []string{"json", "console"})
	v.NotEmpty("FFmpeg.Bin", cfg.FFmpeg.Bin)
	v.DurationRange("FFmpeg.PreflightTimeout", cfg.FFmpeg.PreflightTimeout, time.Second, time.Minute)

	v.DurationRange("Probe.Timeout", cfg.Probe.Timeout, time.Second, 2*time.Minute)
	v.DurationRange("Probe.Duration", cfg.Probe.Duration, time.Second, time.Minute)
	if cfg.Probe.Duration >= cfg.Probe.Timeout {
		v.AddError("Probe.Duration", "must be shorter than Probe.Timeout", cfg.Probe.Duration.String())
	}
	v.NonNegativeDuration("Probe.Interval", cfg.Probe.Interval)
	v.Port("Probe.RTSPPort", cfg.Probe.RTSPPort)

	if cfg.Icecast.Host != "" {
		v.Host("Icecast.Host", cfg.Icecast.Host)
	}
	v.Ports("Icecast.Ports", cfg.Icecast.Ports)
	v.DurationRange("Icecast.DialTimeout", cfg.Icecast.DialTimeout, 100*time.Millisecond, time.Minute)

	v.NotEmpty("API.Listen", cfg.API.Listen)
	v.Positive("API.RateLimit", cfg.API.RateLimit)

	if cfg.Telemetry.Enabled {
		v.OneOf("Telemetry.Exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("Telemetry.Endpoint", cfg.Telemetry.Endpoint)
	}

	return v.Err()
}

// ValidateRelay checks the settings needed to actually publish to Icecast.
// A failure is a configuration error for the start action.
func ValidateRelay(cfg AppConfig) error {
	v := validate.New()
	v.Host("Icecast.Host", cfg.Icecast.Host)
	v.NotEmpty("Icecast.PublishUser", cfg.Icecast.PublishUser)
	v.Secret("Icecast.PublishSecret", cfg.Icecast.PublishSecret)
	return Errorf("relay settings", v.Err())
}
