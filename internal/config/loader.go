// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment key consumed by the loader.
const EnvPrefix = "CAMRELAY_"

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseString(EnvPrefix+key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseInt(EnvPrefix+key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseBool(EnvPrefix+key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[EnvPrefix+key] = struct{}{}
	return ParseDuration(EnvPrefix+key, defaultVal)
}

// Load loads configuration with precedence: ENV > File > Defaults
// It enforces Strict Validated Order: Parse File (Strict) -> Apply Env -> Validate
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)
	cfg.Version = l.version

	if cfg.Probe.CatalogueFile != "" && !filepath.IsAbs(cfg.Probe.CatalogueFile) && l.configPath != "" {
		// Relative dictionary paths are resolved next to the config file.
		cfg.Probe.CatalogueFile = filepath.Join(filepath.Dir(l.configPath), cfg.Probe.CatalogueFile)
	}

	if err := Validate(cfg); err != nil {
		return cfg, Errorf("validate", err)
	}
	return cfg, nil
}

// loadFile decodes the YAML file at path on top of cfg with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Reject unknown fields

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	// Strict: Ensure no multiple documents or trailing content
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

// mergeEnvConfig applies CAMRELAY_* overrides on top of file and defaults.
func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.LogLevel = l.envString("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = l.envString("LOG_FORMAT", cfg.LogFormat)

	cfg.FFmpeg.Bin = l.envString("FFMPEG_BIN", cfg.FFmpeg.Bin)
	cfg.FFmpeg.PreflightTimeout = l.envDuration("FFMPEG_PREFLIGHT_TIMEOUT", cfg.FFmpeg.PreflightTimeout)

	cfg.Probe.Timeout = l.envDuration("PROBE_TIMEOUT", cfg.Probe.Timeout)
	cfg.Probe.Duration = l.envDuration("PROBE_DURATION", cfg.Probe.Duration)
	cfg.Probe.Interval = l.envDuration("PROBE_INTERVAL", cfg.Probe.Interval)
	cfg.Probe.CatalogueFile = l.envString("CATALOGUE_FILE", cfg.Probe.CatalogueFile)
	cfg.Probe.RTSPPort = l.envInt("RTSP_PORT", cfg.Probe.RTSPPort)

	cfg.Icecast.Host = l.envString("ICECAST_HOST", cfg.Icecast.Host)
	l.ConsumedEnvKeys[EnvPrefix+"ICECAST_PORTS"] = struct{}{}
	cfg.Icecast.Ports = ParseIntList(EnvPrefix+"ICECAST_PORTS", cfg.Icecast.Ports)
	cfg.Icecast.PublishUser = l.envString("ICECAST_USER", cfg.Icecast.PublishUser)
	cfg.Icecast.PublishSecret = l.envString("ICECAST_SECRET", cfg.Icecast.PublishSecret)
	cfg.Icecast.DialTimeout = l.envDuration("ICECAST_DIAL_TIMEOUT", cfg.Icecast.DialTimeout)

	cfg.API.Listen = l.envString("API_LISTEN", cfg.API.Listen)
	cfg.API.RateLimit = l.envInt("API_RATE_LIMIT", cfg.API.RateLimit)

	cfg.Telemetry.Enabled = l.envBool("TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = l.envString("TELEMETRY_ENVIRONMENT", cfg.Telemetry.Environment)
}
