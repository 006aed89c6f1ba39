// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "time"

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	FFmpeg    FFmpegConfig    `yaml:"ffmpeg"`
	Probe     ProbeConfig     `yaml:"probe"`
	Icecast   IcecastConfig   `yaml:"icecast"`
	API       APIConfig       `yaml:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// FFmpegConfig locates the external transcoder.
type FFmpegConfig struct {
	Bin string `yaml:"bin"`
	// PreflightTimeout bounds the "ffmpeg -version" availability check.
	PreflightTimeout time.Duration `yaml:"preflight_timeout"`
}

// ProbeConfig controls endpoint discovery.
type ProbeConfig struct {
	// Timeout is the hard wall-clock limit for one probe attempt.
	Timeout time.Duration `yaml:"timeout"`
	// Duration is passed to the transcoder as -t for the null-sink decode.
	Duration time.Duration `yaml:"duration"`
	// Interval paces successive attempts against the same camera. Zero disables pacing.
	Interval time.Duration `yaml:"interval"`
	// CatalogueFile optionally replaces the built-in path catalogue.
	CatalogueFile string `yaml:"catalogue_file"`
	// RTSPPort is the camera port used in candidate URLs.
	RTSPPort int `yaml:"rtsp_port"`
}

// IcecastConfig describes the ingest server the relay publishes to.
type IcecastConfig struct {
	Host          string        `yaml:"host"`
	Ports         []int         `yaml:"ports"`
	PublishUser   string        `yaml:"publish_user"`
	PublishSecret string        `yaml:"publish_secret"`
	DialTimeout   time.Duration `yaml:"dial_timeout"`
}

// APIConfig configures the HTTP control surface.
type APIConfig struct {
	Listen string `yaml:"listen"`
	// RateLimit is the number of requests per minute per client IP.
	RateLimit int `yaml:"rate_limit"`
}

// TelemetryConfig mirrors telemetry.Config in file form.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
	Environment  string  `yaml:"environment"`
}

// Defaults returns the built-in configuration.
func Defaults() AppConfig {
	return AppConfig{
		LogLevel:  "info",
		LogFormat: "json",
		FFmpeg: FFmpegConfig{
			Bin:              "ffmpeg",
			PreflightTimeout: 8 * time.Second,
		},
		Probe: ProbeConfig{
			Timeout:  8 * time.Second,
			Duration: 3 * time.Second,
			RTSPPort: 554,
		},
		Icecast: IcecastConfig{
			Ports:       []int{80, 8000},
			PublishUser: "source",
			DialTimeout: 3 * time.Second,
		},
		API: APIConfig{
			Listen:    ":8088",
			RateLimit: 60,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			SamplingRate: 1.0,
			Environment:  "production",
		},
	}
}

// Clone returns a deep copy of cfg.
func (c AppConfig) Clone() AppConfig {
	out := c
	out.Icecast.Ports = append([]int(nil), c.Icecast.Ports...)
	return out
}
