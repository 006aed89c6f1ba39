// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics exposes the Prometheus collectors for discovery and relaying.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	probeAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camrelay_probe_attempts_total",
		Help: "Total number of per-template probe attempts by outcome",
	}, []string{"outcome"})

	probeAttemptDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "camrelay_probe_attempt_duration_seconds",
		Help:    "Wall-clock duration of single probe attempts",
		Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
	})

	discoveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camrelay_discovery_total",
		Help: "Total number of discovery runs by result",
	}, []string{"result"})

	ingestResolveTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camrelay_ingest_resolve_total",
		Help: "Total number of ingest port resolutions by result",
	}, []string{"result"})
)

// IncProbeAttempt counts one probe attempt and records its duration.
func IncProbeAttempt(outcome string, seconds float64) {
	probeAttemptsTotal.WithLabelValues(outcome).Inc()
	probeAttemptDuration.Observe(seconds)
}

// IncDiscovery counts a finished discovery ("found", "not_found", "canceled").
func IncDiscovery(result string) {
	discoveryTotal.WithLabelValues(result).Inc()
}

// IncIngestResolve counts a finished port resolution (the port number or "unreachable").
func IncIngestResolve(result string) {
	ingestResolveTotal.WithLabelValues(result).Inc()
}
