// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestIncProbeAttempt(t *testing.T) {
	before := counterValue(t, probeAttemptsTotal.WithLabelValues("timeout"))
	IncProbeAttempt("timeout", 8)
	assert.Equal(t, before+1, counterValue(t, probeAttemptsTotal.WithLabelValues("timeout")))
}

func TestRelayGaugeTracksLaunchAndExit(t *testing.T) {
	var m dto.Metric
	require.NoError(t, relaysRunning.Write(&m))
	before := m.GetGauge().GetValue()

	IncRelayLaunch("ok")
	IncRelayLaunch("error")
	require.NoError(t, relaysRunning.Write(&m))
	assert.Equal(t, before+1, m.GetGauge().GetValue())

	IncRelayExit("stopped")
	require.NoError(t, relaysRunning.Write(&m))
	assert.Equal(t, before, m.GetGauge().GetValue())
}

func TestPromhttpExposure(t *testing.T) {
	IncDiscovery("found")
	RecordTask("succeeded", 1.5)

	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `camrelay_discovery_total{result="found"}`)
	assert.Contains(t, string(body), "camrelay_task_duration_seconds_bucket")
}
