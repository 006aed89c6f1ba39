// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	relayLaunchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camrelay_relay_launch_total",
		Help: "Total number of relay process launches by result",
	}, []string{"result"})

	relayExitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camrelay_relay_exit_total",
		Help: "Total number of relay process exits by reason",
	}, []string{"reason"})

	relaysRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "camrelay_relays_running",
		Help: "Number of relay processes started by this instance that have not exited",
	})

	tasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camrelay_tasks_total",
		Help: "Total number of start actions by final result",
	}, []string{"result"})

	taskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "camrelay_task_duration_seconds",
		Help:    "Duration of start actions from submission to result",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~4m
	})

	procTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "camrelay_proc_terminate_total",
		Help: "Signals sent to transcoder process groups",
	}, []string{"signal", "result"})
)

// IncRelayLaunch counts a relay launch ("ok" or "error").
func IncRelayLaunch(result string) {
	relayLaunchTotal.WithLabelValues(result).Inc()
	if result == "ok" {
		relaysRunning.Inc()
	}
}

// IncRelayExit counts a relay process exit ("exit0", "exit_nonzero", "stopped").
func IncRelayExit(reason string) {
	relayExitTotal.WithLabelValues(reason).Inc()
	relaysRunning.Dec()
}

// RecordTask counts a finished start action and its duration.
func RecordTask(result string, seconds float64) {
	tasksTotal.WithLabelValues(result).Inc()
	taskDuration.Observe(seconds)
}

// IncProcTerminate counts a signal sent by procgroup.Terminate.
func IncProcTerminate(signal, result string) {
	procTerminateTotal.WithLabelValues(signal, result).Inc()
}
