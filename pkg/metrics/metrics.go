// Package metrics holds the node's Prometheus instruments, exposed on the
// web server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var Namespace = "catalogd"

var (
	HeartbeatTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "heartbeat",
		Name:      "ticks_total",
		Help:      "Counter of DB availability probe ticks",
	})

	HeartbeatProbeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "heartbeat",
		Name:      "probe_failures_total",
		Help:      "Counter of DB write probes that failed",
	})

	ModeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "heartbeat",
		Name:      "mode_transitions_total",
		Help:      "Counter of node mode transitions by target mode",
	}, []string{"mode"})

	NodeReadOnly = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "read_only",
		Help:      "1 while the node is in read-only mode, 0 otherwise",
	})

	HarvestRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "harvest",
		Name:      "runs_total",
		Help:      "Counter of harvest runs by source and outcome",
	}, []string{"source", "status"})

	HarvestBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "harvest",
		Name:      "bytes_total",
		Help:      "Counter of bytes fetched from a harvest source",
	}, []string{"source"})

	WritesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "web",
		Name:      "writes_rejected_total",
		Help:      "Counter of mutating requests rejected while in read-only mode",
	})
)
