// Package metrics exposes Prometheus metrics for the execution core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the execution pipeline.
var (
	ExecutionsEnqueued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pumpbot",
		Name:      "executions_enqueued_total",
		Help:      "Execution records pushed onto the queue, by order kind.",
	}, []string{"kind"})

	ExecutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pumpbot",
		Name:      "executions_total",
		Help:      "Terminal executions, by order kind and final status.",
	}, []string{"kind", "status"})

	RetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pumpbot",
		Name:      "execution_retries_total",
		Help:      "Retry attempts, by order kind.",
	}, []string{"kind"})

	RejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pumpbot",
		Name:      "signal_rejections_total",
		Help:      "Signals rejected before queuing, by reason.",
	}, []string{"reason"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pumpbot",
		Name:      "queue_depth",
		Help:      "Execution records currently queued.",
	})

	PositionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pumpbot",
		Name:      "positions_open",
		Help:      "Open positions tracked by the risk manager.",
	})

	PositionsClosed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pumpbot",
		Name:      "positions_closed_total",
		Help:      "Position closes driven through the pipeline, by order kind.",
	}, []string{"kind"})

	SlippagePct = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pumpbot",
		Name:      "fill_slippage_pct",
		Help:      "Realized slippage of successful fills, percent.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	SubmitLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "pumpbot",
		Name:      "venue_submit_seconds",
		Help:      "Venue submission round-trip latency.",
		Buckets:   prometheus.DefBuckets,
	})

	MonitorSweeps = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pumpbot",
		Name:      "monitor_sweeps_total",
		Help:      "Completed position monitor sweeps.",
	})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pumpbot",
		Name:      "errors_total",
		Help:      "Internal errors, by type.",
	}, []string{"type"})

	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "pumpbot",
		Name:      "build_info",
		Help:      "Build information.",
	}, []string{"version", "commit", "build_time"})
)

// SetBuildInfo records build metadata.
func SetBuildInfo(version, commit, buildTime string) {
	BuildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}
