// Package metrics instruments the engine with prometheus/client_golang:
// promauto-registered gauges/counters/histograms fed by pkg/service's
// Stats() and pkg/watchdog's per-iteration report.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every instrument the engine publishes.
type Metrics struct {
	RunningTasks  prometheus.Gauge
	FinishedTasks *prometheus.CounterVec

	RunningThreads prometheus.Gauge
	QueuedThreads  prometheus.Gauge

	TaskPercentageDone *prometheus.GaugeVec
	PlacementLatency   prometheus.Histogram
}

// New registers and returns a fresh Metrics instance against registerer.
// Pass prometheus.NewRegistry() in tests to avoid collisions with the
// default global registry.
func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		RunningTasks: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cutlistopt",
			Subsystem: "service",
			Name:      "running_tasks",
			Help:      "Number of tasks currently RUNNING.",
		}),
		FinishedTasks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cutlistopt",
			Subsystem: "service",
			Name:      "finished_tasks_total",
			Help:      "Terminal tasks by final status.",
		}, []string{"status"}),
		RunningThreads: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cutlistopt",
			Subsystem: "executor",
			Name:      "running_threads",
			Help:      "Number of candidate workers currently RUNNING.",
		}),
		QueuedThreads: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cutlistopt",
			Subsystem: "executor",
			Name:      "queued_threads",
			Help:      "Number of candidate workers waiting in the executor queue.",
		}),
		TaskPercentageDone: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "cutlistopt",
			Subsystem: "task",
			Name:      "percentage_done",
			Help:      "Per-task overall percentage done (0-100).",
		}, []string{"task_id"}),
		PlacementLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cutlistopt",
			Subsystem: "cutworker",
			Name:      "placement_seconds",
			Help:      "Wall-clock time spent computing candidate placements for one demand panel.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}
