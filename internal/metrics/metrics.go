package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "modelcheck"

var (
	RunsStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_started_total",
			Help:      "Total number of batch runs started.",
		},
		[]string{"format"},
	)

	TasksDiscoveredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_discovered_total",
			Help:      "Total number of model files discovered for checking.",
		},
		[]string{"format"},
	)

	TasksCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks completed, labeled by outcome.",
		},
		[]string{"format", "outcome"},
	)

	CheckDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Wall time spent loading and checking one model (seconds).",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
		},
		[]string{"format", "outcome"},
	)

	ChecksInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "checks_in_flight",
			Help:      "Number of external checker invocations currently running.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		RunsStartedTotal,
		TasksDiscoveredTotal,
		TasksCompletedTotal,
		CheckDurationSeconds,
		ChecksInFlight,
	)
}
