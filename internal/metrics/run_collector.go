package metrics

import (
	"sync"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// RunSource returns the run currently executing, or false when idle.
type RunSource func() (domain.Run, bool)

type runCollector struct {
	source RunSource

	tasksDesc *prometheus.Desc
	doneDesc  *prometheus.Desc
}

func newRunCollector(source RunSource) *runCollector {
	return &runCollector{
		source: source,
		tasksDesc: prometheus.NewDesc(
			"modelcheck_run_tasks",
			"Tasks of the current run by state.",
			[]string{"run_id", "state"},
			nil,
		),
		doneDesc: prometheus.NewDesc(
			"modelcheck_run_progress_ratio",
			"Fraction of the current run's tasks that have completed.",
			[]string{"run_id"},
			nil,
		),
	}
}

func (c *runCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.tasksDesc
	ch <- c.doneDesc
}

func (c *runCollector) Collect(ch chan<- prometheus.Metric) {
	if c.source == nil {
		return
	}
	run, ok := c.source()
	if !ok {
		return
	}

	emitGauge(ch, c.tasksDesc, float64(run.Total), run.ID, "total")
	emitGauge(ch, c.tasksDesc, float64(run.Pending()), run.ID, "pending")
	emitGauge(ch, c.tasksDesc, float64(run.Skipped), run.ID, "skipped")
	emitGauge(ch, c.tasksDesc, float64(run.Passed), run.ID, "passed")
	emitGauge(ch, c.tasksDesc, float64(run.CheckFailed), run.ID, "check_failed")
	emitGauge(ch, c.tasksDesc, float64(run.Errored), run.ID, "errored")

	ratio := 1.0
	if run.Total > 0 {
		ratio = float64(run.Done) / float64(run.Total)
	}
	emitGauge(ch, c.doneDesc, ratio, run.ID)
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

var registerRunCollectorOnce sync.Once

func RegisterRunCollector(source RunSource) {
	registerRunCollectorOnce.Do(func() {
		prometheus.MustRegister(newRunCollector(source))
	})
}
