// Package metrics records the outcome of a run in Prometheus format.
//
// slider is a batch job, so nothing is served: the registry is written to
// a text file for the node exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Artifact results, used as the "result" label.
const (
	ResultFetched = "fetched"
	ResultFailed  = "failed"
	ResultMoved   = "moved"
	ResultKept    = "kept"
	ResultMissing = "missing"
	ResultEvicted = "evicted"
)

// RunStats summarises one run.
type RunStats struct {
	Presentation string
	Records      int
	Anomalies    int

	Fetched int
	Failed  int
	Moved   int
	Kept    int
	Missing int
	Evicted int

	Duration time.Duration
	Finished time.Time
	Success  bool
}

// Metrics owns a private registry so that repeated runs in one process,
// and tests, never collide on the default registerer.
type Metrics struct {
	reg *prometheus.Registry

	Records     *prometheus.GaugeVec
	Anomalies   *prometheus.GaugeVec
	Artifacts   *prometheus.CounterVec
	Duration    *prometheus.GaugeVec
	LastSuccess *prometheus.GaugeVec
	Runs        *prometheus.CounterVec
}

// New creates the metric set.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		Records: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slider_records",
			Help: "Number of slides in the presentation at the last run",
		}, []string{"presentation"}),
		Anomalies: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slider_numbering_anomalies",
			Help: "Duplicate or decreasing numbers found at the last run",
		}, []string{"presentation"}),
		Artifacts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slider_artifacts_total",
			Help: "Artifacts handled by the reconciler, by result",
		}, []string{"presentation", "result"}),
		Duration: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slider_run_duration_seconds",
			Help: "Wall time of the last run",
		}, []string{"presentation"}),
		LastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "slider_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}, []string{"presentation"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "slider_runs_total",
			Help: "Runs by outcome",
		}, []string{"presentation", "outcome"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// Observe records a finished run.
func (m *Metrics) Observe(s RunStats) {
	p := s.Presentation

	m.Duration.WithLabelValues(p).Set(s.Duration.Seconds())
	if !s.Success {
		m.Runs.WithLabelValues(p, "failure").Inc()
		return
	}
	m.Runs.WithLabelValues(p, "success").Inc()
	m.Records.WithLabelValues(p).Set(float64(s.Records))
	m.Anomalies.WithLabelValues(p).Set(float64(s.Anomalies))
	m.LastSuccess.WithLabelValues(p).Set(float64(s.Finished.Unix()))

	for result, n := range map[string]int{
		ResultFetched: s.Fetched,
		ResultFailed:  s.Failed,
		ResultMoved:   s.Moved,
		ResultKept:    s.Kept,
		ResultMissing: s.Missing,
		ResultEvicted: s.Evicted,
	} {
		m.Artifacts.WithLabelValues(p, result).Add(float64(n))
	}
}

// WriteTextfile atomically writes all metrics to path in the text
// exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
