package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for background jobs and the per-scope
// daily run.
type Metrics struct {
	JobRuns        *prometheus.CounterVec
	JobDuration    *prometheus.HistogramVec
	JobLastSuccess *prometheus.GaugeVec
	ScopeRuns      *prometheus.CounterVec
	ScopesSkipped  prometheus.Counter
}

// New creates and registers the job metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

func NewWith(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		JobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leasekeeper_job_runs_total",
			Help: "Scheduled and manual job runs labeled by job and outcome",
		}, []string{"job", "outcome"}),
		JobDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "leasekeeper_job_duration_seconds",
			Help:    "Duration of job runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
		}, []string{"job"}),
		JobLastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "leasekeeper_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run of each job",
		}, []string{"job"}),
		// outcome is ok or failed
		ScopeRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "leasekeeper_scope_runs_total",
			Help: "Per-account notification runs labeled by outcome",
		}, []string{"outcome"}),
		ScopesSkipped: f.NewCounter(prometheus.CounterOpts{
			Name: "leasekeeper_scope_runs_skipped_total",
			Help: "Per-account runs skipped because another instance held the scope lock",
		}),
	}
}

// ObserveJob records one finished run of job.
func (m *Metrics) ObserveJob(job string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.JobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
	if err != nil {
		m.JobRuns.WithLabelValues(job, "failed").Inc()
		return
	}
	m.JobRuns.WithLabelValues(job, "ok").Inc()
	m.JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
}

func (m *Metrics) IncScope(outcome string) {
	if m == nil {
		return
	}
	m.ScopeRuns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncSkipped() {
	if m == nil {
		return
	}
	m.ScopesSkipped.Inc()
}
