package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background jobs and lock runs.
type Metrics struct {
	runs          *prometheus.CounterVec
	failures      *prometheus.CounterVec
	skipped       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	locks         *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against the provided registerer. When the
// registerer is nil the default Prometheus registerer is used.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker instruments a single job run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track spawns a tracker for the given job name.
func (m *Metrics) Track(job string) *Tracker {
	if m == nil {
		return &Tracker{job: job, start: time.Now()}
	}
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records duration and outcome, returning err untouched.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// Skip records a run that did not execute because another worker held the lock.
func (t *Tracker) Skip() {
	if t == nil || t.metrics == nil || t.job == "" {
		return
	}
	t.metrics.skipped.WithLabelValues(t.job).Inc()
	t.metrics.runs.WithLabelValues(t.job, "skipped").Inc()
}

// AddLocks counts customers written with the given tier.
func (m *Metrics) AddLocks(tier string, n int) {
	if m == nil || n <= 0 {
		return
	}
	if tier == "" {
		tier = "none"
	}
	m.locks.WithLabelValues(tier).Add(float64(n))
}

// AddNotifications counts lock emails by kind and outcome.
func (m *Metrics) AddNotifications(kind, outcome string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.notifications.WithLabelValues(kind, outcome).Add(float64(n))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicelock_jobs_total",
		Help: "Total job executions partitioned by job name and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicelock_jobs_failures_total",
		Help: "Total failures observed for background jobs.",
	}, []string{"job"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicelock_jobs_skipped_total",
		Help: "Job runs skipped because another worker held the run lock.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicelock_job_duration_seconds",
		Help:    "Duration in seconds of background job executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	locks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicelock_customer_locks_total",
		Help: "Customer lock writes grouped by tier.",
	}, []string{"tier"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicelock_notifications_total",
		Help: "Lock emails grouped by kind and outcome.",
	}, []string{"kind", "outcome"})
	registerer.MustRegister(runs, failures, skipped, duration, locks, notifications)
	return &Metrics{
		runs:          runs,
		failures:      failures,
		skipped:       skipped,
		duration:      duration,
		locks:         locks,
		notifications: notifications,
	}
}
