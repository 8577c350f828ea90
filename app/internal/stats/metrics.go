package stats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors for timeline, badge and rollup work.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	downsamples *prometheus.CounterVec
	rowsScanned *prometheus.CounterVec
	latency     prometheus.Histogram
	evaluations *prometheus.CounterVec
	rollups     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		downsamples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuspage_downsample_total",
			Help: "Timelines computed, by source resolution.",
		}, []string{"resolution"}),
		rowsScanned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuspage_downsample_rows_total",
			Help: "Rollup rows read while computing timelines.",
		}, []string{"resolution"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "statuspage_downsample_seconds",
			Help:    "Time spent reading and merging one timeline.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuspage_badge_evaluations_total",
			Help: "Aggregate status evaluations, by resulting message.",
		}, []string{"message"}),
		rollups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "statuspage_rollup_runs_total",
			Help: "Rollup job runs, by job and result.",
		}, []string{"job", "result"}),
	}

	reg.MustRegister(m.downsamples, m.rowsScanned, m.latency, m.evaluations, m.rollups)
	return m
}

func (m *Metrics) observeDownsample(res Resolution, rows int, took time.Duration) {
	if m == nil {
		return
	}
	m.downsamples.WithLabelValues(res.String()).Inc()
	m.rowsScanned.WithLabelValues(res.String()).Add(float64(rows))
	m.latency.Observe(took.Seconds())
}

func (m *Metrics) observeEvaluation(message string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(message).Inc()
}

func (m *Metrics) observeRollup(job string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.rollups.WithLabelValues(job, result).Inc()
}
