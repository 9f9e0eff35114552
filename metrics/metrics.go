// Package metrics holds the prometheus collectors of the scorecard service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nilsimda/court-scorecard/models"
)

const namespace = "scorecard"

type Metrics struct {
	submissions        *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
	exports            *prometheus.CounterVec
	exportDuration     prometheus.Histogram
	activeSessions     prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Score form submissions by result.",
		}, []string{"result"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_failures_total",
			Help:      "Rejected form fields by field name.",
		}, []string{"field"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exports_total",
			Help:      "Scorecard image exports by result.",
		}, []string{"result"}),
		exportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "export_duration_seconds",
			Help:      "Time spent rasterizing and encoding a scorecard.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Sessions currently held in memory.",
		}),
	}
	reg.MustRegister(m.submissions, m.validationFailures, m.exports, m.exportDuration, m.activeSessions)
	return m
}

// ObserveSubmit counts a submission and, when it was rejected, every failing field.
func (m *Metrics) ObserveSubmit(failed []models.Field) {
	if m == nil {
		return
	}
	if len(failed) == 0 {
		m.submissions.WithLabelValues("accepted").Inc()
		return
	}
	m.submissions.WithLabelValues("rejected").Inc()
	for _, f := range failed {
		m.validationFailures.WithLabelValues(string(f)).Inc()
	}
}

func (m *Metrics) ObserveExport(ok bool, d time.Duration) {
	if m == nil {
		return
	}
	result := "success"
	if !ok {
		result = "failure"
	}
	m.exports.WithLabelValues(result).Inc()
	m.exportDuration.Observe(d.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}
