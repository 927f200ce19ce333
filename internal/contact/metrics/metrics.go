package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	SubmissionsTotal        *prometheus.CounterVec
	ValidationFailuresTotal *prometheus.CounterVec
	DispatchTotal           *prometheus.CounterVec
	DispatchDurationSeconds prometheus.Histogram
	AckFailuresTotal        prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		SubmissionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formgate_submissions_total",
			Help: "Total number of contact submissions by outcome",
		}, []string{"outcome"}),
		ValidationFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formgate_validation_failures_total",
			Help: "Total number of field validation failures by field",
		}, []string{"field"}),
		DispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formgate_dispatch_total",
			Help: "Total number of notification dispatch attempts by status",
		}, []string{"status"}),
		DispatchDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "formgate_dispatch_duration_seconds",
			Help:    "Duration of owner notification dispatch in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		AckFailuresTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formgate_ack_failures_total",
			Help: "Total number of failed sender acknowledgement emails",
		}),
	}
}

// RecordSubmission counts a completed submission by outcome: accepted,
// rejected_origin, rejected_rate, rejected_payload, rejected_validation,
// rejected_guard, dispatch_failed, or internal_error.
func (m *Metrics) RecordSubmission(outcome string) {
	m.SubmissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordValidationFailure(field string) {
	m.ValidationFailuresTotal.WithLabelValues(field).Inc()
}

func (m *Metrics) RecordDispatch(status string, durationSeconds float64) {
	m.DispatchTotal.WithLabelValues(status).Inc()
	m.DispatchDurationSeconds.Observe(durationSeconds)
}

func (m *Metrics) RecordAckFailure() {
	m.AckFailuresTotal.Inc()
}
