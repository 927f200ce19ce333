package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ChecksTotal          *prometheus.CounterVec
	BlocksTotal          prometheus.Counter
	SweepRunsTotal       *prometheus.CounterVec
	SweepEvictedTotal    prometheus.Counter
	SweepDurationSeconds prometheus.Histogram
	TrackedClients       prometheus.Gauge
}

func New() *Metrics {
	return &Metrics{
		ChecksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formgate_ratelimit_checks_total",
			Help: "Total number of rate limit checks by outcome",
		}, []string{"outcome"}),
		BlocksTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formgate_ratelimit_blocks_total",
			Help: "Total number of escalated blocks applied to clients",
		}),
		SweepRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "formgate_ratelimit_sweep_runs_total",
			Help: "Total number of eviction sweep runs",
		}, []string{"status"}),
		SweepEvictedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "formgate_ratelimit_sweep_evicted_total",
			Help: "Total number of expired records evicted by the sweep worker",
		}),
		SweepDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name: "formgate_ratelimit_sweep_duration_seconds",
			Help: "Duration of eviction sweep runs in seconds",
		}),
		TrackedClients: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "formgate_ratelimit_tracked_clients",
			Help: "Current number of client records held in the store",
		}),
	}
}

// RecordCheck counts one check by outcome: allowed, denied, or blocked.
func (m *Metrics) RecordCheck(outcome string) {
	m.ChecksTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordBlock() {
	m.BlocksTotal.Inc()
}

func (m *Metrics) RecordSweep(status string, evicted int, durationSeconds float64) {
	m.SweepRunsTotal.WithLabelValues(status).Inc()
	m.SweepEvictedTotal.Add(float64(evicted))
	m.SweepDurationSeconds.Observe(durationSeconds)
}

func (m *Metrics) SetTrackedClients(count int) {
	m.TrackedClients.Set(float64(count))
}
