package outbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the outbox Prometheus collectors.
type Metrics struct {
	mutations  *prometheus.CounterVec
	queueDepth prometheus.Gauge
	duration   *prometheus.HistogramVec
}

// NewMetrics creates the outbox collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		mutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratetable_outbox_mutations_total",
				Help: "Total number of persistence mutations by kind and result",
			},
			[]string{"kind", "result"},
		),
		queueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ratetable_outbox_queue_depth",
				Help: "Number of mutations waiting to be persisted",
			},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratetable_outbox_apply_duration_seconds",
				Help:    "Time spent applying one mutation to the store",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"kind"},
		),
	}
}

func (m *Metrics) observe(kind, result string, seconds float64) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(kind, result).Inc()
	m.duration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) setDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}
