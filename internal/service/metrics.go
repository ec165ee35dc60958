package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts failures normalized by the error translator.
type Metrics struct {
	failures *prometheus.CounterVec
}

// NewMetrics registers the service metrics with reg. A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		failures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "fleet_service_failures_total",
				Help: "Failures returned by foundation services, by entity, kind and severity.",
			},
			[]string{"entity", "kind", "severity"},
		),
	}
}

func (m *Metrics) failure(entity, kind, severity string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(entity, kind, severity).Inc()
}
