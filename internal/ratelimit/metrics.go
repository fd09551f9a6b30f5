package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Requests refused with 429, by limiter class
	Rejected *prometheus.CounterVec

	// Store failures; the request was let through
	StoreErrors prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		Rejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "provenance_ratelimit_rejected_total",
			Help: "Requests rejected by the rate limiter, by class",
		}, []string{"class"}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "provenance_ratelimit_store_errors_total",
			Help: "Rate limit checks that failed and allowed the request",
		}),
	}
}

func (m *Metrics) IncrementRejected(class string) {
	if m != nil {
		m.Rejected.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) IncrementStoreError() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}
