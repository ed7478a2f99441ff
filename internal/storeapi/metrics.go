package storeapi

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the backend client's Prometheus collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the client collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "backend",
			Name:      "requests_total",
			Help:      "Backend requests by endpoint and HTTP status (or \"error\").",
		}, []string{"endpoint", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Subsystem: "backend",
			Name:      "request_duration_seconds",
			Help:      "Backend request latency by endpoint.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(endpoint, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, status).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
