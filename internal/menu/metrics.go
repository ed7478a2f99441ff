package menu

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the menu module's Prometheus collectors.
type Metrics struct {
	loads    *prometheus.CounterVec
	sessions prometheus.Gauge
}

// NewMetrics creates and registers the menu collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Subsystem: "menu",
			Name:      "loads_total",
			Help:      "Completed menu derivations by resulting status.",
		}, []string{"status"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "storefront",
			Subsystem: "menu",
			Name:      "sessions_active",
			Help:      "Open menu sessions.",
		}),
	}
	reg.MustRegister(m.loads, m.sessions)
	return m
}

func (m *Metrics) recordLoad(s Status) {
	if m == nil {
		return
	}
	m.loads.WithLabelValues(string(s)).Inc()
}

func (m *Metrics) setSessions(n int) {
	if m == nil {
		return
	}
	m.sessions.Set(float64(n))
}
