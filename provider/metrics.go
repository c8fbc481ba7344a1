package provider

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts provider requests by method and outcome.
type Metrics struct {
	requests *prometheus.CounterVec
}

// NewMetrics builds the metric set and registers it with reg when non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "didkit",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Provider requests by method and outcome.",
		}, []string{"method", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests)
	}
	return m
}

func (m *Metrics) observe(method string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.requests.WithLabelValues(method, outcome).Inc()
}
