package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Decisions    *prometheus.CounterVec
	BackendError prometheus.Counter
	Degraded     prometheus.Gauge
}

// New registers rate limit metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "namereg_ratelimit_decisions_total",
			Help: "Rate limit decisions by route class and outcome",
		}, []string{"class", "outcome"}),
		BackendError: factory.NewCounter(prometheus.CounterOpts{
			Name: "namereg_ratelimit_backend_errors_total",
			Help: "Failed checks against the primary bucket store",
		}),
		Degraded: factory.NewGauge(prometheus.GaugeOpts{
			Name: "namereg_ratelimit_degraded",
			Help: "1 while checks are served by the in-memory fallback",
		}),
	}
}

func (m *Metrics) IncDecision(class string, allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.Decisions.WithLabelValues(class, outcome).Inc()
}

func (m *Metrics) IncBackendError() {
	m.BackendError.Inc()
}

func (m *Metrics) SetDegraded(degraded bool) {
	if degraded {
		m.Degraded.Set(1)
		return
	}
	m.Degraded.Set(0)
}
