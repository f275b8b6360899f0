package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for the outbox relay.
type Metrics struct {
	Relayed       prometheus.Counter
	SinkFailures  prometheus.Counter
	SkippedTicks  prometheus.Counter
	CooldownState prometheus.Gauge
}

// NewMetrics registers relay metrics with reg. A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Relayed: factory.NewCounter(prometheus.CounterOpts{
			Name: "namereg_outbox_relayed_total",
			Help: "Total number of outbox events delivered to the sink",
		}),
		SinkFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "namereg_outbox_sink_failures_total",
			Help: "Total number of failed sink deliveries",
		}),
		SkippedTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "namereg_outbox_skipped_ticks_total",
			Help: "Relay ticks skipped while the sink is cooling down",
		}),
		CooldownState: factory.NewGauge(prometheus.GaugeOpts{
			Name: "namereg_outbox_cooldown_state",
			Help: "Current relay cooldown state (0=delivering, 1=cooling down)",
		}),
	}
}
