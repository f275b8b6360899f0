package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Metrics holds Prometheus metrics for registration engine operations.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	CollateralStaked  prometheus.Counter
	CollateralRelease prometheus.Counter
}

// New registers engine metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "namereg_registrar_operations_total",
			Help: "Registration engine operations by outcome and error code",
		}, []string{"operation", "outcome", "code"}),
		OperationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "namereg_registrar_operation_duration_seconds",
			Help:    "Duration of registration engine mutations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),
		CollateralStaked: factory.NewCounter(prometheus.CounterOpts{
			Name: "namereg_registrar_collateral_staked_total",
			Help: "Collateral taken into custody by registrations",
		}),
		CollateralRelease: factory.NewCounter(prometheus.CounterOpts{
			Name: "namereg_registrar_collateral_released_total",
			Help: "Collateral returned to stakers",
		}),
	}
}

// ObserveOperation records one finished operation. code is empty on success.
func (m *Metrics) ObserveOperation(operation, code string, seconds float64) {
	outcome := OutcomeOK
	if code != "" {
		outcome = OutcomeError
	}
	m.Operations.WithLabelValues(operation, outcome, code).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

func (m *Metrics) AddStaked(amount uint64) {
	m.CollateralStaked.Add(float64(amount))
}

func (m *Metrics) AddReleased(amount uint64) {
	m.CollateralRelease.Add(float64(amount))
}
