package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveOperation("register", "", 0.01)
	m.ObserveOperation("register", "not_claimer", 0.01)
	m.ObserveOperation("register", "not_claimer", 0.01)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Operations.WithLabelValues("register", OutcomeOK, "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Operations.WithLabelValues("register", OutcomeError, "not_claimer")))
}

func TestCollateralCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AddStaked(485)
	m.AddStaked(350)
	m.AddReleased(485)

	assert.Equal(t, 835.0, testutil.ToFloat64(m.CollateralStaked))
	assert.Equal(t, 485.0, testutil.ToFloat64(m.CollateralRelease))
}
