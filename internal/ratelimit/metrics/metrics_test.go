package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDecisionsByOutcome(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.IncDecision("write", true)
	m.IncDecision("write", true)
	m.IncDecision("write", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Decisions.WithLabelValues("write", "allowed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decisions.WithLabelValues("write", "denied")))
}

func TestDegradedGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.SetDegraded(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Degraded))
	m.SetDegraded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Degraded))
}
