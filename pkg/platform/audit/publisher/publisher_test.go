package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "namereg/pkg/platform/audit"
	"namereg/pkg/platform/audit/store/memory"
	"namereg/pkg/requestcontext"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error { return errors.New("disk full") }
func (failingStore) ListRecent(context.Context, int) ([]audit.Event, error) {
	return nil, nil
}

func TestPublisher_Emit(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store, WithMetrics(NewMetrics(prometheus.NewRegistry())))

	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), fixed)
	ctx = requestcontext.WithRequestID(ctx, "req-1")

	err := pub.Emit(ctx, audit.Event{Action: string(audit.EventNameRegistered), Name: "alice"})
	require.NoError(t, err)

	events, err := pub.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].Name)
	assert.Equal(t, fixed, events[0].Timestamp)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
	assert.Equal(t, float64(1), testutil.ToFloat64(pub.metrics.EventsEmitted.WithLabelValues("registry")))
}

func TestPublisher_RequiresAction(t *testing.T) {
	pub := New(memory.NewInMemoryStore())
	err := pub.Emit(context.Background(), audit.Event{Name: "alice"})
	require.Error(t, err)
}

func TestPublisher_FailClosed(t *testing.T) {
	metrics := NewMetrics(prometheus.NewRegistry())
	pub := New(failingStore{}, WithMetrics(metrics))

	err := pub.Emit(context.Background(), audit.Event{Action: string(audit.EventClaimRecorded)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.PersistFailures))
}
