package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	audit "namereg/pkg/platform/audit"
	auditmemory "namereg/pkg/platform/audit/store/memory"
)

type recordingSink struct {
	mu      sync.Mutex
	err     error
	batches [][]audit.Event
}

func (s *recordingSink) Publish(_ context.Context, events []audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, append([]audit.Event{}, events...))
	return nil
}

func (s *recordingSink) delivered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}

type RelaySuite struct {
	suite.Suite
	ctx     context.Context
	store   *auditmemory.InMemoryStore
	sink    *recordingSink
	metrics *Metrics
	now     time.Time
	relay   *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.ctx = context.Background()
	s.store = auditmemory.NewInMemoryStore()
	s.sink = &recordingSink{}
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.relay = NewRelay(s.store, s.sink,
		WithBatchSize(2),
		WithCooldown(2, time.Minute),
		WithMetrics(s.metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	s.relay.now = func() time.Time { return s.now }
}

func (s *RelaySuite) appendEvents(n int) {
	for i := 0; i < n; i++ {
		s.Require().NoError(s.store.Append(s.ctx, audit.Event{
			ID:        uuid.New(),
			Action:    string(audit.EventClaimRecorded),
			Timestamp: s.now,
		}))
	}
}

func (s *RelaySuite) TestRelaysInBatchesAndMarksPublished() {
	s.appendEvents(3)

	n, err := s.relay.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, n)

	n, err = s.relay.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)

	n, err = s.relay.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Zero(n)

	pending, err := s.store.FetchUnpublished(s.ctx, 0)
	s.Require().NoError(err)
	s.Empty(pending)
	s.Equal(3, s.sink.delivered())
	s.Equal(3.0, promtestutil.ToFloat64(s.metrics.Relayed))
}

func (s *RelaySuite) TestSinkFailureKeepsEventsAndCoolsDown() {
	s.appendEvents(1)
	s.sink.err = errors.New("broker unavailable")

	_, err := s.relay.RelayOnce(s.ctx)
	s.Require().Error(err)
	_, err = s.relay.RelayOnce(s.ctx)
	s.Require().Error(err)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.CooldownState))

	n, err := s.relay.RelayOnce(s.ctx)
	s.Require().NoError(err, "cooling down skips the tick")
	s.Zero(n)
	s.Equal(1.0, promtestutil.ToFloat64(s.metrics.SkippedTicks))

	s.sink.err = nil
	s.now = s.now.Add(time.Minute)
	n, err = s.relay.RelayOnce(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal(0.0, promtestutil.ToFloat64(s.metrics.CooldownState))
	s.Equal(2.0, promtestutil.ToFloat64(s.metrics.SinkFailures))
}

func (s *RelaySuite) TestRunDrainsUntilCancelled() {
	s.appendEvents(5)
	relay := NewRelay(s.store, s.sink, WithInterval(5*time.Millisecond), WithBatchSize(2),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- relay.Run(ctx) }()

	s.Eventually(func() bool { return s.sink.delivered() == 5 }, time.Second, 5*time.Millisecond)
	cancel()
	s.NoError(<-done)
}

func TestCooldown(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c := newCooldown(2, time.Minute)

	if c.RecordFailure(now) {
		t.Fatal("first failure must not open the cooldown")
	}
	if !c.RecordFailure(now) || !c.IsOpen(now) || c.Allow(now.Add(time.Second)) {
		t.Fatal("second failure must open the cooldown")
	}
	if !c.Allow(now.Add(time.Minute)) {
		t.Fatal("cooldown must allow a retry once the period passed")
	}
	c.RecordSuccess()
	if c.IsOpen(now) {
		t.Fatal("success must close the cooldown")
	}
}
