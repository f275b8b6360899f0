// Package worker relays outbox events to an external sink.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	audit "namereg/pkg/platform/audit"
)

const (
	defaultInterval  = 2 * time.Second
	defaultBatchSize = 100
)

// Sink delivers a batch of events. A nil error means every event was accepted.
type Sink interface {
	Publish(ctx context.Context, events []audit.Event) error
}

// Relay polls the outbox and forwards unpublished events, oldest first. An
// event is marked published only after the sink accepts its batch, so delivery
// is at-least-once.
type Relay struct {
	store     audit.OutboxStore
	sink      Sink
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
	metrics   *Metrics
	cooldown  *cooldown
	now       func() time.Time
}

type Option func(*Relay)

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) {
		r.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) {
		r.metrics = m
	}
}

// WithCooldown pauses delivery for period after threshold consecutive sink failures.
func WithCooldown(threshold int, period time.Duration) Option {
	return func(r *Relay) {
		r.cooldown = newCooldown(threshold, period)
	}
}

func NewRelay(store audit.OutboxStore, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		store:     store,
		sink:      sink,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
		logger:    slog.Default(),
		cooldown:  newCooldown(5, 30*time.Second),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run relays on every tick until ctx is cancelled. Sink errors are logged and
// retried on later ticks; Run returns nil on cancellation.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "outbox relay started", "interval", r.interval, "batch_size", r.batchSize)
	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "outbox relay stopped")
			return nil
		case <-ticker.C:
			for {
				n, err := r.RelayOnce(ctx)
				if err != nil {
					r.logger.WarnContext(ctx, "outbox relay failed", "error", err)
					break
				}
				if n < r.batchSize {
					break
				}
			}
		}
	}
}

// RelayOnce forwards at most one batch and returns how many events were delivered.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	now := r.now()
	if !r.cooldown.Allow(now) {
		if r.metrics != nil {
			r.metrics.SkippedTicks.Inc()
		}
		return 0, nil
	}

	events, err := r.store.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	if err := r.sink.Publish(ctx, events); err != nil {
		opened := r.cooldown.RecordFailure(now)
		if r.metrics != nil {
			r.metrics.SinkFailures.Inc()
			if opened {
				r.metrics.CooldownState.Set(1)
			}
		}
		if opened {
			r.logger.ErrorContext(ctx, "event sink unavailable, pausing relay", "error", err)
		}
		return 0, fmt.Errorf("publish %d events: %w", len(events), err)
	}
	r.cooldown.RecordSuccess()

	ids := make([]uuid.UUID, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	if err := r.store.MarkPublished(ctx, ids, now); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	if r.metrics != nil {
		r.metrics.Relayed.Add(float64(len(events)))
		r.metrics.CooldownState.Set(0)
	}
	return len(events), nil
}
