// Package logsink delivers outbox events to a structured logger. It is the
// relay target when no broker is configured.
package logsink

import (
	"context"
	"log/slog"

	audit "namereg/pkg/platform/audit"
)

type Sink struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

func (s *Sink) Publish(ctx context.Context, events []audit.Event) error {
	for _, e := range events {
		attrs := []slog.Attr{
			slog.String("event_id", e.ID.String()),
			slog.String("event", e.Action),
			slog.String("category", string(e.Category())),
			slog.String("log_type", "relay"),
		}
		if e.Name != "" {
			attrs = append(attrs, slog.String("name", e.Name))
		}
		if !e.Account.IsZero() {
			attrs = append(attrs, slog.String("account", e.Account.String()))
		}
		if !e.Counterparty.IsZero() {
			attrs = append(attrs, slog.String("counterparty", e.Counterparty.String()))
		}
		if e.Amount != 0 {
			attrs = append(attrs, slog.Uint64("amount", e.Amount))
		}
		if !e.Expiration.IsZero() {
			attrs = append(attrs, slog.Time("expiration", e.Expiration))
		}
		if e.RequestID != "" {
			attrs = append(attrs, slog.String("request_id", e.RequestID))
		}
		s.logger.LogAttrs(ctx, slog.LevelInfo, "event relayed", attrs...)
	}
	return nil
}
