package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "namereg/pkg/platform/audit"
	txcontext "namereg/pkg/platform/tx"
)

// Store implements audit.OutboxStore using the transactional outbox pattern.
// Events are written to registry_events inside the caller's transaction and
// relayed to Kafka by the outbox worker, which stamps published_at.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL event store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append writes an event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	var expiration *time.Time
	if !event.Expiration.IsZero() {
		expiration = &event.Expiration
	}

	query := `
		INSERT INTO registry_events (
			id, action, category, occurred_at, name, account, counterparty,
			commitment, amount, expiration, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		event.ID,
		event.Action,
		string(event.Category()),
		event.Timestamp,
		event.Name,
		event.Account[:],
		event.Counterparty[:],
		event.Commitment[:],
		int64(event.Amount),
		expiration,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert registry event: %w", err)
	}
	return nil
}

const selectColumns = `id, action, occurred_at, name, account, counterparty, commitment, amount, expiration, request_id, published_at`

// ListRecent returns the most recent events, newest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM registry_events ORDER BY seq DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list registry events: %w", err)
	}
	return scanEvents(rows)
}

// FetchUnpublished returns pending outbox entries, oldest first.
func (s *Store) FetchUnpublished(ctx context.Context, limit int) ([]audit.Event, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+selectColumns+` FROM registry_events WHERE published_at IS NULL ORDER BY seq ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("fetch unpublished events: %w", err)
	}
	return scanEvents(rows)
}

// MarkPublished stamps published_at for delivered events.
func (s *Store) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]string, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	_, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE registry_events SET published_at = $1 WHERE id = ANY($2::uuid[])`, at, args)
	if err != nil {
		return fmt.Errorf("mark events published: %w", err)
	}
	return nil
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e                            audit.Event
			account, counter, commitment []byte
			amount                       int64
			expiration, published        sql.NullTime
		)
		if err := rows.Scan(&e.ID, &e.Action, &e.Timestamp, &e.Name, &account, &counter,
			&commitment, &amount, &expiration, &e.RequestID, &published); err != nil {
			return nil, fmt.Errorf("scan registry event: %w", err)
		}
		copy(e.Account[:], account)
		copy(e.Counterparty[:], counter)
		copy(e.Commitment[:], commitment)
		e.Amount = uint64(amount)
		if expiration.Valid {
			e.Expiration = expiration.Time
		}
		if published.Valid {
			t := published.Time
			e.PublishedAt = &t
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registry events: %w", err)
	}
	return events, nil
}

var _ audit.OutboxStore = (*Store)(nil)

