package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"namereg/internal/ownership/models"
	"namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
	txcontext "namereg/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Name(ctx context.Context, name string) (domain.Account, error) {
	var raw []byte
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT account FROM ownership_names WHERE name = $1`, name,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ZeroAccount, nil
	}
	if err != nil {
		return domain.ZeroAccount, fmt.Errorf("read name: %w", err)
	}
	return accountFromBytes(raw)
}

func (s *PostgresStore) SetName(ctx context.Context, name string, account domain.Account) error {
	var err error
	if account.IsZero() {
		_, err = s.execer(ctx).ExecContext(ctx, `DELETE FROM ownership_names WHERE name = $1`, name)
	} else {
		_, err = s.execer(ctx).ExecContext(ctx, `
			INSERT INTO ownership_names (name, account) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET account = EXCLUDED.account`,
			name, account[:])
	}
	if err != nil {
		return fmt.Errorf("write name: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsManager(ctx context.Context, account domain.Account) (bool, error) {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM ownership_managers WHERE account = $1)`, account[:],
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check manager: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) AddManager(ctx context.Context, account domain.Account, at time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO ownership_managers (account, added_at) VALUES ($1, $2)
		ON CONFLICT (account) DO NOTHING`,
		account[:], at)
	if err != nil {
		return fmt.Errorf("add manager: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) RemoveManager(ctx context.Context, account domain.Account) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`DELETE FROM ownership_managers WHERE account = $1`, account[:])
	if err != nil {
		return fmt.Errorf("remove manager: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListManagers(ctx context.Context) ([]models.Manager, error) {
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT account, added_at FROM ownership_managers ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	defer rows.Close()

	var out []models.Manager
	for rows.Next() {
		var raw []byte
		var m models.Manager
		if err := rows.Scan(&raw, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("scan manager: %w", err)
		}
		if m.Account, err = accountFromBytes(raw); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func accountFromBytes(raw []byte) (domain.Account, error) {
	var a domain.Account
	if len(raw) != len(a) {
		return domain.ZeroAccount, fmt.Errorf("stored account has %d bytes", len(raw))
	}
	copy(a[:], raw)
	return a, nil
}
