package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"namereg/internal/registrar/models"
	"namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
	txcontext "namereg/pkg/platform/tx"
)

// PostgresStore persists engine state in the registrar_* tables.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Claim(ctx context.Context, hash domain.CommitmentHash) (*models.Claim, error) {
	var (
		claimant []byte
		created  time.Time
	)
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT claimant, created_at FROM registrar_claims WHERE hash = $1`, hash[:],
	).Scan(&claimant, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read claim: %w", err)
	}
	c := &models.Claim{Hash: hash, CreatedAt: created.UTC()}
	copy(c.Claimant[:], claimant)
	return c, nil
}

func (s *PostgresStore) PutClaim(ctx context.Context, claim models.Claim) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO registrar_claims (hash, claimant, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (hash) DO UPDATE SET claimant = EXCLUDED.claimant, created_at = EXCLUDED.created_at`,
		claim.Hash[:], claim.Claimant[:], claim.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("write claim: %w", err)
	}
	return nil
}

func (s *PostgresStore) Expiration(ctx context.Context, name string) (time.Time, error) {
	var exp time.Time
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT expiration FROM registrar_registrations WHERE name = $1`, name,
	).Scan(&exp)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read expiration: %w", err)
	}
	return exp.UTC(), nil
}

func (s *PostgresStore) SetExpiration(ctx context.Context, name string, expiration time.Time) error {
	var err error
	if expiration.IsZero() {
		_, err = s.execer(ctx).ExecContext(ctx,
			`DELETE FROM registrar_registrations WHERE name = $1`, name)
	} else {
		_, err = s.execer(ctx).ExecContext(ctx, `
			INSERT INTO registrar_registrations (name, expiration) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET expiration = EXCLUDED.expiration`,
			name, expiration.UTC())
	}
	if err != nil {
		return fmt.Errorf("write expiration: %w", err)
	}
	return nil
}

func (s *PostgresStore) Stake(ctx context.Context, staker domain.Account, name string) (uint64, error) {
	var amount int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT amount FROM registrar_stakes WHERE staker = $1 AND name = $2`, staker[:], name,
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read stake: %w", err)
	}
	return uint64(amount), nil
}

func (s *PostgresStore) SetStake(ctx context.Context, staker domain.Account, name string, amount uint64) error {
	var err error
	if amount == 0 {
		_, err = s.execer(ctx).ExecContext(ctx,
			`DELETE FROM registrar_stakes WHERE staker = $1 AND name = $2`, staker[:], name)
	} else {
		_, err = s.execer(ctx).ExecContext(ctx, `
			INSERT INTO registrar_stakes (staker, name, amount) VALUES ($1, $2, $3)
			ON CONFLICT (staker, name) DO UPDATE SET amount = EXCLUDED.amount`,
			staker[:], name, int64(amount))
	}
	if err != nil {
		return fmt.Errorf("write stake: %w", err)
	}
	return nil
}
