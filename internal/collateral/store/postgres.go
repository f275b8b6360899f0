package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"namereg/pkg/domain"
	txcontext "namereg/pkg/platform/tx"
)

// PostgresStore persists the ledger in collateral_balances and collateral_allowances.
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

func (s *PostgresStore) Balance(ctx context.Context, account domain.Account) (uint64, error) {
	var amount int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT amount FROM collateral_balances WHERE account = $1`, account[:],
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return uint64(amount), nil
}

func (s *PostgresStore) SetBalance(ctx context.Context, account domain.Account, amount uint64) error {
	var err error
	if amount == 0 {
		_, err = s.execer(ctx).ExecContext(ctx,
			`DELETE FROM collateral_balances WHERE account = $1`, account[:])
	} else {
		_, err = s.execer(ctx).ExecContext(ctx, `
			INSERT INTO collateral_balances (account, amount) VALUES ($1, $2)
			ON CONFLICT (account) DO UPDATE SET amount = EXCLUDED.amount`,
			account[:], int64(amount))
	}
	if err != nil {
		return fmt.Errorf("write balance: %w", err)
	}
	return nil
}

func (s *PostgresStore) Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error) {
	var amount int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT amount FROM collateral_allowances WHERE owner = $1 AND spender = $2`,
		owner[:], spender[:],
	).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read allowance: %w", err)
	}
	return uint64(amount), nil
}

func (s *PostgresStore) SetAllowance(ctx context.Context, owner, spender domain.Account, amount uint64) error {
	var err error
	if amount == 0 {
		_, err = s.execer(ctx).ExecContext(ctx,
			`DELETE FROM collateral_allowances WHERE owner = $1 AND spender = $2`,
			owner[:], spender[:])
	} else {
		_, err = s.execer(ctx).ExecContext(ctx, `
			INSERT INTO collateral_allowances (owner, spender, amount) VALUES ($1, $2, $3)
			ON CONFLICT (owner, spender) DO UPDATE SET amount = EXCLUDED.amount`,
			owner[:], spender[:], int64(amount))
	}
	if err != nil {
		return fmt.Errorf("write allowance: %w", err)
	}
	return nil
}

func (s *PostgresStore) TotalSupply(ctx context.Context) (uint64, error) {
	var total int64
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0)::BIGINT FROM collateral_balances`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("read total supply: %w", err)
	}
	return uint64(total), nil
}
