package tx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// serialLockKey is the advisory lock every mutating transaction takes so that
// operations execute in one global order.
const serialLockKey int64 = 0x6e616d6572656700

// SQLManager runs transactions on a Postgres database. Non-SQL participants
// register compensations on the journal that is attached alongside the *sql.Tx.
type SQLManager struct {
	db *sql.DB
}

// NewSQLManager constructs a SQLManager.
func NewSQLManager(db *sql.DB) *SQLManager {
	return &SQLManager{db: db}
}

func (m *SQLManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, joined := From(ctx); joined {
		return fn(ctx)
	}

	sqlTx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	journal := &Journal{}
	defer func() {
		if err != nil {
			journal.Rollback()
			if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
			}
		}
	}()

	if _, err = sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, serialLockKey); err != nil {
		return fmt.Errorf("acquire serial lock: %w", err)
	}

	if err = fn(WithJournal(WithTx(ctx, sqlTx), journal)); err != nil {
		return err
	}
	if err = sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	journal.Discard()
	return nil
}
