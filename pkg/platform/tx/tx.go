// Package tx carries transaction state through context so stores participating in one
// logical operation commit or roll back together.
//
// SQL stores pick up the *sql.Tx with From. In-memory and Redis stores register undo
// closures on the Journal, which the Manager replays in reverse when the operation fails.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Manager runs fn as a single all-or-nothing unit. Calls made from inside fn with the
// context it received join the running transaction.
type Manager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
