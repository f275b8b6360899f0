// Package store persists collateral balances and allowances.
//
// Missing rows read as zero. Writes made inside a tx.Manager transaction are
// undone with it.
package store

import (
	"context"

	"namereg/pkg/domain"
)

// Store is the persistence contract of the collateral ledger.
type Store interface {
	Balance(ctx context.Context, account domain.Account) (uint64, error)
	SetBalance(ctx context.Context, account domain.Account, amount uint64) error
	Allowance(ctx context.Context, owner, spender domain.Account) (uint64, error)
	SetAllowance(ctx context.Context, owner, spender domain.Account, amount uint64) error
	TotalSupply(ctx context.Context) (uint64, error)
}
