// Package ports declares the ledgers the registration engine depends on.
package ports

import (
	"context"

	"namereg/pkg/domain"
)

// CollateralLedger moves stake collateral. Failures carry
// insufficient_funds or insufficient_allowance codes.
type CollateralLedger interface {
	TransferFrom(ctx context.Context, spender, from, to domain.Account, amount uint64) error
	Transfer(ctx context.Context, from, to domain.Account, amount uint64) error
	BalanceOf(ctx context.Context, account domain.Account) (uint64, error)
}

// OwnershipLedger is the permissioned name -> account map. SetName fails with
// permission_denied unless caller is an allow-listed manager.
type OwnershipLedger interface {
	SetName(ctx context.Context, caller domain.Account, name string, account domain.Account) error
	Name(ctx context.Context, name string) (domain.Account, error)
}
