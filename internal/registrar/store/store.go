// Package store persists claims, registration expirations and stakes.
//
// Missing rows read as zero values, except Claim which reports
// sentinel.ErrNotFound. Writes made inside a tx.Manager transaction are
// undone with it.
package store

import (
	"context"
	"time"

	"namereg/internal/registrar/models"
	"namereg/pkg/domain"
)

type Store interface {
	Claim(ctx context.Context, hash domain.CommitmentHash) (*models.Claim, error)
	PutClaim(ctx context.Context, claim models.Claim) error

	// Expiration returns the zero time for names never registered or cleared.
	Expiration(ctx context.Context, name string) (time.Time, error)
	// SetExpiration with the zero time clears the registration.
	SetExpiration(ctx context.Context, name string, expiration time.Time) error

	Stake(ctx context.Context, staker domain.Account, name string) (uint64, error)
	// SetStake with zero removes the stake.
	SetStake(ctx context.Context, staker domain.Account, name string, amount uint64) error
}
