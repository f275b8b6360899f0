// Package store persists the ownership ledger: the name -> account map and the
// manager allow-list. The zero account means "no owner" and is never stored.
package store

import (
	"context"
	"time"

	"namereg/internal/ownership/models"
	"namereg/pkg/domain"
)

// Store is the persistence contract of the ownership ledger.
// AddManager returns sentinel.ErrConflict for a present account and
// RemoveManager returns sentinel.ErrNotFound for an absent one.
type Store interface {
	Name(ctx context.Context, name string) (domain.Account, error)
	SetName(ctx context.Context, name string, account domain.Account) error
	IsManager(ctx context.Context, account domain.Account) (bool, error)
	AddManager(ctx context.Context, account domain.Account, at time.Time) error
	RemoveManager(ctx context.Context, account domain.Account) error
	ListManagers(ctx context.Context) ([]models.Manager, error)
}
