package store

import (
	"context"
	"sync"

	"namereg/pkg/domain"
	"namereg/pkg/platform/tx"
)

type allowanceKey struct {
	owner   domain.Account
	spender domain.Account
}

// InMemory keeps balances in maps and journals every write.
type InMemory struct {
	mu         sync.RWMutex
	balances   map[domain.Account]uint64
	allowances map[allowanceKey]uint64
}

func NewInMemory() *InMemory {
	return &InMemory{
		balances:   make(map[domain.Account]uint64),
		allowances: make(map[allowanceKey]uint64),
	}
}

func (s *InMemory) Balance(_ context.Context, account domain.Account) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[account], nil
}

func (s *InMemory) SetBalance(ctx context.Context, account domain.Account, amount uint64) error {
	s.mu.Lock()
	prev, existed := s.balances[account]
	putOrDelete(s.balances, account, amount)
	s.mu.Unlock()

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.balances[account] = prev
		} else {
			delete(s.balances, account)
		}
	})
	return nil
}

func (s *InMemory) Allowance(_ context.Context, owner, spender domain.Account) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allowances[allowanceKey{owner, spender}], nil
}

func (s *InMemory) SetAllowance(ctx context.Context, owner, spender domain.Account, amount uint64) error {
	key := allowanceKey{owner, spender}
	s.mu.Lock()
	prev, existed := s.allowances[key]
	putOrDelete(s.allowances, key, amount)
	s.mu.Unlock()

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.allowances[key] = prev
		} else {
			delete(s.allowances, key)
		}
	})
	return nil
}

func (s *InMemory) TotalSupply(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total uint64
	for _, b := range s.balances {
		total += b
	}
	return total, nil
}

func putOrDelete[K comparable](m map[K]uint64, key K, amount uint64) {
	if amount == 0 {
		delete(m, key)
		return
	}
	m[key] = amount
}
