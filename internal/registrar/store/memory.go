package store

import (
	"context"
	"sync"
	"time"

	"namereg/internal/registrar/models"
	"namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/platform/tx"
)

type stakeKey struct {
	staker domain.Account
	name   string
}

// InMemory keeps engine state in maps and journals every write.
type InMemory struct {
	mu          sync.RWMutex
	claims      map[domain.CommitmentHash]models.Claim
	expirations map[string]time.Time
	stakes      map[stakeKey]uint64
}

func NewInMemory() *InMemory {
	return &InMemory{
		claims:      make(map[domain.CommitmentHash]models.Claim),
		expirations: make(map[string]time.Time),
		stakes:      make(map[stakeKey]uint64),
	}
}

func (s *InMemory) Claim(_ context.Context, hash domain.CommitmentHash) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[hash]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemory) PutClaim(ctx context.Context, claim models.Claim) error {
	s.mu.Lock()
	prev, existed := s.claims[claim.Hash]
	s.claims[claim.Hash] = claim
	s.mu.Unlock()

	tx.OnRollback(ctx, func() {
		restore(&s.mu, s.claims, claim.Hash, prev, existed)
	})
	return nil
}

func (s *InMemory) Expiration(_ context.Context, name string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.expirations[name], nil
}

func (s *InMemory) SetExpiration(ctx context.Context, name string, expiration time.Time) error {
	s.mu.Lock()
	prev, existed := s.expirations[name]
	if expiration.IsZero() {
		delete(s.expirations, name)
	} else {
		s.expirations[name] = expiration
	}
	s.mu.Unlock()

	tx.OnRollback(ctx, func() {
		restore(&s.mu, s.expirations, name, prev, existed)
	})
	return nil
}

func (s *InMemory) Stake(_ context.Context, staker domain.Account, name string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stakes[stakeKey{staker, name}], nil
}

func (s *InMemory) SetStake(ctx context.Context, staker domain.Account, name string, amount uint64) error {
	key := stakeKey{staker, name}
	s.mu.Lock()
	prev, existed := s.stakes[key]
	if amount == 0 {
		delete(s.stakes, key)
	} else {
		s.stakes[key] = amount
	}
	s.mu.Unlock()

	tx.OnRollback(ctx, func() {
		restore(&s.mu, s.stakes, key, prev, existed)
	})
	return nil
}

func restore[K comparable, V any](mu *sync.RWMutex, m map[K]V, key K, prev V, existed bool) {
	mu.Lock()
	defer mu.Unlock()
	if existed {
		m[key] = prev
	} else {
		delete(m, key)
	}
}
