package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"namereg/internal/ownership/models"
	"namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/platform/tx"
)

type InMemory struct {
	mu       sync.RWMutex
	names    map[string]domain.Account
	managers map[domain.Account]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		names:    make(map[string]domain.Account),
		managers: make(map[domain.Account]time.Time),
	}
}

func (s *InMemory) Name(_ context.Context, name string) (domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[name], nil
}

func (s *InMemory) SetName(ctx context.Context, name string, account domain.Account) error {
	s.mu.Lock()
	prev, existed := s.names[name]
	if account.IsZero() {
		delete(s.names, name)
	} else {
		s.names[name] = account
	}
	s.mu.Unlock()

	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.names[name] = prev
		} else {
			delete(s.names, name)
		}
	})
	return nil
}

func (s *InMemory) IsManager(_ context.Context, account domain.Account) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.managers[account]
	return ok, nil
}

func (s *InMemory) AddManager(ctx context.Context, account domain.Account, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.managers[account]; ok {
		return sentinel.ErrConflict
	}
	s.managers[account] = at
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.managers, account)
	})
	return nil
}

func (s *InMemory) RemoveManager(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	at, ok := s.managers[account]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.managers, account)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.managers[account] = at
	})
	return nil
}

func (s *InMemory) ListManagers(_ context.Context) ([]models.Manager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Manager, 0, len(s.managers))
	for account, at := range s.managers {
		out = append(out, models.Manager{Account: account, AddedAt: at})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account.String() < out[j].Account.String()
	})
	return out, nil
}
