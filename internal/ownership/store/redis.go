package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"namereg/internal/ownership/models"
	"namereg/pkg/domain"
	"namereg/pkg/platform/sentinel"
	"namereg/pkg/platform/tx"
)

const (
	nameKeyPrefix = "namereg:ownership:name:"
	managersKey   = "namereg:ownership:managers"
)

// RedisStore keeps names as string keys and managers in a hash of account ->
// added-at (unix nanos). Redis writes are immediate; inside a transaction each
// write registers a compensating write that restores the previous value.
type RedisStore struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Name(ctx context.Context, name string) (domain.Account, error) {
	val, err := s.client.Get(ctx, nameKeyPrefix+name).Result()
	if errors.Is(err, redis.Nil) {
		return domain.ZeroAccount, nil
	}
	if err != nil {
		return domain.ZeroAccount, fmt.Errorf("read name: %w", err)
	}
	return domain.ParseAccount(val)
}

func (s *RedisStore) SetName(ctx context.Context, name string, account domain.Account) error {
	key := nameKeyPrefix + name
	prev, err := s.client.Get(ctx, key).Result()
	existed := err == nil
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("read name: %w", err)
	}

	if account.IsZero() {
		err = s.client.Del(ctx, key).Err()
	} else {
		err = s.client.Set(ctx, key, account.String(), 0).Err()
	}
	if err != nil {
		return fmt.Errorf("write name: %w", err)
	}

	tx.OnRollback(ctx, func() {
		undoCtx := context.WithoutCancel(ctx)
		if existed {
			_ = s.client.Set(undoCtx, key, prev, 0).Err()
		} else {
			_ = s.client.Del(undoCtx, key).Err()
		}
	})
	return nil
}

func (s *RedisStore) IsManager(ctx context.Context, account domain.Account) (bool, error) {
	ok, err := s.client.HExists(ctx, managersKey, account.String()).Result()
	if err != nil {
		return false, fmt.Errorf("check manager: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) AddManager(ctx context.Context, account domain.Account, at time.Time) error {
	added, err := s.client.HSetNX(ctx, managersKey, account.String(), at.UnixNano()).Result()
	if err != nil {
		return fmt.Errorf("add manager: %w", err)
	}
	if !added {
		return sentinel.ErrConflict
	}
	tx.OnRollback(ctx, func() {
		_ = s.client.HDel(context.WithoutCancel(ctx), managersKey, account.String()).Err()
	})
	return nil
}

func (s *RedisStore) RemoveManager(ctx context.Context, account domain.Account) error {
	field := account.String()
	prev, err := s.client.HGet(ctx, managersKey, field).Result()
	if errors.Is(err, redis.Nil) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("read manager: %w", err)
	}
	if err := s.client.HDel(ctx, managersKey, field).Err(); err != nil {
		return fmt.Errorf("remove manager: %w", err)
	}
	tx.OnRollback(ctx, func() {
		_ = s.client.HSet(context.WithoutCancel(ctx), managersKey, field, prev).Err()
	})
	return nil
}

func (s *RedisStore) ListManagers(ctx context.Context) ([]models.Manager, error) {
	all, err := s.client.HGetAll(ctx, managersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list managers: %w", err)
	}
	out := make([]models.Manager, 0, len(all))
	for field, nanos := range all {
		account, err := domain.ParseAccount(field)
		if err != nil {
			return nil, err
		}
		var n int64
		if _, err := fmt.Sscan(nanos, &n); err != nil {
			return nil, fmt.Errorf("parse manager timestamp: %w", err)
		}
		out = append(out, models.Manager{Account: account, AddedAt: time.Unix(0, n).UTC()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account.String() < out[j].Account.String()
	})
	return out, nil
}
