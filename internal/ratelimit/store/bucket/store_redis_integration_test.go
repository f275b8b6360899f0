//go:build integration

package bucket_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"namereg/internal/ratelimit/store/bucket"
	"namereg/pkg/testutil/containers"
)

type RedisBucketStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *bucket.RedisBucketStore
	ctx   context.Context
}

func TestRedisBucketStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisBucketStoreSuite))
}

func (s *RedisBucketStoreSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.store = bucket.NewRedisBucketStore(s.redis.Client)
	s.ctx = context.Background()
}

func (s *RedisBucketStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisBucketStoreSuite) TestLimitIsEnforced() {
	key := "namereg:ratelimit:test:limit"
	for i := range 3 {
		result, err := s.store.Allow(s.ctx, key, 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}
	result, err := s.store.Allow(s.ctx, key, 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Positive(result.RetryAfter)

	count, err := s.store.GetCurrentCount(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *RedisBucketStoreSuite) TestCostAndReset() {
	key := "namereg:ratelimit:test:cost"
	result, err := s.store.AllowN(s.ctx, key, 4, 5, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(1, result.Remaining)

	result, err = s.store.AllowN(s.ctx, key, 2, 5, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)

	s.Require().NoError(s.store.Reset(s.ctx, key))
	result, err = s.store.AllowN(s.ctx, key, 5, 5, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisBucketStoreSuite) TestWindowExpires() {
	key := "namereg:ratelimit:test:expiry"
	_, err := s.store.Allow(s.ctx, key, 1, 200*time.Millisecond)
	s.Require().NoError(err)

	time.Sleep(300 * time.Millisecond)
	result, err := s.store.Allow(s.ctx, key, 1, 200*time.Millisecond)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
