//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"ledgertrace/internal/ratelimit"
	"ledgertrace/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *ratelimit.RedisStore
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.store = ratelimit.NewRedisStore(s.redis.Client)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisStoreSuite) TestAllowWithinBudget() {
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		result, err := s.store.Allow(ctx, "ratelimit:ownership:10.0.0.1", 3, time.Minute)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(2-i, result.Remaining)
	}

	result, err := s.store.Allow(ctx, "ratelimit:ownership:10.0.0.1", 3, time.Minute)
	s.Require().NoError(err)
	s.False(result.Allowed)
	s.Zero(result.Remaining)
	s.Positive(result.RetryAfter)
}

func (s *RedisStoreSuite) TestDeniedRequestsDoNotConsumeBudget() {
	ctx := context.Background()
	key := "ratelimit:analyze:10.0.0.1"

	_, err := s.store.Allow(ctx, key, 1, time.Minute)
	s.Require().NoError(err)

	// Denied attempts roll their member back out of the set, so the count
	// stays at the limit instead of growing unboundedly.
	for i := 0; i < 5; i++ {
		result, err := s.store.Allow(ctx, key, 1, time.Minute)
		s.Require().NoError(err)
		s.False(result.Allowed)
	}

	count, err := s.redis.Client.ZCard(ctx, key).Result()
	s.Require().NoError(err)
	s.EqualValues(1, count)
}

func (s *RedisStoreSuite) TestKeysAreIndependent() {
	ctx := context.Background()

	_, err := s.store.Allow(ctx, "ratelimit:ownership:10.0.0.1", 1, time.Minute)
	s.Require().NoError(err)

	result, err := s.store.Allow(ctx, "ratelimit:ownership:10.0.0.2", 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisStoreSuite) TestWindowExpires() {
	ctx := context.Background()
	key := "ratelimit:export:10.0.0.1"

	_, err := s.store.Allow(ctx, key, 1, time.Second)
	s.Require().NoError(err)

	result, err := s.store.Allow(ctx, key, 1, time.Second)
	s.Require().NoError(err)
	s.Require().False(result.Allowed)

	time.Sleep(1100 * time.Millisecond)

	result, err = s.store.Allow(ctx, key, 1, time.Second)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *RedisStoreSuite) TestReset() {
	ctx := context.Background()
	key := "ratelimit:ownership:10.0.0.1"

	_, err := s.store.Allow(ctx, key, 1, time.Minute)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Reset(ctx, key))

	result, err := s.store.Allow(ctx, key, 1, time.Minute)
	s.Require().NoError(err)
	s.True(result.Allowed)
}
