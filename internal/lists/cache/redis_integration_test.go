//go:build integration

package cache

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"listmgmt/internal/lists/models"
	"listmgmt/pkg/testutil/containers"
)

// =============================================================================
// Redis Cache Suite
// =============================================================================
// Justification: claim and tombstone atomicity lives in Lua and SET GET, so
// it is only meaningful against a real server.

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *RedisCache
	ctx   context.Context
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.ctx = context.Background()
	s.redis = containers.NewRedisContainer(s.T())
	s.cache = NewRedis(s.redis.Client, WithTombstoneTTL(time.Minute))
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(s.ctx))
}

func (s *RedisCacheSuite) state(key string) models.CacheState {
	st, err := s.cache.Lookup(s.ctx, key)
	s.Require().NoError(err)
	return st
}

func (s *RedisCacheSuite) TestClaimHasOneWinner() {
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, err := s.cache.Claim(s.ctx, "blacklist:race"); err == nil && ok {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
	s.Equal(models.CachePresent, s.state("blacklist:race"))
}

func (s *RedisCacheSuite) TestTombstoneLifecycle() {
	s.Equal(models.CacheMiss, s.state("blacklist:v"))

	prev, err := s.cache.Tombstone(s.ctx, "blacklist:v")
	s.Require().NoError(err)
	s.Equal(models.CacheMiss, prev)
	s.Equal(models.CacheTombstone, s.state("blacklist:v"))

	ttl, err := s.redis.Client.TTL(s.ctx, "blacklist:v").Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	s.Run("backfill does not resurrect a tombstone", func() {
		s.Require().NoError(s.cache.Backfill(s.ctx, "blacklist:v"))
		s.Equal(models.CacheTombstone, s.state("blacklist:v"))
	})

	s.Run("claim overrides a tombstone", func() {
		ok, err := s.cache.Claim(s.ctx, "blacklist:v")
		s.Require().NoError(err)
		s.True(ok)
		s.Equal(models.CachePresent, s.state("blacklist:v"))
	})

	s.Run("tombstone reports previous present", func() {
		prev, err := s.cache.Tombstone(s.ctx, "blacklist:v")
		s.Require().NoError(err)
		s.Equal(models.CachePresent, prev)
	})

	s.Run("restore", func() {
		s.Require().NoError(s.cache.Restore(s.ctx, "blacklist:v"))
		s.Equal(models.CachePresent, s.state("blacklist:v"))
	})
}

func (s *RedisCacheSuite) TestDeleteManyKeys() {
	keys := make([]string, 0, 1200)
	for i := 0; i < 1200; i++ {
		key := fmt.Sprintf("blacklist:%d", i)
		s.Require().NoError(s.cache.Backfill(s.ctx, key))
		keys = append(keys, key)
	}
	s.Require().NoError(s.cache.Delete(s.ctx, keys...))

	n, err := s.redis.Client.DBSize(s.ctx).Result()
	s.Require().NoError(err)
	s.Zero(n)
}
