package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/logx"
)

// Bucket names are part of the invalidation contract: every successful
// schema mutation deletes both the list bucket and the mutated slug's bucket.
const BucketAdminCategories = "ticket-admin-categories"

func BucketCategory(slug string) string { return "ticket-category:" + slug }

// Store is a byte-blob cache with delete-based invalidation. Reads after an
// invalidation refetch from the database; nothing stronger than eventual
// consistency is promised.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
	Del(ctx context.Context, keys ...string)
}

// New returns a redis-backed store, or the no-op store when url is empty or
// unparsable. Cache failures must never fail a request, so errors only log.
func New(url string) Store {
	if url == "" {
		return Noop()
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		logx.Errorf("cache: redis parse url: %v", err)
		return Noop()
	}
	return &redisStore{cli: redis.NewClient(opt)}
}

type redisStore struct{ cli *redis.Client }

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := s.cli.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logx.Errorf("cache: get %s: %v", key, err)
		}
		return nil, false
	}
	return b, true
}

func (s *redisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := s.cli.Set(ctx, key, val, ttl).Err(); err != nil {
		logx.Errorf("cache: set %s: %v", key, err)
	}
}

func (s *redisStore) Del(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.cli.Del(ctx, keys...).Err(); err != nil {
		logx.Errorf("cache: del %v: %v", keys, err)
	}
}

// InvalidateCategory drops the buckets a schema mutation touches.
func InvalidateCategory(ctx context.Context, s Store, slug string) {
	s.Del(ctx, BucketAdminCategories, BucketCategory(slug))
}

// Noop returns a store that caches nothing; every Get misses.
func Noop() Store { return noopStore{} }

type noopStore struct{}

func (noopStore) Get(context.Context, string) ([]byte, bool)              { return nil, false }
func (noopStore) Set(context.Context, string, []byte, time.Duration)     {}
func (noopStore) Del(context.Context, ...string)                         {}
