package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCallTimeout bounds every shared-store call, per §5 "Shared-store
// calls MAY block and MUST be time-bounded."
const redisCallTimeout = 100 * time.Millisecond

// Redis is the production Store backed by a remote Redis instance, built
// the same way the teacher's ratelimiter.newRedisLimiter parses a URL into
// a client (internal/ratelimiter/ratelimiter.go).
type Redis struct {
	client *redis.Client
}

// NewRedis parses addr as a redis:// URL and returns a Redis-backed Store.
func NewRedis(addr string) (*Redis, error) {
	opts, err := redis.ParseURL(addr)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

func (r *Redis) IncrNextIndex(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return r.client.Incr(ctx, KeyNextServerIndex).Result()
}

func (r *Redis) SetNextIndex(ctx context.Context, v int64) error {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return r.client.Set(ctx, KeyNextServerIndex, v, 0).Err()
}

func (r *Redis) GetLastAlgo(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	v, err := r.client.Get(ctx, KeyLastUsedAlgo).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (r *Redis) SetLastAlgo(ctx context.Context, algo string) error {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return r.client.Set(ctx, KeyLastUsedAlgo, algo, 0).Err()
}

func (r *Redis) GetCachedBestServer(ctx context.Context) (int, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	v, err := r.client.Get(ctx, KeyCachedBestServerIdx).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	idx, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("parse cached best server index: %w", err)
	}
	return idx, true, nil
}

func (r *Redis) SetCachedBestServer(ctx context.Context, idx int) error {
	ctx, cancel := context.WithTimeout(ctx, redisCallTimeout)
	defer cancel()
	return r.client.Set(ctx, KeyCachedBestServerIdx, idx, CachedBestServerTTL).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }
