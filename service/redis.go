package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"github.com/alqadi/procuredocs"
)

// ErrLockNotObtained is returned when the render lock stays taken until the
// retries run out.
var ErrLockNotObtained = errors.New("service: render lock not obtained")

// RedisCache stores documents as JSON values in redis.
type RedisCache struct {
	rdb    redis.Cmdable
	prefix string
}

// NewRedisCache returns a cache storing entries under "procuredocs:doc:".
func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: "procuredocs:doc:"}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*procuredocs.Document, bool, error) {
	val, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("service: redis get: %w", err)
	}
	var doc procuredocs.Document
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, false, fmt.Errorf("service: decoding cached document: %w", err)
	}
	return &doc, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, doc *procuredocs.Document, ttl time.Duration) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("service: encoding document: %w", err)
	}
	if err := c.rdb.Set(ctx, c.prefix+key, b, ttl).Err(); err != nil {
		return fmt.Errorf("service: redis set: %w", err)
	}
	return nil
}

// RedisLocker takes render locks with redislock.
type RedisLocker struct {
	client *redislock.Client
	retry  redislock.RetryStrategy
}

// NewRedisLocker returns a locker that retries every 100ms, up to 100 times.
func NewRedisLocker(rdb redislock.RedisClient) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		retry:  redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 100),
	}
}

func (l *RedisLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	lock, err := l.client.Obtain(ctx, "procuredocs:lock:"+key, ttl, &redislock.Options{RetryStrategy: l.retry})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLockNotObtained
	}
	if err != nil {
		return nil, fmt.Errorf("service: obtaining lock: %w", err)
	}
	return lock.Release, nil
}
