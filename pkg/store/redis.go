package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisKeyPrefix prefixes the list key of each request.
const RedisKeyPrefix = "responses:list:"

// Redis keeps each request's responses in a Redis list.
type Redis struct {
	redis *redis.Client
}

// NewRedis creates a Redis-backed store.
func NewRedis(redisClient *redis.Client) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{redis: redisClient}
}

// Key returns the list key of a request.
func (r *Redis) Key(requestID string) string {
	return RedisKeyPrefix + requestID
}

// Append implements Store.
func (r *Redis) Append(ctx context.Context, requestID string, contents ...string) error {
	if len(contents) == 0 {
		return nil
	}

	values := make([]interface{}, len(contents))
	for i, c := range contents {
		values[i] = c
	}

	if err := r.redis.RPush(ctx, r.Key(requestID), values...).Err(); err != nil {
		storeErrorsTotal.WithLabelValues("redis", "append").Inc()
		return fmt.Errorf("redis rpush: %w", err)
	}
	return nil
}

// Count implements Store.
func (r *Redis) Count(ctx context.Context, requestID string) (int, error) {
	n, err := r.redis.LLen(ctx, r.Key(requestID)).Result()
	if err != nil {
		storeErrorsTotal.WithLabelValues("redis", "count").Inc()
		return 0, fmt.Errorf("redis llen: %w", err)
	}
	return int(n), nil
}

// Range implements Store.
func (r *Redis) Range(ctx context.Context, requestID string, start, stop int) ([]string, error) {
	if start < 0 {
		start = 0
	}
	if stop <= start {
		return []string{}, nil
	}

	// LRANGE is inclusive and clamps to the list itself
	values, err := r.redis.LRange(ctx, r.Key(requestID), int64(start), int64(stop-1)).Result()
	if err != nil {
		storeErrorsTotal.WithLabelValues("redis", "range").Inc()
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	return values, nil
}

// Close implements Store. The Redis client is owned by the caller.
func (r *Redis) Close() error {
	return nil
}
