package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "equiphouse:cache:"

// Redis keeps the snapshot in a shared Redis key so every engine process
// observes the same invalidations. Redis errors degrade to cache misses.
type Redis[T any] struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedis[T any](client redis.UniversalClient, name string, ttl time.Duration, logger *zap.Logger) *Redis[T] {
	return &Redis[T]{
		client: client,
		key:    keyPrefix + name,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis[T]) Get(ctx context.Context) (T, bool) {
	var value T

	payload, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("Cache read failed", zap.String("key", r.key), zap.Error(err))
		}
		return value, false
	}

	if err := json.Unmarshal(payload, &value); err != nil {
		r.logger.Warn("Dropping undecodable cache entry", zap.String("key", r.key), zap.Error(err))
		r.Invalidate(ctx)
		var zero T
		return zero, false
	}

	return value, true
}

func (r *Redis[T]) Set(ctx context.Context, value T) {
	payload, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("Cache entry not encodable", zap.String("key", r.key), zap.Error(err))
		return
	}

	if err := r.client.Set(ctx, r.key, payload, r.ttl).Err(); err != nil {
		r.logger.Warn("Cache write failed", zap.String("key", r.key), zap.Error(err))
	}
}

func (r *Redis[T]) Invalidate(ctx context.Context) {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		r.logger.Error("Cache invalidation failed", zap.String("key", r.key), zap.Error(err))
	}
}
