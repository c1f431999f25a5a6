// Package cache holds the read-through snapshot caches in front of the
// inventory collections. A snapshot older than its TTL is never served.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"equiphouse/internal/metrics"
)

const (
	DefaultEquipmentTTL = 5 * time.Minute
	DefaultTaxonomyTTL  = 10 * time.Minute

	EquipmentCacheName = "equipment"
	TaxonomyCacheName  = "taxonomy"
)

// Cache stores a single snapshot value. Values returned by Get are shared and
// must be treated as read-only.
type Cache[T any] interface {
	Get(ctx context.Context) (T, bool)
	Set(ctx context.Context, value T)
	Invalidate(ctx context.Context)
}

type FetchFunc[T any] func(ctx context.Context) (T, error)

// ReadThrough serves snapshots from a Cache and falls back to fetch.
type ReadThrough[T any] struct {
	name       string
	cache      Cache[T]
	fetch      FetchFunc[T]
	metrics    *metrics.Metrics
	generation atomic.Uint64
}

func NewReadThrough[T any](name string, c Cache[T], fetch FetchFunc[T], m *metrics.Metrics) *ReadThrough[T] {
	return &ReadThrough[T]{
		name:    name,
		cache:   c,
		fetch:   fetch,
		metrics: m,
	}
}

// Load returns the cached snapshot when useCache is set and the snapshot is
// fresh. Otherwise it fetches, stores the result and returns it. Fetch errors
// are returned as is and nothing is cached.
func (r *ReadThrough[T]) Load(ctx context.Context, useCache bool) (T, error) {
	if useCache {
		if value, ok := r.cache.Get(ctx); ok {
			r.metrics.CacheHit(r.name)
			return value, nil
		}
		r.metrics.CacheMiss(r.name)
	} else {
		r.metrics.CacheBypass(r.name)
	}

	generation := r.generation.Load()
	value, err := r.fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	// A fetch that raced with an invalidation may hold pre-mutation data.
	if r.generation.Load() == generation {
		r.cache.Set(ctx, value)
	}

	return value, nil
}

func (r *ReadThrough[T]) Invalidate(ctx context.Context) {
	r.generation.Add(1)
	r.cache.Invalidate(ctx)
	r.metrics.CacheInvalidated(r.name)
}
