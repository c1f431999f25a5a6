package cache

import (
	"context"
	"sync"
	"time"

	"equiphouse/internal/clock"
)

// Memory is a process local snapshot cache. Separate processes sharing one
// store each keep their own snapshot; use Redis when that matters.
type Memory[T any] struct {
	mu       sync.RWMutex
	value    T
	storedAt time.Time
	valid    bool
	ttl      time.Duration
	clock    clock.Clock
}

func NewMemory[T any](ttl time.Duration, c clock.Clock) *Memory[T] {
	if c == nil {
		c = clock.New()
	}
	return &Memory[T]{ttl: ttl, clock: c}
}

func (m *Memory[T]) Get(_ context.Context) (T, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.valid || m.clock.Now().Sub(m.storedAt) >= m.ttl {
		var zero T
		return zero, false
	}

	return m.value, true
}

func (m *Memory[T]) Set(_ context.Context, value T) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.value = value
	m.storedAt = m.clock.Now()
	m.valid = true
}

func (m *Memory[T]) Invalidate(_ context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var zero T
	m.value = zero
	m.valid = false
}
