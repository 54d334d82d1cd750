// Package cache provides the time-bounded value cell that guards every remote
// fetch in the namespace.
package cache

import (
	"context"
	"sync"
	"time"
)

// Clock returns the current time. Tests swap it to step past a TTL.
type Clock func() time.Time

// Forever is the TTL of a cell that keeps a computed value until invalidated
const Forever time.Duration = -1

// Cell holds the result of one expensive computation for ttl.
//
// A refresh (compute + store) runs under the cell's own mutex, so concurrent
// callers observing an expired cell trigger exactly one computation and the
// rest wait for its result. Cells share no lock with each other.
type Cell[T any] struct {
	ttl       time.Duration
	now       Clock
	mu        sync.Mutex
	value     T
	refreshed time.Time
	filled    bool
}

// New creates an empty Cell whose values stay valid for ttl
func New[T any](ttl time.Duration) *Cell[T] {
	return NewWithClock[T](ttl, time.Now)
}

// NewWithClock is like [New] but reads time from now
func NewWithClock[T any](ttl time.Duration, now Clock) *Cell[T] {
	return &Cell[T]{ttl: ttl, now: now}
}

// TTL returns the validity window of the cell
func (c *Cell[T]) TTL() time.Duration {
	return c.ttl
}

// Valid reports whether the cell holds a value younger than its TTL
func (c *Cell[T]) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validLocked()
}

func (c *Cell[T]) validLocked() bool {
	if !c.filled {
		return false
	}
	return c.ttl == Forever || c.now().Sub(c.refreshed) < c.ttl
}

// Get returns the cached value while it is valid. Otherwise it discards the
// old value, calls compute and stores the result.
//
// A failed compute leaves the cell empty so the next call retries instead of
// waiting out a TTL window.
func (c *Cell[T]) Get(ctx context.Context, compute func(ctx context.Context) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.validLocked() {
		return c.value, nil
	}
	c.clearLocked()

	if err := ctx.Err(); err != nil {
		var zero T
		return zero, err
	}

	value, err := compute(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.value = value
	c.refreshed = c.now()
	c.filled = true
	return value, nil
}

// Peek returns the current value without refreshing it
func (c *Cell[T]) Peek() (value T, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.validLocked() {
		return value, false
	}
	return c.value, true
}

// Invalidate drops the cached value
func (c *Cell[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearLocked()
}

func (c *Cell[T]) clearLocked() {
	var zero T
	c.value = zero
	c.refreshed = time.Time{}
	c.filled = false
}
