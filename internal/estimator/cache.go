package estimator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"costdelta/internal/logging"
)

type cacheEntry struct {
	quote *Quote
	err   error
}

// Cache memoizes lookups for the lifetime of one run. Concurrent requests
// for the same key share one in-flight call.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
	calls   int64
}

// NewCache creates an empty cache
func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

func (c *Cache) load(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// Get returns the cached outcome for key or calls fn to produce it. Quotes
// and lookup failures are both remembered; cancellations are not. A
// remembered outcome is returned even after ctx has ended, but fn is never
// called once it has.
func (c *Cache) Get(ctx context.Context, key string, fn func(ctx context.Context) (*Quote, error)) (*Quote, error) {
	if e, ok := c.load(key); ok {
		return e.quote, e.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if e, ok := c.load(key); ok {
			return e.quote, e.err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		atomic.AddInt64(&c.calls, 1)
		quote, err := fn(ctx)
		if err != nil && isCancellation(ctx, err) {
			return quote, err
		}

		c.mu.Lock()
		c.entries[key] = cacheEntry{quote: quote, err: err}
		c.mu.Unlock()
		return quote, err
	})
	if shared {
		logging.Debug("Shared in-flight price lookup", map[string]interface{}{"key": key})
	}

	quote, _ := v.(*Quote)
	return quote, err
}

// Calls returns how many times a lookup function was invoked
func (c *Cache) Calls() int {
	return int(atomic.LoadInt64(&c.calls))
}

// Len returns the number of remembered outcomes
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func isCancellation(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
