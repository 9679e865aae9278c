// Package cache keeps fetched API data keyed by the request parameters that
// produced it. Each entry records when it was fetched; callers decide how
// long an entry stays fresh and invalidate explicitly after mutations.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultGCAge is how long an entry outlives its stale time before it is
// dropped.
const DefaultGCAge = 5 * time.Minute

// sweepEvery bounds how often Fetch scans for entries to drop.
const sweepEvery = time.Minute

type entry struct {
	value     any
	fetchedAt time.Time
	stale     time.Duration
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	// gen counts loads started and invalidations per key. A load only stores
	// its value if no newer load or invalidation happened while it ran.
	gen       map[string]uint64
	inflight  map[string]bool
	group     singleflight.Group
	now       func() time.Time
	gcAge     time.Duration
	lastSweep time.Time
}

func New() *Cache {
	return &Cache{
		entries:  make(map[string]entry),
		gen:      make(map[string]uint64),
		inflight: make(map[string]bool),
		now:      time.Now,
		gcAge:    DefaultGCAge,
	}
}

// SetClock replaces time.Now. Tests only.
func (c *Cache) SetClock(now func() time.Time) { c.now = now }

// SetGCAge changes how long unused entries are kept. An entry is dropped
// once it is older than both its stale time and age.
func (c *Cache) SetGCAge(age time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gcAge = age
}

// Key joins parts into a cache key: Key("products", cfg.Encode()).
func Key(parts ...string) string { return strings.Join(parts, "|") }

// Loader fetches a fresh value.
type Loader[T any] func(ctx context.Context) (T, error)

// Fetch returns the cached value for key while it is younger than stale.
// Otherwise it runs load; concurrent callers for the same key share one load.
// stale <= 0 means every call refetches.
//
// The shared load runs without the first caller's cancellation. Each caller
// stops waiting when its own ctx is done.
func Fetch[T any](ctx context.Context, c *Cache, key string, stale time.Duration, load Loader[T]) (T, error) {
	var zero T
	c.maybeSweep()
	if v, ok := lookup[T](c, key, stale); ok {
		return v, nil
	}
	ch := c.group.DoChan(key, func() (any, error) {
		g := c.begin(key)
		v, err := load(context.WithoutCancel(ctx))
		c.finish(key, g, v, stale, err)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return zero, res.Err
	}
	v, ok := res.Val.(T)
	if !ok {
		return zero, fmt.Errorf("cache: %s holds %T", key, res.Val)
	}
	return v, nil
}

func lookup[T any](c *Cache, key string, stale time.Duration) (T, bool) {
	var zero T
	if stale <= 0 {
		return zero, false
	}
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok || c.now().Sub(e.fetchedAt) >= stale {
		return zero, false
	}
	v, ok := e.value.(T)
	return v, ok
}

func (c *Cache) begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[key]++
	c.inflight[key] = true
	return c.gen[key]
}

// finish stores v unless the load failed or was superseded; superseded
// results still reach their callers, they just are not remembered.
func (c *Cache) finish(key string, g uint64, v any, stale time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, key)
	if err != nil || c.gen[key] != g {
		return
	}
	c.entries[key] = entry{value: v, fetchedAt: c.now(), stale: stale}
}

func (c *Cache) maybeSweep() {
	c.mu.Lock()
	due := c.now().Sub(c.lastSweep) >= sweepEvery
	c.mu.Unlock()
	if due {
		c.Sweep()
	}
}

// Sweep drops entries older than max(stale, gc age) and forgets the
// generation of keys with nothing stored and no load running. It returns
// the number of entries dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.lastSweep = now
	n := 0
	for k, e := range c.entries {
		if now.Sub(e.fetchedAt) >= max(e.stale, c.gcAge) {
			delete(c.entries, k)
			n++
		}
	}
	for k := range c.gen {
		if _, ok := c.entries[k]; !ok && !c.inflight[k] {
			delete(c.gen, k)
		}
	}
	return n
}

// Tracked is the number of keys the cache holds any state for.
func (c *Cache) Tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.gen)
	for k := range c.entries {
		if _, ok := c.gen[k]; !ok {
			n++
		}
	}
	return n
}

// Set stores v directly, for data the caller already has (e.g. a mutation
// response). It supersedes loads in flight for key.
func (c *Cache) Set(key string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen[key]++
	c.entries[key] = entry{value: v, fetchedAt: c.now()}
}

// FetchedAt reports when key was last stored.
func (c *Cache) FetchedAt(key string) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	return e.fetchedAt, ok
}

// Invalidate drops key and makes loads in flight for it discard their result.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	if _, ok := c.gen[key]; ok {
		c.gen[key]++
	}
}

// InvalidatePrefix drops every key starting with prefix and returns how many
// entries were removed.
func (c *Cache) InvalidatePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			n++
		}
	}
	for k := range c.gen {
		if strings.HasPrefix(k, prefix) {
			c.gen[k]++
		}
	}
	return n
}

// Len is the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
