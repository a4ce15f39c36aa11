package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache keeps entries in a map guarded by a mutex. Nothing survives
// the process, so it backs the session scope: a remember-me-less login is
// gone as soon as blogctl exits.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	closed  bool
	done    chan struct{}

	prefix string
	ttl    time.Duration
}

type memoryEntry struct {
	value    []byte
	deadline time.Time // zero = never
}

func (e memoryEntry) live(now time.Time) bool {
	return e.deadline.IsZero() || now.Before(e.deadline)
}

// MemoryCacheOptions configures a MemoryCache.
type MemoryCacheOptions struct {
	Prefix          string        // key namespace, scopes Clear
	DefaultTTL      time.Duration // 0 = never expire
	CleanupInterval time.Duration // 0 = expired entries are dropped lazily
}

// NewMemoryCache creates an empty cache and, when asked, starts the sweeper.
func NewMemoryCache(opts MemoryCacheOptions) *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
		prefix:  opts.Prefix,
		ttl:     opts.DefaultTTL,
	}
	if opts.CleanupInterval > 0 {
		go c.sweepEvery(opts.CleanupInterval)
	}
	return c
}

// Get returns a copy of the stored value.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	e, ok := c.entries[c.prefix+key]
	closed := c.closed
	c.mu.RUnlock()

	switch {
	case closed:
		return nil, ErrCacheClosed
	case !ok || !e.live(time.Now()):
		return nil, ErrCacheMiss
	}
	return append([]byte(nil), e.value...), nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	c.entries[c.prefix+key] = memoryEntry{
		value:    append([]byte(nil), value...),
		deadline: expiry(ttl, c.ttl),
	}
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	delete(c.entries, c.prefix+key)
	return nil
}

// Clear drops every entry inside the cache's prefix.
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCacheClosed
	}
	for k := range c.entries {
		if strings.HasPrefix(k, c.prefix) {
			delete(c.entries, k)
		}
	}
	return nil
}

func (c *MemoryCache) Has(ctx context.Context, key string) (bool, error) {
	return present(c.Get(ctx, key))
}

// Close stops the sweeper. Calling it twice is harmless.
func (c *MemoryCache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

// sweep removes expired entries and reports how many went.
func (c *MemoryCache) sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *MemoryCache) sweepEvery(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			c.sweep(now)
		case <-c.done:
			return
		}
	}
}

var _ Cache = (*MemoryCache)(nil)
