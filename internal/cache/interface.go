// Package cache holds the key/value stores behind blogctl's two auth
// scopes. The session scope lives in memory; the durable scope lives in
// the SQLite state database or, when configured, in Redis.
package cache

import (
	"context"
	"errors"
	"time"
)

// Cache is a byte-valued key/value store safe for concurrent use.
type Cache interface {
	// Get returns ErrCacheMiss for absent or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl. A zero ttl falls back to the store's
	// default; a zero default keeps the entry until it is deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete is a no-op for missing keys.
	Delete(ctx context.Context, key string) error

	// Clear empties the store's own namespace only.
	Clear(ctx context.Context) error

	Has(ctx context.Context, key string) (bool, error)
	Close() error
}

// Error is a sentinel cache error.
type Error string

func (e Error) Error() string { return string(e) }

const (
	ErrCacheMiss   Error = "cache miss"
	ErrCacheClosed Error = "cache closed"
)

// expiry turns a relative ttl into a deadline; the zero time means never.
func expiry(ttl, fallback time.Duration) time.Time {
	if ttl == 0 {
		ttl = fallback
	}
	if ttl <= 0 {
		return time.Time{}
	}
	return time.Now().Add(ttl)
}

// present adapts a Get result to Has.
func present(_ []byte, err error) (bool, error) {
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	return err == nil, err
}
