package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"
)

// SQLiteCache stores entries in the kv table of the local state database,
// so they survive process restarts. Each cache owns one bucket.
type SQLiteCache struct {
	db         *sql.DB
	bucket     string
	defaultTTL time.Duration
	closed     atomic.Bool
}

// NewSQLiteCache creates a cache over db's kv table. The database must
// already be migrated; Close does not close db.
func NewSQLiteCache(db *sql.DB, bucket string, defaultTTL time.Duration) *SQLiteCache {
	return &SQLiteCache{
		db:         db,
		bucket:     bucket,
		defaultTTL: defaultTTL,
	}
}

// Get retrieves a value from the cache.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrCacheClosed
	}

	var value []byte
	var expiresAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT value, expires_at FROM kv WHERE bucket = ? AND key = ?`,
		c.bucket, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s/%s: %w", c.bucket, key, err)
	}

	if expiresAt > 0 && time.Now().Unix() > expiresAt {
		_ = c.Delete(ctx, key)
		return nil, ErrCacheMiss
	}
	return value, nil
}

// Set stores a value in the cache with the specified TTL.
func (c *SQLiteCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	var expiresAt int64
	if exp := expiry(ttl, c.defaultTTL); !exp.IsZero() {
		expiresAt = exp.Unix()
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO kv (bucket, key, value, expires_at, updated_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (bucket, key) DO UPDATE SET value = excluded.value,
		 expires_at = excluded.expires_at, updated_at = excluded.updated_at`,
		c.bucket, key, value, expiresAt, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("writing %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Delete removes a key from the cache.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv WHERE bucket = ? AND key = ?`, c.bucket, key); err != nil {
		return fmt.Errorf("deleting %s/%s: %w", c.bucket, key, err)
	}
	return nil
}

// Clear removes every entry in the bucket.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	if c.closed.Load() {
		return ErrCacheClosed
	}

	if _, err := c.db.ExecContext(ctx, `DELETE FROM kv WHERE bucket = ?`, c.bucket); err != nil {
		return fmt.Errorf("clearing %s: %w", c.bucket, err)
	}
	return nil
}

// Has checks if a key exists in the cache (and is not expired).
func (c *SQLiteCache) Has(ctx context.Context, key string) (bool, error) {
	return present(c.Get(ctx, key))
}

// Close marks the cache closed. The underlying database stays open.
func (c *SQLiteCache) Close() error {
	c.closed.Store(true)
	return nil
}

var _ Cache = (*SQLiteCache)(nil)
