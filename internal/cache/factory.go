package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

const (
	// DurableBucket is the kv bucket holding the durable auth scope.
	DurableBucket = "auth"

	// DefaultRedisPrefix namespaces durable keys when no prefix is set.
	DefaultRedisPrefix = "esb:"
)

// DurableConfig selects the backend of the durable scope.
type DurableConfig struct {
	// RedisURL selects Redis when set.
	RedisURL string

	// Prefix is the Redis key prefix.
	Prefix string

	// DB is the migrated state database used when RedisURL is empty.
	DB *sql.DB
}

// NewDurable creates the cache backing the durable scope.
func NewDurable(ctx context.Context, cfg DurableConfig) (Cache, error) {
	if cfg.RedisURL != "" {
		prefix := cfg.Prefix
		if prefix == "" {
			prefix = DefaultRedisPrefix
		}
		return NewRedisCache(ctx, RedisOptions{
			URL:    cfg.RedisURL,
			Prefix: prefix + DurableBucket + ":",
		})
	}

	if cfg.DB == nil {
		return nil, errors.New("durable cache needs a redis URL or a state database")
	}
	return NewSQLiteCache(cfg.DB, DurableBucket, 0), nil
}

// NewSession creates the cache backing the session scope. Entries
// disappear with the process.
func NewSession() Cache {
	return NewMemoryCache(MemoryCacheOptions{
		Prefix:          "session:",
		CleanupInterval: 10 * time.Minute,
	})
}
