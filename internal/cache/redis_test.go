package cache

import (
	"context"
	"os"
	"testing"
	"time"
)

// skipIfNoRedis skips the test if Redis is not configured.
func skipIfNoRedis(t *testing.T) string {
	url := os.Getenv("ESB_TEST_REDIS_URL")
	if url == "" {
		t.Skip("Skipping Redis tests: ESB_TEST_REDIS_URL not set")
	}
	return url
}

func TestNewRedisCache_RequiresURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), RedisOptions{Prefix: DefaultRedisPrefix}); err == nil {
		t.Error("expected error for empty URL")
	}
}

func TestRedisCache_Basic(t *testing.T) {
	url := skipIfNoRedis(t)
	ctx := context.Background()

	cache, err := NewRedisCache(ctx, RedisOptions{URL: url, Prefix: "esbtest:"})
	if err != nil {
		t.Fatalf("failed to create Redis cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	_ = cache.Clear(ctx)

	if err := cache.Set(ctx, "test-key", []byte("test-value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := cache.Get(ctx, "test-key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if string(got) != "test-value" {
		t.Errorf("Get returned %q, want %q", got, "test-value")
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := cache.Get(ctx, "test-key"); err != ErrCacheMiss {
		t.Errorf("expected ErrCacheMiss after Clear, got %v", err)
	}
}

func TestNewDurable_Redis(t *testing.T) {
	url := skipIfNoRedis(t)

	c, err := NewDurable(context.Background(), DurableConfig{RedisURL: url, Prefix: "esbtest:"})
	if err != nil {
		t.Fatalf("NewDurable: %v", err)
	}
	defer func() { _ = c.Close() }()

	rc, ok := c.(*RedisCache)
	if !ok {
		t.Fatalf("NewDurable returned %T, want *RedisCache", c)
	}
	if rc.prefix != "esbtest:auth:" {
		t.Errorf("prefix = %q", rc.prefix)
	}
}
