// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/olegiv/easysplit/internal/cache"
)

// Scope selects where a record lives.
type Scope int

const (
	// ScopeSession holds records until the process ends.
	ScopeSession Scope = iota
	// ScopeDurable holds records across restarts.
	ScopeDurable
)

// String returns the scope name used in logs.
func (s Scope) String() string {
	switch s {
	case ScopeSession:
		return "session"
	case ScopeDurable:
		return "durable"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ErrNotFound is returned by Storage.Get for an absent key.
var ErrNotFound = errors.New("session: key not found")

// Storage is a key/value store addressed by scope.
type Storage interface {
	Get(ctx context.Context, scope Scope, key string) ([]byte, error)
	Set(ctx context.Context, scope Scope, key string, value []byte) error
	Delete(ctx context.Context, scope Scope, key string) error
}

// CacheStorage implements Storage over one cache per scope.
type CacheStorage struct {
	durable cache.Cache
	session cache.Cache
}

// NewCacheStorage creates a Storage backed by the given caches.
func NewCacheStorage(durable, session cache.Cache) *CacheStorage {
	return &CacheStorage{durable: durable, session: session}
}

func (s *CacheStorage) backend(scope Scope) (cache.Cache, error) {
	switch scope {
	case ScopeDurable:
		return s.durable, nil
	case ScopeSession:
		return s.session, nil
	default:
		return nil, fmt.Errorf("unknown %s", scope)
	}
}

// Get returns the value stored under key in scope.
func (s *CacheStorage) Get(ctx context.Context, scope Scope, key string) ([]byte, error) {
	c, err := s.backend(scope)
	if err != nil {
		return nil, err
	}
	value, err := c.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	return value, err
}

// Set stores value under key in scope without expiry.
func (s *CacheStorage) Set(ctx context.Context, scope Scope, key string, value []byte) error {
	c, err := s.backend(scope)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, value, 0)
}

// Delete removes key from scope.
func (s *CacheStorage) Delete(ctx context.Context, scope Scope, key string) error {
	c, err := s.backend(scope)
	if err != nil {
		return err
	}
	return c.Delete(ctx, key)
}

// Close closes both caches.
func (s *CacheStorage) Close() error {
	return errors.Join(s.durable.Close(), s.session.Close())
}

var _ Storage = (*CacheStorage)(nil)
