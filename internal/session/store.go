// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session persists the authentication state of the blog client.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olegiv/easysplit/internal/model"
)

// Storage keys.
const (
	KeyAuth     = "blog_auth"
	KeyRemember = "blog_auth_remember"
)

// Store reads and writes the Session record across the two scopes.
// A record lives in exactly one scope at a time.
type Store struct {
	storage Storage
	logger  *slog.Logger
}

// NewStore creates a Store over storage.
func NewStore(storage Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{storage: storage, logger: logger}
}

// Read returns the stored session, checking the durable scope first.
// Missing or unreadable records yield the anonymous session.
func (s *Store) Read(ctx context.Context) model.Session {
	for _, scope := range []Scope{ScopeDurable, ScopeSession} {
		if sess, ok := s.readScope(ctx, scope); ok {
			return sess
		}
	}
	return model.Anonymous()
}

func (s *Store) readScope(ctx context.Context, scope Scope) (model.Session, bool) {
	data, err := s.storage.Get(ctx, scope, KeyAuth)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("error reading auth state", "scope", scope, "error", err, "category", model.EventCategorySession)
		}
		return model.Session{}, false
	}

	var sess model.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		s.logger.Warn("discarding corrupt auth state", "scope", scope, "error", err, "category", model.EventCategorySession)
		return model.Session{}, false
	}

	// The token is the source of truth for the authenticated flag.
	sess.Authenticated = sess.Token != ""
	if !sess.Authenticated {
		sess.User = nil
	}
	return sess, true
}

// Write stores sess in the durable scope when remember is set and in the
// session scope otherwise, removing the copy from the other scope.
func (s *Store) Write(ctx context.Context, sess model.Session, remember bool) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding auth state: %w", err)
	}

	if remember {
		if err := s.storage.Set(ctx, ScopeDurable, KeyAuth, data); err != nil {
			return fmt.Errorf("storing auth state: %w", err)
		}
		if err := s.storage.Set(ctx, ScopeDurable, KeyRemember, []byte("true")); err != nil {
			return fmt.Errorf("storing remember flag: %w", err)
		}
		return s.storage.Delete(ctx, ScopeSession, KeyAuth)
	}

	if err := s.storage.Set(ctx, ScopeSession, KeyAuth, data); err != nil {
		return fmt.Errorf("storing auth state: %w", err)
	}
	return errors.Join(
		s.storage.Delete(ctx, ScopeDurable, KeyAuth),
		s.storage.Delete(ctx, ScopeDurable, KeyRemember),
	)
}

// Clear removes the record and the remember flag from both scopes.
// Calling Clear on an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, scope := range []Scope{ScopeDurable, ScopeSession} {
		for _, key := range []string{KeyAuth, KeyRemember} {
			if err := s.storage.Delete(ctx, scope, key); err != nil {
				errs = append(errs, fmt.Errorf("clearing %s %s: %w", scope, key, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Remembered reports whether the remember flag is set.
func (s *Store) Remembered(ctx context.Context) bool {
	data, err := s.storage.Get(ctx, ScopeDurable, KeyRemember)
	return err == nil && string(data) == "true"
}
