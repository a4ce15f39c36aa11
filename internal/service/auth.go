// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/client"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// Self-identity and token endpoints of the two backend flavors.
const (
	pathWordPressMe = "/users/me"
	pathFallbackMe  = "/auth/me"
	pathLogin       = "/auth/login"
)

// DefaultLoginBackoff is the wait before each retry of a login request
// that failed below HTTP.
var DefaultLoginBackoff = []time.Duration{1 * time.Second, 2 * time.Second, 3 * time.Second}

// AuthService turns credentials into a verified, stored session.
type AuthService struct {
	client  *client.Client
	store   SessionStore
	logger  *slog.Logger
	backoff []time.Duration
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewAuthService creates an AuthService.
func NewAuthService(c *client.Client, store SessionStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		client:  c,
		store:   store,
		logger:  logger,
		backoff: DefaultLoginBackoff,
		sleep:   sleepContext,
	}
}

// SetBackoff replaces the login retry schedule. Each entry is one retry.
func (s *AuthService) SetBackoff(delays ...time.Duration) {
	s.backoff = delays
}

// Login verifies the credentials against the backend and stores the
// resulting session. The secret is used only to derive the token.
func (s *AuthService) Login(ctx context.Context, subject, secret string, remember bool) (model.Session, error) {
	username, password := auth.NormalizeCredentials(subject, secret)
	if username == "" || password == "" {
		return model.Anonymous(), ErrInvalidCredentials
	}

	var token string
	if s.client.IsFallback() {
		var err error
		if token, err = s.issueToken(ctx, username, password); err != nil {
			s.logFailure(username, err)
			return model.Anonymous(), err
		}
	} else {
		token = auth.BasicToken(username, password)
	}

	profile, err := s.probe(ctx, token)
	if err != nil {
		s.logFailure(username, err)
		return model.Anonymous(), err
	}

	sess := model.Session{Authenticated: true, User: profile, Token: token}
	if err := s.store.Write(ctx, sess, remember); err != nil {
		return model.Anonymous(), fmt.Errorf("storing session: %w", err)
	}

	s.logger.Info("login succeeded",
		"category", model.EventCategoryAuth,
		"username", username,
		"user_id", profile.ID,
		"scheme", s.client.Scheme(),
		"remember", remember)
	return sess, nil
}

// Logout forgets the stored session. It always succeeds; storage errors
// are logged.
func (s *AuthService) Logout(ctx context.Context) {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Warn("clearing stored session failed", "category", model.EventCategorySession, "error", err)
	}
}

// Current returns the stored session without contacting the backend.
func (s *AuthService) Current(ctx context.Context) model.Session {
	return s.store.Read(ctx)
}

// ValidateToken re-probes the backend with the stored token. Anything but a
// successful identity response yields false.
func (s *AuthService) ValidateToken(ctx context.Context) bool {
	sess := s.store.Read(ctx)
	if !sess.HasToken() {
		return false
	}

	resp, err := s.client.Do(ctx, client.Request{Path: s.mePath(), Token: sess.Token})
	if err != nil {
		s.logger.Debug("token validation failed", "error", err)
		return false
	}
	return resp.StatusCode == http.StatusOK
}

// Restore loads the stored session at startup and validates its token,
// signing out when the backend no longer accepts it.
func (s *AuthService) Restore(ctx context.Context) model.Session {
	sess := s.store.Read(ctx)
	if !sess.HasToken() {
		return sess
	}
	if s.ValidateToken(ctx) {
		return sess
	}

	s.logger.Info("stored credential rejected, signing out", "category", model.EventCategoryAuth)
	s.Logout(ctx)
	return model.Anonymous()
}

func (s *AuthService) mePath() string {
	if s.client.IsFallback() {
		return pathFallbackMe
	}
	return pathWordPressMe
}

// issueToken exchanges credentials for a fallback CMS token.
func (s *AuthService) issueToken(ctx context.Context, username, password string) (string, error) {
	resp, err := s.withRetry(ctx, client.Request{
		Method: http.MethodPost,
		Path:   pathLogin,
		Body:   wpapi.LoginRequest{Username: username, Password: password},
	})
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		return "", loginStatusError(resp)
	}

	var body wpapi.LoginResponse
	if err := resp.Decode(&body); err != nil {
		return "", fmt.Errorf("login response: %w", err)
	}
	if body.Token == "" {
		return "", errors.New("login response: missing token")
	}
	return body.Token, nil
}

// probe fetches the profile of the token's owner.
func (s *AuthService) probe(ctx context.Context, token string) (*model.UserProfile, error) {
	resp, err := s.withRetry(ctx, client.Request{Path: s.mePath(), Token: token})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, loginStatusError(resp)
	}

	var user wpapi.User
	if err := resp.Decode(&user); err != nil {
		return nil, fmt.Errorf("identity response: %w", err)
	}
	profile := wpapi.ToUserProfile(user)
	return &profile, nil
}

// withRetry sends req, retrying transport failures per the backoff schedule.
func (s *AuthService) withRetry(ctx context.Context, req client.Request) (*client.Response, error) {
	for attempt := 0; ; attempt++ {
		resp, err := s.client.Do(ctx, req)
		if err == nil {
			return resp, nil
		}
		if ctx.Err() != nil || attempt >= len(s.backoff) {
			return nil, connectionError(err)
		}

		delay := s.backoff[attempt]
		s.logger.Debug("login request failed, retrying", "path", req.Path, "attempt", attempt+1, "delay", delay, "error", err)
		if err := s.sleep(ctx, delay); err != nil {
			return nil, connectionError(err)
		}
	}
}

func (s *AuthService) logFailure(username string, err error) {
	s.logger.Warn("login failed", "category", model.EventCategoryAuth, "username", username, "error", err)
}

// loginStatusError maps an identity or login response status to an error.
func loginStatusError(resp *client.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrInvalidCredentials
	case http.StatusForbidden:
		return ErrForbidden
	}
	return newBackendError(resp)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
