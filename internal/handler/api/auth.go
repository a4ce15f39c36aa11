// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/middleware"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// Login handles POST /auth/login.
// Verifies the password hash and issues a signed bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req wpapi.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteBadRequest(w, "rest_invalid_json", "Invalid JSON body")
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		WriteBadRequest(w, "rest_missing_callback_param", "Username and password are required")
		return
	}

	if h.lp != nil {
		if locked, remaining := h.lp.IsAccountLocked(username); locked {
			WriteError(w, http.StatusTooManyRequests, "too_many_attempts",
				fmt.Sprintf("Account temporarily locked. Try again in %s.", remaining.Round(time.Second)))
			return
		}
	}

	user, found := h.cms.UserByUsername(username)
	valid := false
	if found {
		ok, err := auth.CheckPassword(req.Password, user.Password)
		if err != nil {
			h.logger.Error("password check failed", "category", model.EventCategoryAuth, "user_id", user.ID, "error", err)
		}
		valid = ok
	}
	if !valid {
		h.recordFailure(r, username)
		WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid credentials")
		return
	}

	if h.lp != nil {
		h.lp.RecordSuccessfulLogin(username)
	}
	h.rehashIfNeeded(user, req.Password)

	token, expires, err := h.tokens.GenerateToken(user.ID, user.Username, user.Role)
	if err != nil {
		h.logger.Error("failed to issue token", "category", model.EventCategoryAuth, "user_id", user.ID, "error", err)
		WriteInternalError(w, "Failed to issue token")
		return
	}

	attrs := []any{"category", model.EventCategoryAuth, "user_id", user.ID, "username", user.Username, "expires", expires}
	h.logger.Info("login succeeded", append(attrs, h.inspector.Inspect(r).Attrs()...)...)
	WriteJSON(w, http.StatusOK, wpapi.LoginResponse{
		Token: token,
		User:  wpapi.FromUser(user),
	})
}

// Me handles GET /auth/me.
// Returns the account the bearer token was issued to.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		WriteError(w, http.StatusUnauthorized, "rest_not_logged_in", "no token")
		return
	}

	user, err := h.cms.Users.Get(claims.UserID)
	if err != nil {
		WriteNotFound(w, "rest_user_invalid_id", "User not found")
		return
	}
	WriteJSON(w, http.StatusOK, wpapi.FromUser(user))
}

func (h *Handler) recordFailure(r *http.Request, username string) {
	attrs := []any{"category", model.EventCategoryAuth, "username", username}
	attrs = append(attrs, h.inspector.Inspect(r).Attrs()...)
	if h.lp != nil {
		if locked, lockout := h.lp.RecordFailedAttempt(username); locked {
			attrs = append(attrs, "locked_for", lockout)
		} else {
			attrs = append(attrs, "remaining_attempts", h.lp.RemainingAttempts(username))
		}
	}
	h.logger.Warn("login failed", attrs...)
}

// rehashIfNeeded upgrades a stored hash made with an older cost.
func (h *Handler) rehashIfNeeded(user model.User, password string) {
	if !auth.NeedsRehash(user.Password) {
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		h.logger.Warn("password rehash failed", "category", model.EventCategoryAuth, "user_id", user.ID, "error", err)
		return
	}
	if _, err := h.cms.Users.Update(user.ID, func(u *model.User) error {
		u.Password = hash
		return nil
	}); err != nil {
		h.logger.Warn("storing rehashed password failed", "category", model.EventCategoryAuth, "user_id", user.ID, "error", err)
	}
}
