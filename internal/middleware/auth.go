// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for the fallback CMS server:
// bearer token authentication, rate limiting, login protection, timeouts
// and response headers.
package middleware

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/model"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyClaims holds the verified token claims of the request.
const ContextKeyClaims ContextKey = "claims"

// APIError is the WordPress-compatible error body.
type APIError struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    APIErrorData `json:"data"`
}

// APIErrorData carries the HTTP status inside an error body.
type APIErrorData struct {
	Status int `json:"status"`
}

// WriteAPIError writes a JSON error response in the WordPress REST shape.
func WriteAPIError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{
		Code:    code,
		Message: message,
		Data:    APIErrorData{Status: status},
	})
}

// RequireToken creates middleware that requires a valid bearer token.
// A missing header yields 401 "no token"; a token that fails verification
// (bad signature, expired, wrong algorithm) yields 401 "invalid token".
func RequireToken(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.ParseAuthorizationHeader(r.Header.Get("Authorization"), auth.SchemeBearer)
			if !ok {
				WriteAPIError(w, http.StatusUnauthorized, "rest_not_logged_in", "no token")
				return
			}

			claims, err := tm.ParseToken(token)
			if err != nil {
				slog.Warn("rejected bearer token",
					"category", model.EventCategoryAuth,
					"path", r.URL.Path,
					"error", err)
				WriteAPIError(w, http.StatusUnauthorized, "rest_invalid_token", "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalToken adds the claims of a valid bearer token to the request
// context. Requests without a token, or with one that fails verification,
// are served anonymously.
func OptionalToken(tm *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := auth.ParseAuthorizationHeader(r.Header.Get("Authorization"), auth.SchemeBearer)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			claims, err := tm.ParseToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyClaims, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims retrieves the token claims from the request context.
// Returns nil if the request was not authenticated.
func GetClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(ContextKeyClaims).(*auth.Claims); ok {
		return claims
	}
	return nil
}

// GetUserID returns the authenticated user id, or 0.
func GetUserID(r *http.Request) int64 {
	if claims := GetClaims(r); claims != nil {
		return claims.UserID
	}
	return 0
}
