// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST handlers of the fallback CMS. The routes
// and JSON shapes follow the WordPress REST API (wp/v2) closely enough for
// the blog client to treat both backends alike.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/olegiv/easysplit/internal/audit"
	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/handler"
	"github.com/olegiv/easysplit/internal/middleware"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/service"
	"github.com/olegiv/easysplit/internal/store"
)

// Pagination defaults.
const (
	DefaultPerPage = 9
	MaxPerPage     = 100
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// Config holds the dependencies of the API handlers.
type Config struct {
	CMS             *store.CMS
	Tokens          *auth.TokenManager
	Media           *service.MediaService
	Events          *service.EventService      // optional; /events answers 404 without it
	LoginProtection *middleware.LoginProtection // optional
	RateLimiter     *middleware.APIRateLimiter
	Inspector       *audit.Inspector // optional; describes login clients in the event log
	PublicURL       string           // base for media source_url; derived from the request when empty
	Logger          *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	cms       *store.CMS
	tokens    *auth.TokenManager
	media     *service.MediaService
	events    *service.EventService
	lp        *middleware.LoginProtection
	limiter   *middleware.APIRateLimiter
	inspector *audit.Inspector
	publicURL string
	logger    *slog.Logger
	now       func() time.Time

	// postsMu serializes slug resolution with the post write that stores it.
	postsMu sync.Mutex
}

// NewHandler creates a new API handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cms:       cfg.CMS,
		tokens:    cfg.Tokens,
		media:     cfg.Media,
		events:    cfg.Events,
		lp:        cfg.LoginProtection,
		limiter:   cfg.RateLimiter,
		inspector: cfg.Inspector,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		logger:    logger,
		now:       time.Now,
	}
}

// DeleteResponse is the reply to a forced delete.
type DeleteResponse struct {
	Deleted  bool `json:"deleted"`
	Previous any  `json:"previous"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes a WordPress-style error response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	middleware.WriteAPIError(w, statusCode, code, message)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusBadRequest, code, message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, code, message string) {
	WriteError(w, http.StatusNotFound, code, message)
}

// WriteForbidden writes a 403 Forbidden response.
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, "rest_forbidden", message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "rest_internal_error", message)
}

// decodeJSON decodes a size-limited JSON request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// requireEntityByID parses the {id} URL parameter and fetches the entity.
// It returns false after writing the error response. entityName is used in
// error codes and messages (e.g. "post" gives rest_post_invalid_id).
func requireEntityByID[T any](w http.ResponseWriter, r *http.Request, entityName string, fetch func(id int64) (T, error)) (T, bool) {
	var zero T

	id, err := handler.ParseIDParam(r)
	if err != nil {
		WriteNotFound(w, "rest_"+entityName+"_invalid_id", "Invalid "+entityName+" ID.")
		return zero, false
	}

	entity, err := fetch(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "rest_"+entityName+"_invalid_id", "Invalid "+entityName+" ID.")
		} else {
			WriteInternalError(w, "Failed to retrieve "+entityName)
		}
		return zero, false
	}

	return entity, true
}

// isAdmin reports whether the request was authenticated as an administrator.
func isAdmin(r *http.Request) bool {
	claims := middleware.GetClaims(r)
	return claims != nil && claims.Role == model.RoleAdministrator
}

// parseIDList parses a comma-separated list of positive ids. Invalid
// entries are skipped.
func parseIDList(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil && id > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// containsAny reports whether ids holds any of want.
func containsAny(ids, want []int64) bool {
	for _, id := range ids {
		for _, w := range want {
			if id == w {
				return true
			}
		}
	}
	return false
}
