// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the HTTP helpers shared by the fallback CMS
// handlers, and its health endpoints.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// Pagination response headers, shared with the WordPress REST contract.
const (
	HeaderTotal      = wpapi.HeaderTotal
	HeaderTotalPages = wpapi.HeaderTotalPages
)

// ErrInvalidID is returned for a missing, malformed or non-positive {id}.
var ErrInvalidID = errors.New("invalid id")

// ParsePageParam returns ?page, falling back to 1.
func ParsePageParam(r *http.Request) int {
	return queryInt(r, "page", 1, 0)
}

// ParsePerPageParam returns ?per_page, falling back to def when the value
// is missing, below 1 or above limit.
func ParsePerPageParam(r *http.Request, def, limit int) int {
	return queryInt(r, "per_page", def, limit)
}

// queryInt reads a positive integer query argument. A limit of 0 means
// unbounded.
func queryInt(r *http.Request, name string, def, limit int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 || (limit > 0 && v > limit) {
		return def
	}
	return v
}

// QueryFlag reads a boolean query argument the way WordPress does: absent,
// empty, "0" and "false" are false, anything else is true.
func QueryFlag(r *http.Request, name string) bool {
	switch strings.ToLower(r.URL.Query().Get(name)) {
	case "", "0", "false":
		return false
	}
	return true
}

// ParseIDParam parses the {id} route parameter as a positive int64.
func ParseIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// SetPaginationHeaders writes the X-WP-Total and X-WP-TotalPages headers.
func SetPaginationHeaders(w http.ResponseWriter, total, totalPages int) {
	w.Header().Set(HeaderTotal, strconv.Itoa(total))
	w.Header().Set(HeaderTotalPages, strconv.Itoa(totalPages))
}

// PageBounds returns the slice bounds of a page within total items.
// Pages past the end yield an empty range.
func PageBounds(total, page, perPage int) (start, end int) {
	return model.PageBounds(total, page, perPage)
}
