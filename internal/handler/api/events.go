// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/easysplit/internal/handler"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// EventResponse represents a logged event in API responses.
type EventResponse struct {
	ID       int64           `json:"id"`
	Level    string          `json:"level"`
	Category string          `json:"category"`
	Message  string          `json:"message"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Date     string          `json:"date"`
}

// degradedWindow is the period reported in the X-Degraded-24h header.
const degradedWindow = 24 * time.Hour

// ListEvents handles GET /events.
// Administrators only: newest events first, optionally filtered by category.
// X-Degraded-24h carries how many content reads fell back in the last day.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if !isAdmin(r) {
		WriteForbidden(w, "Sorry, you are not allowed to view events.")
		return
	}

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, 50, MaxPerPage)
	category := r.URL.Query().Get("category")
	if category != "" && !model.IsEventCategory(category) {
		WriteBadRequest(w, "rest_invalid_param", "Invalid parameter(s): category")
		return
	}

	events, err := h.events.List(r.Context(), category, perPage, (page-1)*perPage)
	if err != nil {
		h.logger.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}

	if n, err := h.events.DegradedSince(r.Context(), h.now().Add(-degradedWindow)); err == nil {
		w.Header().Set("X-Degraded-24h", strconv.FormatInt(n, 10))
	}

	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse(e))
	}
	WriteJSON(w, http.StatusOK, out)
}

func eventResponse(e model.Event) EventResponse {
	resp := EventResponse{
		ID:       e.ID,
		Level:    e.Level,
		Category: e.Category,
		Message:  e.Message,
		Date:     wpapi.FormatTime(e.CreatedAt),
	}
	if e.Metadata != "" && json.Valid([]byte(e.Metadata)) {
		resp.Metadata = json.RawMessage(e.Metadata)
	}
	return resp
}
