// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the blog façades (authentication, content
// reads and admin mutations) over the content backend, plus the upload and
// event services of the fallback CMS.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/store"
)

// EventService reads and maintains the persisted event log.
type EventService struct {
	queries *store.Queries
}

// NewEventService creates a new EventService.
func NewEventService(db *sql.DB) *EventService {
	return &EventService{
		queries: store.New(db),
	}
}

// LogEvent records an event directly, bypassing the log handler.
func (s *EventService) LogEvent(ctx context.Context, level, category, message string, metadata map[string]any) error {
	metadataJSON := "{}"
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(data)
		}
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Metadata:  metadataJSON,
		CreatedAt: time.Now(),
	})
	return err
}

// List returns events newest first. An empty category matches all.
func (s *EventService) List(ctx context.Context, category string, limit, offset int) ([]model.Event, error) {
	return s.queries.ListEvents(ctx, store.ListEventsParams{
		Category: category,
		Limit:    limit,
		Offset:   offset,
	})
}

// DegradedSince counts how often content reads were answered from the
// fallback dataset since the given time.
func (s *EventService) DegradedSince(ctx context.Context, since time.Time) (int64, error) {
	return s.queries.CountEventsByCategory(ctx, model.EventCategoryContent, since)
}

// DeleteOldEvents removes events older than the specified duration.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	return s.queries.DeleteEventsBefore(ctx, cutoff)
}
