package model

import (
	"log/slog"
	"slices"
	"time"
)

// Event levels.
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories. EventCategoryContent marks reads that were served from
// fallback data instead of the live backend.
const (
	EventCategoryAuth    = "auth"
	EventCategoryContent = "content_degraded"
	EventCategoryAdmin   = "admin"
	EventCategoryMedia   = "media"
	EventCategorySession = "session"
	EventCategorySystem  = "system"
)

// EventCategories lists every category in display order.
var EventCategories = []string{
	EventCategoryAuth,
	EventCategoryContent,
	EventCategoryAdmin,
	EventCategoryMedia,
	EventCategorySession,
	EventCategorySystem,
}

// IsEventCategory reports whether c is a known category.
func IsEventCategory(c string) bool {
	return slices.Contains(EventCategories, c)
}

// EventLevelOf maps a slog level onto the three stored levels.
func EventLevelOf(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return EventLevelError
	case l >= slog.LevelWarn:
		return EventLevelWarning
	default:
		return EventLevelInfo
	}
}

// Event is one persisted log record.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string // JSON object
	CreatedAt time.Time
}

// Degraded reports whether the event records a fallback read.
func (e Event) Degraded() bool {
	return e.Category == EventCategoryContent
}
