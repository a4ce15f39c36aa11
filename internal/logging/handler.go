// Package logging provides a slog handler that persists warnings and errors
// to the event log of the local state database and counts them per category.
// A rising content_degraded count means readers are being served the
// built-in fallback posts.
package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/store"
)

// CategoryKey is the attribute key that sets an event's category.
const CategoryKey = "category"

// EventLogHandler is a slog.Handler that wraps another handler and also writes
// WARN and ERROR level logs to the event log.
type EventLogHandler struct {
	inner    slog.Handler
	queries  *store.Queries // nil disables persistence
	level    slog.Level
	category string // set through WithAttrs
	counts   *counters
}

type counters struct {
	mu sync.Mutex
	n  map[string]int64
}

func (c *counters) add(category string) {
	c.mu.Lock()
	c.n[category]++
	c.mu.Unlock()
}

// NewEventLogHandler creates a new EventLogHandler that wraps the given handler.
// Logs at WARN level and above are counted and, when queries is not nil,
// written to the event log.
func NewEventLogHandler(inner slog.Handler, queries *store.Queries) *EventLogHandler {
	return NewEventLogHandlerWithLevel(inner, queries, slog.LevelWarn)
}

// NewEventLogHandlerWithLevel creates a new EventLogHandler with a custom minimum level.
func NewEventLogHandlerWithLevel(inner slog.Handler, queries *store.Queries, level slog.Level) *EventLogHandler {
	return &EventLogHandler{
		inner:   inner,
		queries: queries,
		level:   level,
		counts:  &counters{n: make(map[string]int64)},
	}
}

// Enabled implements slog.Handler.
func (h *EventLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || h.inner.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *EventLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level >= h.level {
		category := h.extractCategory(r)
		h.counts.add(category)
		h.writeToEventLog(r, category)
	}

	return nil
}

// WithAttrs implements slog.Handler.
func (h *EventLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithAttrs(attrs)
	for _, a := range attrs {
		if a.Key == CategoryKey {
			clone.category = a.Value.String()
		}
	}
	return &clone
}

// WithGroup implements slog.Handler.
func (h *EventLogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.inner = h.inner.WithGroup(name)
	return &clone
}

// Counts returns the number of captured records per category since start.
func (h *EventLogHandler) Counts() map[string]int64 {
	h.counts.mu.Lock()
	defer h.counts.mu.Unlock()

	out := make(map[string]int64, len(h.counts.n))
	for k, v := range h.counts.n {
		out[k] = v
	}
	return out
}

// Count returns the number of captured records in category.
func (h *EventLogHandler) Count(category string) int64 {
	h.counts.mu.Lock()
	defer h.counts.mu.Unlock()
	return h.counts.n[category]
}

// writeToEventLog writes a log record to the event log.
func (h *EventLogHandler) writeToEventLog(r slog.Record, category string) {
	if h.queries == nil {
		return
	}

	// The request context may already be cancelled.
	_, _ = h.queries.CreateEvent(context.Background(), store.CreateEventParams{
		Level:     model.EventLevelOf(r.Level),
		Category:  category,
		Message:   r.Message,
		Metadata:  extractMetadata(r),
		CreatedAt: r.Time,
	})
}

// extractCategory returns the record's category attribute, the category
// bound through WithAttrs, or one inferred from the message.
func (h *EventLogHandler) extractCategory(r slog.Record) string {
	var category string

	r.Attrs(func(a slog.Attr) bool {
		if a.Key == CategoryKey {
			category = a.Value.String()
			return false
		}
		return true
	})

	if category != "" {
		return category
	}
	if h.category != "" {
		return h.category
	}

	msg := strings.ToLower(r.Message)
	switch {
	case strings.Contains(msg, "fallback") || strings.Contains(msg, "mock"):
		return model.EventCategoryContent
	case strings.Contains(msg, "auth") || strings.Contains(msg, "login") || strings.Contains(msg, "token"):
		return model.EventCategoryAuth
	case strings.Contains(msg, "upload") || strings.Contains(msg, "media"):
		return model.EventCategoryMedia
	case strings.Contains(msg, "post") || strings.Contains(msg, "categor") || strings.Contains(msg, "tag"):
		return model.EventCategoryAdmin
	default:
		return model.EventCategorySystem
	}
}

// extractMetadata collects the record attributes into a JSON object.
func extractMetadata(r slog.Record) string {
	if r.NumAttrs() == 0 {
		return "{}"
	}

	attrs := make(map[string]string, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != CategoryKey {
			attrs[a.Key] = a.Value.String()
		}
		return true
	})

	data, err := json.Marshal(attrs)
	if err != nil {
		return "{}"
	}
	return string(data)
}
