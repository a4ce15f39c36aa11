// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package wpapi defines the wire format of the WordPress REST API (wp/v2)
// and the adapters between it and the normalized model types. The fallback
// CMS server speaks the same format so clients can treat both backends alike.
package wpapi

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/olegiv/easysplit/internal/model"
)

// Pagination headers.
const (
	HeaderTotal      = "X-WP-Total"
	HeaderTotalPages = "X-WP-TotalPages"
)

// Embedded resource keys.
const (
	EmbedFeaturedMedia = "wp:featuredmedia"
	EmbedAuthor        = "author"
	EmbedTerm          = "wp:term"
)

// Rendered is a WordPress text field. It decodes from either the
// {"rendered": "..."} object or a plain string.
type Rendered struct {
	Rendered  string `json:"rendered"`
	Protected bool   `json:"protected"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Rendered) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &r.Rendered)
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	type plain Rendered
	return json.Unmarshal(data, (*plain)(r))
}

// Post is a post object as returned by GET /posts.
type Post struct {
	ID            int64     `json:"id"`
	Date          string    `json:"date"`
	Modified      string    `json:"modified,omitempty"`
	Slug          string    `json:"slug"`
	Status        string    `json:"status,omitempty"`
	Link          string    `json:"link,omitempty"`
	Title         Rendered  `json:"title"`
	Content       Rendered  `json:"content"`
	Excerpt       Rendered  `json:"excerpt"`
	Author        int64     `json:"author,omitempty"`
	FeaturedMedia int64     `json:"featured_media,omitempty"`
	Categories    []int64   `json:"categories"`
	Tags          []int64   `json:"tags,omitempty"`
	Embedded      *Embedded `json:"_embedded,omitempty"`
}

// Embedded holds the resources inlined by ?_embed.
type Embedded struct {
	FeaturedMedia []Media        `json:"wp:featuredmedia"`
	Author        []Author       `json:"author"`
	Terms         [][]model.Term `json:"wp:term,omitempty"`
}

// Media is an embedded or uploaded media object.
type Media struct {
	ID        int64  `json:"id,omitempty"`
	SourceURL string `json:"source_url"`
	AltText   string `json:"alt_text,omitempty"`
	Filename  string `json:"filename,omitempty"`
}

// Author is an embedded post author.
type Author struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	AvatarURLs  map[string]string `json:"avatar_urls,omitempty"`
}

// Category is a category object.
type Category struct {
	ID          int64  `json:"id"`
	Count       int    `json:"count"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Parent      int64  `json:"parent"`
}

// Tag is a tag object.
type Tag struct {
	ID          int64  `json:"id"`
	Count       int    `json:"count"`
	Description string `json:"description"`
	Link        string `json:"link,omitempty"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
}

// User is the object returned by the self-identity endpoints
// (GET /users/me on WordPress, GET /auth/me on the fallback server).
type User struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Email        string            `json:"email,omitempty"`
	Slug         string            `json:"slug,omitempty"`
	Description  string            `json:"description,omitempty"`
	Role         string            `json:"role,omitempty"`
	AvatarURLs   map[string]string `json:"avatar_urls,omitempty"`
	Capabilities map[string]bool   `json:"capabilities,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the reply to a successful POST /auth/login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ErrorData carries the HTTP status of an error body.
type ErrorData struct {
	Status int `json:"status"`
}

// Error is the WordPress REST error body.
type Error struct {
	Code    string     `json:"code,omitempty"`
	Message string     `json:"message"`
	Data    *ErrorData `json:"data,omitempty"`
}

// dateLayout is the zone-less layout WordPress uses for date and modified.
const dateLayout = "2006-01-02T15:04:05"

// ParseTime parses a WordPress or RFC 3339 timestamp.
// Zone-less values are read as UTC. Unparseable values yield the zero time.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t
	}
	return time.Time{}
}

// FormatTime formats t the way the fallback server writes dates.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
