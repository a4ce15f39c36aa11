// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the backend-agnostic domain types shared by the
// content façades and the fallback CMS server: posts, taxonomy terms,
// user profiles, sessions and pagination.
package model

import "time"

// Post statuses
const (
	PostStatusDraft   = "draft"
	PostStatusPending = "pending"
	PostStatusPublish = "publish"
)

// Post is the normalized blog post produced by every backend adapter.
type Post struct {
	ID               int64     `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Content          string    `json:"content"`
	Excerpt          string    `json:"excerpt"`
	Status           string    `json:"status"`
	Categories       []int64   `json:"categories"`
	Tags             []int64   `json:"tags,omitempty"`
	AuthorID         int64     `json:"author_id"`
	AuthorName       string    `json:"author_name,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	ModifiedAt       time.Time `json:"modified_at"`
	FeaturedImageURL string    `json:"featured_image_url,omitempty"`
	Terms            []Term    `json:"terms,omitempty"`
}

// IsPublished returns true if the post is publicly visible.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublish
}

// HasCategory reports whether the post is filed under the given category.
func (p *Post) HasCategory(id int64) bool {
	for _, c := range p.Categories {
		if c == id {
			return true
		}
	}
	return false
}

// IsValidPostStatus reports whether s is one of the known post statuses.
func IsValidPostStatus(s string) bool {
	switch s {
	case PostStatusDraft, PostStatusPending, PostStatusPublish:
		return true
	}
	return false
}

// PostInput carries the fields of a post create or partial update.
// Nil pointers are omitted from the request.
type PostInput struct {
	Title         *string `json:"title,omitempty"`
	Content       *string `json:"content,omitempty"`
	Excerpt       *string `json:"excerpt,omitempty"`
	Slug          *string `json:"slug,omitempty"`
	Status        *string `json:"status,omitempty"`
	Categories    []int64 `json:"categories,omitempty"`
	Tags          []int64 `json:"tags,omitempty"`
	FeaturedMedia *int64  `json:"featured_media,omitempty"`
	FeaturedImage *string `json:"featured_image,omitempty"`
}

// PostList is a page of posts together with its pagination cursor.
type PostList struct {
	Items      []Post     `json:"items"`
	Pagination Pagination `json:"pagination"`
}
