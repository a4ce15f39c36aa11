// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Taxonomy names used in embedded term lists.
const (
	TaxonomyCategory = "category"
	TaxonomyTag      = "post_tag"
)

// Category is a post category.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	Parent      int64  `json:"parent,omitempty"`
	PostCount   int    `json:"count"`
}

// Tag is a post tag.
type Tag struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description,omitempty"`
	PostCount   int    `json:"count"`
}

// Term is a taxonomy term embedded in a post.
type Term struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Taxonomy string `json:"taxonomy"`
}

// TermInput carries the fields of a category or tag create or partial update.
type TermInput struct {
	Name        *string `json:"name,omitempty"`
	Slug        *string `json:"slug,omitempty"`
	Description *string `json:"description,omitempty"`
	Parent      *int64  `json:"parent,omitempty"`
}
