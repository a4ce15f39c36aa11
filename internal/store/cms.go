// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/olegiv/easysplit/internal/model"
)

// Data file names inside the data directory.
const (
	PostsFile      = "posts.json"
	CategoriesFile = "categories.json"
	TagsFile       = "tags.json"
	UsersFile      = "users.json"
	MediaFile      = "media.json"
)

// PostRecord is a post as stored in posts.json.
type PostRecord struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	Excerpt       string    `json:"excerpt"`
	Slug          string    `json:"slug"`
	Status        string    `json:"status"`
	Categories    []int64   `json:"categories"`
	Tags          []int64   `json:"tags,omitempty"`
	FeaturedImage *string   `json:"featured_image"`
	AuthorID      int64     `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Date          time.Time `json:"date"`
	Modified      time.Time `json:"modified"`
}

// ToModel converts the record to the normalized post.
func (r PostRecord) ToModel() model.Post {
	p := model.Post{
		ID:         r.ID,
		Slug:       r.Slug,
		Title:      r.Title,
		Content:    r.Content,
		Excerpt:    r.Excerpt,
		Status:     r.Status,
		Categories: r.Categories,
		Tags:       r.Tags,
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		CreatedAt:  r.Date,
		ModifiedAt: r.Modified,
	}
	if p.Categories == nil {
		p.Categories = []int64{}
	}
	if p.ModifiedAt.IsZero() {
		p.ModifiedAt = p.CreatedAt
	}
	if r.FeaturedImage != nil {
		p.FeaturedImageURL = *r.FeaturedImage
	}
	return p
}

// CMS groups the collections of the fallback CMS data directory.
type CMS struct {
	Posts      *Collection[PostRecord]
	Categories *Collection[model.Category]
	Tags       *Collection[model.Tag]
	Users      *Collection[model.User]
	Media      *Collection[model.Media]
}

// OpenCMS loads every collection from dataDir.
func OpenCMS(dataDir string) (*CMS, error) {
	posts, err := OpenCollection(filepath.Join(dataDir, PostsFile),
		func(p *PostRecord) int64 { return p.ID },
		func(p *PostRecord, id int64) { p.ID = id })
	if err != nil {
		return nil, fmt.Errorf("opening posts: %w", err)
	}

	categories, err := OpenCollection(filepath.Join(dataDir, CategoriesFile),
		func(c *model.Category) int64 { return c.ID },
		func(c *model.Category, id int64) { c.ID = id })
	if err != nil {
		return nil, fmt.Errorf("opening categories: %w", err)
	}

	tags, err := OpenCollection(filepath.Join(dataDir, TagsFile),
		func(t *model.Tag) int64 { return t.ID },
		func(t *model.Tag, id int64) { t.ID = id })
	if err != nil {
		return nil, fmt.Errorf("opening tags: %w", err)
	}

	users, err := OpenCollection(filepath.Join(dataDir, UsersFile),
		func(u *model.User) int64 { return u.ID },
		func(u *model.User, id int64) { u.ID = id })
	if err != nil {
		return nil, fmt.Errorf("opening users: %w", err)
	}

	media, err := OpenCollection(filepath.Join(dataDir, MediaFile),
		func(m *model.Media) int64 { return m.ID },
		func(m *model.Media, id int64) { m.ID = id })
	if err != nil {
		return nil, fmt.Errorf("opening media: %w", err)
	}

	return &CMS{
		Posts:      posts,
		Categories: categories,
		Tags:       tags,
		Users:      users,
		Media:      media,
	}, nil
}

// UserByUsername returns the account with the given username.
func (c *CMS) UserByUsername(username string) (model.User, bool) {
	return c.Users.Find(func(u model.User) bool { return u.Username == username })
}

// PostBySlug returns the post with the given slug.
func (c *CMS) PostBySlug(slug string) (PostRecord, bool) {
	return c.Posts.Find(func(p PostRecord) bool { return p.Slug == slug })
}
