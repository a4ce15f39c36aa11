// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package wpapi

import (
	"github.com/olegiv/easysplit/internal/model"
)

// DefaultAuthorName is embedded when a post has no author name.
const DefaultAuthorName = "Admin"

// ToPost converts a wire post to the normalized model.
func ToPost(p Post) model.Post {
	post := model.Post{
		ID:         p.ID,
		Slug:       p.Slug,
		Title:      p.Title.Rendered,
		Content:    p.Content.Rendered,
		Excerpt:    p.Excerpt.Rendered,
		Status:     p.Status,
		Categories: p.Categories,
		Tags:       p.Tags,
		AuthorID:   p.Author,
		CreatedAt:  ParseTime(p.Date),
		ModifiedAt: ParseTime(p.Modified),
	}
	if post.Categories == nil {
		post.Categories = []int64{}
	}
	if post.ModifiedAt.IsZero() {
		post.ModifiedAt = post.CreatedAt
	}

	if e := p.Embedded; e != nil {
		if len(e.FeaturedMedia) > 0 {
			post.FeaturedImageURL = e.FeaturedMedia[0].SourceURL
		}
		if len(e.Author) > 0 {
			if post.AuthorID == 0 {
				post.AuthorID = e.Author[0].ID
			}
			post.AuthorName = e.Author[0].Name
		}
		for _, group := range e.Terms {
			post.Terms = append(post.Terms, group...)
		}
	}

	return post
}

// ToPosts converts a list of wire posts.
func ToPosts(posts []Post) []model.Post {
	out := make([]model.Post, len(posts))
	for i, p := range posts {
		out[i] = ToPost(p)
	}
	return out
}

// FromPost converts a normalized post to its wire form with the author and
// featured image embedded.
func FromPost(p model.Post) Post {
	authorID := p.AuthorID
	if authorID == 0 {
		authorID = 1
	}
	authorName := p.AuthorName
	if authorName == "" {
		authorName = DefaultAuthorName
	}

	media := []Media{}
	if p.FeaturedImageURL != "" {
		media = append(media, Media{SourceURL: p.FeaturedImageURL})
	}

	categories := p.Categories
	if categories == nil {
		categories = []int64{}
	}

	post := Post{
		ID:         p.ID,
		Date:       FormatTime(p.CreatedAt),
		Modified:   FormatTime(p.ModifiedAt),
		Slug:       p.Slug,
		Status:     p.Status,
		Title:      Rendered{Rendered: p.Title},
		Content:    Rendered{Rendered: p.Content},
		Excerpt:    Rendered{Rendered: p.Excerpt},
		Author:     authorID,
		Categories: categories,
		Tags:       p.Tags,
		Embedded: &Embedded{
			FeaturedMedia: media,
			Author:        []Author{{ID: authorID, Name: authorName}},
		},
	}
	if post.Modified == "" {
		post.Modified = post.Date
	}

	if len(p.Terms) > 0 {
		var cats, tags []model.Term
		for _, t := range p.Terms {
			if t.Taxonomy == model.TaxonomyTag {
				tags = append(tags, t)
			} else {
				cats = append(cats, t)
			}
		}
		post.Embedded.Terms = [][]model.Term{cats, tags}
	}

	return post
}

// ToCategory converts a wire category.
func ToCategory(c Category) model.Category {
	return model.Category{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		Parent:      c.Parent,
		PostCount:   c.Count,
	}
}

// FromCategory converts a category to its wire form.
func FromCategory(c model.Category) Category {
	return Category{
		ID:          c.ID,
		Count:       c.PostCount,
		Description: c.Description,
		Name:        c.Name,
		Slug:        c.Slug,
		Parent:      c.Parent,
	}
}

// ToTag converts a wire tag.
func ToTag(t Tag) model.Tag {
	return model.Tag{
		ID:          t.ID,
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		PostCount:   t.Count,
	}
}

// FromTag converts a tag to its wire form.
func FromTag(t model.Tag) Tag {
	return Tag{
		ID:          t.ID,
		Count:       t.PostCount,
		Description: t.Description,
		Name:        t.Name,
		Slug:        t.Slug,
	}
}

// ToUserProfile converts a self-identity response.
func ToUserProfile(u User) model.UserProfile {
	return model.UserProfile{
		ID:           u.ID,
		DisplayName:  u.Name,
		Email:        u.Email,
		Slug:         u.Slug,
		AvatarURLs:   u.AvatarURLs,
		Capabilities: u.Capabilities,
	}
}

// adminCapabilities are reported for fallback administrators.
var adminCapabilities = []string{
	model.RoleAdministrator,
	"edit_posts",
	"publish_posts",
	"delete_posts",
	"manage_categories",
	"upload_files",
}

// FromUser converts a fallback CMS account to its wire form.
// The password hash is never included.
func FromUser(u model.User) User {
	out := User{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Slug:  u.Username,
		Role:  u.Role,
	}
	if u.IsAdmin() {
		out.Capabilities = make(map[string]bool, len(adminCapabilities))
		for _, c := range adminCapabilities {
			out.Capabilities[c] = true
		}
	}
	return out
}
