// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"cmp"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/easysplit/internal/handler"
	"github.com/olegiv/easysplit/internal/markup"
	"github.com/olegiv/easysplit/internal/middleware"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/util"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// errInvalidInput marks request validation failures inside store updates.
var errInvalidInput = errors.New("invalid input")

// inputError is a validation failure carrying its REST error code.
type inputError struct {
	code    string
	message string
}

func (e *inputError) Error() string { return e.message }

func (e *inputError) Unwrap() error { return errInvalidInput }

// postFilter holds the GET /posts query.
type postFilter struct {
	status     string
	categories []int64
	tags       []int64
	search     string
	slug       string
}

func (f postFilter) match(p store.PostRecord) bool {
	if p.Status != f.status {
		return false
	}
	if f.slug != "" && p.Slug != f.slug {
		return false
	}
	if len(f.categories) > 0 && !containsAny(p.Categories, f.categories) {
		return false
	}
	if len(f.tags) > 0 && !containsAny(p.Tags, f.tags) {
		return false
	}
	if f.search != "" {
		q := strings.ToLower(f.search)
		if !strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(markup.PlainText(p.Excerpt)), q) &&
			!strings.Contains(strings.ToLower(markup.PlainText(p.Content)), q) {
			return false
		}
	}
	return true
}

// ListPosts handles GET /posts and GET /posts?slug=.
// Public: published posts, newest first. Other statuses need a token.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := postFilter{
		status:     model.PostStatusPublish,
		categories: parseIDList(q.Get("categories")),
		tags:       parseIDList(q.Get("tags")),
		search:     strings.TrimSpace(q.Get("search")),
		slug:       strings.TrimSpace(q.Get("slug")),
	}
	if filter.categories == nil {
		filter.categories = parseIDList(q.Get("category"))
	}
	if status := q.Get("status"); status != "" && status != model.PostStatusPublish {
		if !model.IsValidPostStatus(status) {
			WriteBadRequest(w, "rest_invalid_param", "Invalid parameter: status")
			return
		}
		if middleware.GetClaims(r) == nil {
			WriteError(w, http.StatusUnauthorized, "rest_invalid_param", "Status is forbidden.")
			return
		}
		filter.status = status
	}

	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, DefaultPerPage, MaxPerPage)

	var matched []store.PostRecord
	for _, p := range h.cms.Posts.All() {
		if filter.match(p) {
			matched = append(matched, p)
		}
	}
	sortNewestFirst(matched)

	total := len(matched)
	start, end := handler.PageBounds(total, page, perPage)

	terms := h.termIndex()
	out := make([]wpapi.Post, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, h.wirePost(p, terms))
	}

	handler.SetPaginationHeaders(w, total, model.TotalPages(total, perPage))
	WriteJSON(w, http.StatusOK, out)
}

// GetPostBySlug handles GET /posts/slug/{slug}.
// Public: only published posts are visible.
func (h *Handler) GetPostBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	p, ok := h.cms.PostBySlug(slug)
	if !ok || p.Status != model.PostStatusPublish {
		WriteNotFound(w, "rest_post_invalid_slug", "Post not found.")
		return
	}
	WriteJSON(w, http.StatusOK, h.wirePost(p, h.termIndex()))
}

// GetPost handles GET /posts/{id}.
// Requires a token: posts of any status are returned.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	p, ok := requireEntityByID(w, r, "post", h.cms.Posts.Get)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, h.wirePost(p, h.termIndex()))
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteBadRequest(w, "rest_invalid_json", "Invalid JSON body")
		return
	}

	title := ""
	if in.Title != nil {
		title = strings.TrimSpace(*in.Title)
	}
	if title == "" {
		WriteBadRequest(w, "rest_title_required", "Title is required")
		return
	}

	now := h.now().UTC()
	rec := store.PostRecord{
		Title:      title,
		Status:     model.PostStatusDraft,
		Categories: []int64{},
		Date:       now,
		Modified:   now,
	}
	rec.AuthorID, rec.AuthorName = h.author(r)

	h.postsMu.Lock()
	defer h.postsMu.Unlock()

	slug, err := h.resolvePostSlug(in.Slug, 0)
	if err != nil {
		writeInputError(w, err)
		return
	}
	if slug == "" {
		slug = h.uniquePostSlug(util.Slugify(title), 0)
	}
	rec.Slug = slug

	if err := h.applyPostInput(r, &rec, in); err != nil {
		writeInputError(w, err)
		return
	}

	created, err := h.cms.Posts.Insert(rec)
	if err != nil {
		h.logger.Error("failed to create post", "error", err)
		WriteInternalError(w, "Failed to create post")
		return
	}

	h.logger.Info("post created",
		"category", model.EventCategoryAdmin,
		"post_id", created.ID,
		"slug", created.Slug,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusCreated, h.wirePost(created, h.termIndex()))
}

// UpdatePost handles PUT /posts/{id} and POST /posts/{id}.
// Only the supplied fields change.
func (h *Handler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(w, r, "post", h.cms.Posts.Get)
	if !ok {
		return
	}

	var in model.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteBadRequest(w, "rest_invalid_json", "Invalid JSON body")
		return
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		WriteBadRequest(w, "rest_title_required", "Title is required")
		return
	}

	// Resolved before Update, which holds the collection lock.
	h.postsMu.Lock()
	defer h.postsMu.Unlock()

	slug, err := h.resolvePostSlug(in.Slug, existing.ID)
	if err != nil {
		writeInputError(w, err)
		return
	}

	updated, err := h.cms.Posts.Update(existing.ID, func(p *store.PostRecord) error {
		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if slug != "" {
			p.Slug = slug
		}
		if err := h.applyPostInput(r, p, in); err != nil {
			return err
		}
		p.Modified = h.now().UTC()
		return nil
	})
	if err != nil {
		if errors.Is(err, errInvalidInput) {
			writeInputError(w, err)
			return
		}
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "rest_post_invalid_id", "Invalid post ID.")
			return
		}
		h.logger.Error("failed to update post", "post_id", existing.ID, "error", err)
		WriteInternalError(w, "Failed to update post")
		return
	}

	h.logger.Info("post updated",
		"category", model.EventCategoryAdmin,
		"post_id", updated.ID,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusOK, h.wirePost(updated, h.termIndex()))
}

// DeletePost handles DELETE /posts/{id}. Deletion is permanent; the
// force flag WordPress requires is accepted and implied.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(w, r, "post", h.cms.Posts.Get)
	if !ok {
		return
	}
	previous := h.wirePost(existing, h.termIndex())

	if err := h.cms.Posts.Delete(existing.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "rest_post_invalid_id", "Invalid post ID.")
			return
		}
		h.logger.Error("failed to delete post", "post_id", existing.ID, "error", err)
		WriteInternalError(w, "Failed to delete post")
		return
	}

	h.logger.Info("post deleted",
		"category", model.EventCategoryAdmin,
		"post_id", existing.ID,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusOK, DeleteResponse{Deleted: true, Previous: previous})
}

// resolvePostSlug slugifies a supplied slug and makes it unique among
// posts other than selfID. It returns "" when no slug was supplied.
func (h *Handler) resolvePostSlug(raw *string, selfID int64) (string, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return "", nil
	}
	slug := util.Slugify(*raw)
	if !util.IsValidSlug(slug) {
		return "", &inputError{code: "rest_invalid_param", message: "Invalid parameter: slug"}
	}
	return h.uniquePostSlug(slug, selfID), nil
}

// applyPostInput copies the optional fields of in onto p. Title and slug
// are handled by the caller. It must not read the posts collection.
func (h *Handler) applyPostInput(r *http.Request, p *store.PostRecord, in model.PostInput) error {
	if in.Status != nil {
		if !model.IsValidPostStatus(*in.Status) {
			return &inputError{code: "rest_invalid_param", message: "Invalid parameter: status"}
		}
		p.Status = *in.Status
	}

	if in.Content != nil {
		p.Content = markup.Sanitize(*in.Content)
	}
	if in.Excerpt != nil {
		p.Excerpt = markup.Sanitize(*in.Excerpt)
	}
	if p.Excerpt == "" && p.Content != "" {
		p.Excerpt = markup.Excerpt(p.Content, markup.DefaultExcerptWords)
	}

	if in.Categories != nil {
		ids, err := h.checkTermIDs(in.Categories, func(id int64) bool {
			_, err := h.cms.Categories.Get(id)
			return err == nil
		})
		if err != nil {
			return err
		}
		p.Categories = ids
	}
	if in.Tags != nil {
		ids, err := h.checkTermIDs(in.Tags, func(id int64) bool {
			_, err := h.cms.Tags.Get(id)
			return err == nil
		})
		if err != nil {
			return err
		}
		p.Tags = ids
	}

	switch {
	case in.FeaturedMedia != nil && *in.FeaturedMedia == 0:
		p.FeaturedImage = nil
	case in.FeaturedMedia != nil:
		m, err := h.cms.Media.Get(*in.FeaturedMedia)
		if err != nil {
			return &inputError{code: "rest_invalid_featured_media", message: "Invalid featured media ID."}
		}
		url := h.mediaURL(r, m.Filename)
		p.FeaturedImage = &url
	case in.FeaturedImage != nil && *in.FeaturedImage == "":
		p.FeaturedImage = nil
	case in.FeaturedImage != nil:
		url := *in.FeaturedImage
		p.FeaturedImage = &url
	}

	return nil
}

// checkTermIDs deduplicates ids and verifies each exists.
func (h *Handler) checkTermIDs(ids []int64, exists func(int64) bool) ([]int64, error) {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if slices.Contains(out, id) {
			continue
		}
		if !exists(id) {
			return nil, &inputError{code: "rest_invalid_term", message: fmt.Sprintf("Invalid term ID %d.", id)}
		}
		out = append(out, id)
	}
	return out, nil
}

// uniquePostSlug returns base, or base-2, base-3, ... when base is taken
// by a post other than selfID. Callers hold postsMu.
func (h *Handler) uniquePostSlug(base string, selfID int64) string {
	if base == "" {
		base = "post"
	}
	taken := func(slug string) bool {
		_, found := h.cms.Posts.Find(func(p store.PostRecord) bool {
			return p.Slug == slug && p.ID != selfID
		})
		return found
	}
	slug := base
	for n := 2; taken(slug); n++ {
		slug = base + "-" + strconv.Itoa(n)
	}
	return slug
}

// author returns the id and display name recorded on new posts.
func (h *Handler) author(r *http.Request) (int64, string) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		return 0, wpapi.DefaultAuthorName
	}
	if u, err := h.cms.Users.Get(claims.UserID); err == nil && u.Name != "" {
		return u.ID, u.Name
	}
	return claims.UserID, wpapi.DefaultAuthorName
}

// termIndex maps term ids to their embedded form.
type termIndex struct {
	categories map[int64]model.Term
	tags       map[int64]model.Term
}

func (h *Handler) termIndex() termIndex {
	idx := termIndex{
		categories: make(map[int64]model.Term),
		tags:       make(map[int64]model.Term),
	}
	for _, c := range h.cms.Categories.All() {
		idx.categories[c.ID] = model.Term{ID: c.ID, Name: c.Name, Slug: c.Slug, Taxonomy: model.TaxonomyCategory}
	}
	for _, t := range h.cms.Tags.All() {
		idx.tags[t.ID] = model.Term{ID: t.ID, Name: t.Name, Slug: t.Slug, Taxonomy: model.TaxonomyTag}
	}
	return idx
}

// wirePost converts a stored post to its embedded wire form.
func (h *Handler) wirePost(p store.PostRecord, idx termIndex) wpapi.Post {
	post := p.ToModel()
	for _, id := range post.Categories {
		if t, ok := idx.categories[id]; ok {
			post.Terms = append(post.Terms, t)
		}
	}
	for _, id := range post.Tags {
		if t, ok := idx.tags[id]; ok {
			post.Terms = append(post.Terms, t)
		}
	}
	return wpapi.FromPost(post)
}

// sortNewestFirst orders posts by date, newest first, then by id.
func sortNewestFirst(posts []store.PostRecord) {
	slices.SortStableFunc(posts, func(a, b store.PostRecord) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

// writeInputError writes a 400 for a validation failure.
func writeInputError(w http.ResponseWriter, err error) {
	var ie *inputError
	if errors.As(err, &ie) {
		WriteBadRequest(w, ie.code, ie.message)
		return
	}
	WriteBadRequest(w, "rest_invalid_param", err.Error())
}
