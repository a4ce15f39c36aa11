// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"slices"
	"strings"

	"github.com/olegiv/easysplit/internal/handler"
	"github.com/olegiv/easysplit/internal/middleware"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/util"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// Term listing defaults. Taxonomies are small, so one page usually holds all.
const (
	DefaultTermsPerPage = 100
)

// ============================================================================
// Category Endpoints
// ============================================================================

// ListCategories handles GET /categories.
// Public: counts reflect published posts only.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	counts := h.publishedCounts(func(p store.PostRecord) []int64 { return p.Categories })
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	hideEmpty := handler.QueryFlag(r, "hide_empty")

	var matched []wpapi.Category
	for _, c := range h.cms.Categories.All() {
		c.PostCount = counts[c.ID]
		if hideEmpty && c.PostCount == 0 {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) {
			continue
		}
		matched = append(matched, wpapi.FromCategory(c))
	}
	slices.SortStableFunc(matched, func(a, b wpapi.Category) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	writeTermPage(w, r, matched)
}

// GetCategory handles GET /categories/{id}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	c, ok := requireEntityByID(w, r, "term", h.cms.Categories.Get)
	if !ok {
		return
	}
	c.PostCount = h.publishedCounts(func(p store.PostRecord) []int64 { return p.Categories })[c.ID]
	WriteJSON(w, http.StatusOK, wpapi.FromCategory(c))
}

// CreateCategory handles POST /categories.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in model.TermInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteBadRequest(w, "rest_invalid_json", "Invalid JSON body")
		return
	}

	name := trimmed(in.Name)
	if name == "" {
		WriteBadRequest(w, "rest_missing_callback_param", "Name is required")
		return
	}
	slug := termSlug(in.Slug, name)
	if slug == "" {
		WriteBadRequest(w, "rest_invalid_param", "Invalid parameter: slug")
		return
	}
	if h.categorySlugTaken(slug, 0) {
		WriteBadRequest(w, "term_exists", "A term with the name provided already exists with this parent.")
		return
	}

	c := model.Category{Name: name, Slug: slug}
	if in.Description != nil {
		c.Description = strings.TrimSpace(*in.Description)
	}
	if in.Parent != nil && *in.Parent != 0 {
		if _, err := h.cms.Categories.Get(*in.Parent); err != nil {
			WriteBadRequest(w, "rest_term_invalid", "Parent term does not exist.")
			return
		}
		c.Parent = *in.Parent
	}

	created, err := h.cms.Categories.Insert(c)
	if err != nil {
		h.logger.Error("failed to create category", "error", err)
		WriteInternalError(w, "Failed to create category")
		return
	}

	h.logger.Info("category created",
		"category", model.EventCategoryAdmin,
		"term_id", created.ID,
		"slug", created.Slug,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusCreated, wpapi.FromCategory(created))
}

// UpdateCategory handles PUT /categories/{id} and POST /categories/{id}.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(w, r, "term", h.cms.Categories.Get)
	if !ok {
		return
	}

	var in model.TermInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteBadRequest(w, "rest_invalid_json", "Invalid JSON body")
		return
	}
	if in.Name != nil && trimmed(in.Name) == "" {
		WriteBadRequest(w, "rest_invalid_param", "Name cannot be empty")
		return
	}

	slug := ""
	if in.Slug != nil {
		if slug = util.Slugify(*in.Slug); !util.IsValidSlug(slug) {
			WriteBadRequest(w, "rest_invalid_param", "Invalid parameter: slug")
			return
		}
		if h.categorySlugTaken(slug, existing.ID) {
			WriteBadRequest(w, "term_exists", "A term with the name provided already exists with this parent.")
			return
		}
	}
	if in.Parent != nil && *in.Parent != 0 {
		if *in.Parent == existing.ID {
			WriteBadRequest(w, "rest_term_invalid", "A term cannot be its own parent.")
			return
		}
		if _, err := h.cms.Categories.Get(*in.Parent); err != nil {
			WriteBadRequest(w, "rest_term_invalid", "Parent term does not exist.")
			return
		}
	}

	updated, err := h.cms.Categories.Update(existing.ID, func(c *model.Category) error {
		if in.Name != nil {
			c.Name = trimmed(in.Name)
		}
		if slug != "" {
			c.Slug = slug
		}
		if in.Description != nil {
			c.Description = strings.TrimSpace(*in.Description)
		}
		if in.Parent != nil {
			c.Parent = *in.Parent
		}
		return nil
	})
	if err != nil {
		writeTermStoreError(w, err, "Failed to update category")
		return
	}
	updated.PostCount = h.publishedCounts(func(p store.PostRecord) []int64 { return p.Categories })[updated.ID]

	h.logger.Info("category updated",
		"category", model.EventCategoryAdmin,
		"term_id", updated.ID,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusOK, wpapi.FromCategory(updated))
}

// DeleteCategory handles DELETE /categories/{id}. The category is
// removed from every post that referenced it.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(w, r, "term", h.cms.Categories.Get)
	if !ok {
		return
	}

	if err := h.cms.Categories.Delete(existing.ID); err != nil {
		writeTermStoreError(w, err, "Failed to delete category")
		return
	}
	detached := h.detachTerm(existing.ID,
		func(p *store.PostRecord) *[]int64 { return &p.Categories })

	// Children move up to the deleted category's parent.
	for _, c := range h.cms.Categories.All() {
		if c.Parent != existing.ID {
			continue
		}
		if _, err := h.cms.Categories.Update(c.ID, func(c *model.Category) error {
			c.Parent = existing.Parent
			return nil
		}); err != nil {
			h.logger.Warn("failed to reparent category", "category", model.EventCategoryAdmin, "term_id", c.ID, "error", err)
		}
	}

	h.logger.Info("category deleted",
		"category", model.EventCategoryAdmin,
		"term_id", existing.ID,
		"posts_updated", detached,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusOK, DeleteResponse{Deleted: true, Previous: wpapi.FromCategory(existing)})
}

func (h *Handler) categorySlugTaken(slug string, selfID int64) bool {
	_, found := h.cms.Categories.Find(func(c model.Category) bool {
		return c.Slug == slug && c.ID != selfID
	})
	return found
}

// ============================================================================
// Tag Endpoints
// ============================================================================

// ListTags handles GET /tags.
// Public: counts reflect published posts only.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	counts := h.publishedCounts(func(p store.PostRecord) []int64 { return p.Tags })
	search := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	hideEmpty := handler.QueryFlag(r, "hide_empty")

	var matched []wpapi.Tag
	for _, t := range h.cms.Tags.All() {
		t.PostCount = counts[t.ID]
		if hideEmpty && t.PostCount == 0 {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			continue
		}
		matched = append(matched, wpapi.FromTag(t))
	}
	slices.SortStableFunc(matched, func(a, b wpapi.Tag) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	writeTermPage(w, r, matched)
}

// GetTag handles GET /tags/{id}.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	t, ok := requireEntityByID(w, r, "term", h.cms.Tags.Get)
	if !ok {
		return
	}
	t.PostCount = h.publishedCounts(func(p store.PostRecord) []int64 { return p.Tags })[t.ID]
	WriteJSON(w, http.StatusOK, wpapi.FromTag(t))
}

// CreateTag handles POST /tags.
func (h *Handler) CreateTag(w http.ResponseWriter, r *http.Request) {
	var in model.TermInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteBadRequest(w, "rest_invalid_json", "Invalid JSON body")
		return
	}

	name := trimmed(in.Name)
	if name == "" {
		WriteBadRequest(w, "rest_missing_callback_param", "Name is required")
		return
	}
	slug := termSlug(in.Slug, name)
	if slug == "" {
		WriteBadRequest(w, "rest_invalid_param", "Invalid parameter: slug")
		return
	}
	if h.tagSlugTaken(slug, 0) {
		WriteBadRequest(w, "term_exists", "A term with the name provided already exists.")
		return
	}

	t := model.Tag{Name: name, Slug: slug}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}

	created, err := h.cms.Tags.Insert(t)
	if err != nil {
		h.logger.Error("failed to create tag", "error", err)
		WriteInternalError(w, "Failed to create tag")
		return
	}

	h.logger.Info("tag created",
		"category", model.EventCategoryAdmin,
		"term_id", created.ID,
		"slug", created.Slug,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusCreated, wpapi.FromTag(created))
}

// UpdateTag handles PUT /tags/{id} and POST /tags/{id}.
func (h *Handler) UpdateTag(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(w, r, "term", h.cms.Tags.Get)
	if !ok {
		return
	}

	var in model.TermInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteBadRequest(w, "rest_invalid_json", "Invalid JSON body")
		return
	}
	if in.Name != nil && trimmed(in.Name) == "" {
		WriteBadRequest(w, "rest_invalid_param", "Name cannot be empty")
		return
	}

	slug := ""
	if in.Slug != nil {
		if slug = util.Slugify(*in.Slug); !util.IsValidSlug(slug) {
			WriteBadRequest(w, "rest_invalid_param", "Invalid parameter: slug")
			return
		}
		if h.tagSlugTaken(slug, existing.ID) {
			WriteBadRequest(w, "term_exists", "A term with the name provided already exists.")
			return
		}
	}

	updated, err := h.cms.Tags.Update(existing.ID, func(t *model.Tag) error {
		if in.Name != nil {
			t.Name = trimmed(in.Name)
		}
		if slug != "" {
			t.Slug = slug
		}
		if in.Description != nil {
			t.Description = strings.TrimSpace(*in.Description)
		}
		return nil
	})
	if err != nil {
		writeTermStoreError(w, err, "Failed to update tag")
		return
	}
	updated.PostCount = h.publishedCounts(func(p store.PostRecord) []int64 { return p.Tags })[updated.ID]

	h.logger.Info("tag updated",
		"category", model.EventCategoryAdmin,
		"term_id", updated.ID,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusOK, wpapi.FromTag(updated))
}

// DeleteTag handles DELETE /tags/{id}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	existing, ok := requireEntityByID(w, r, "term", h.cms.Tags.Get)
	if !ok {
		return
	}

	if err := h.cms.Tags.Delete(existing.ID); err != nil {
		writeTermStoreError(w, err, "Failed to delete tag")
		return
	}
	detached := h.detachTerm(existing.ID,
		func(p *store.PostRecord) *[]int64 { return &p.Tags })

	h.logger.Info("tag deleted",
		"category", model.EventCategoryAdmin,
		"term_id", existing.ID,
		"posts_updated", detached,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusOK, DeleteResponse{Deleted: true, Previous: wpapi.FromTag(existing)})
}

func (h *Handler) tagSlugTaken(slug string, selfID int64) bool {
	_, found := h.cms.Tags.Find(func(t model.Tag) bool {
		return t.Slug == slug && t.ID != selfID
	})
	return found
}

// ============================================================================
// Helpers
// ============================================================================

// publishedCounts counts published posts per term id.
func (h *Handler) publishedCounts(termsOf func(store.PostRecord) []int64) map[int64]int {
	counts := make(map[int64]int)
	for _, p := range h.cms.Posts.All() {
		if p.Status != model.PostStatusPublish {
			continue
		}
		for _, id := range termsOf(p) {
			counts[id]++
		}
	}
	return counts
}

// detachTerm removes termID from the term list of every post and returns
// how many posts changed.
func (h *Handler) detachTerm(termID int64, list func(*store.PostRecord) *[]int64) int {
	n := 0
	for _, p := range h.cms.Posts.All() {
		if !slices.Contains(*list(&p), termID) {
			continue
		}
		_, err := h.cms.Posts.Update(p.ID, func(p *store.PostRecord) error {
			ids := list(p)
			*ids = slices.DeleteFunc(slices.Clone(*ids), func(id int64) bool { return id == termID })
			return nil
		})
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			h.logger.Warn("failed to detach term from post",
				"category", model.EventCategoryAdmin,
				"term_id", termID,
				"post_id", p.ID,
				"error", err)
			continue
		}
		n++
	}
	return n
}

// writeTermPage paginates a term list and writes it with the pagination headers.
func writeTermPage[T any](w http.ResponseWriter, r *http.Request, items []T) {
	page := handler.ParsePageParam(r)
	perPage := handler.ParsePerPageParam(r, DefaultTermsPerPage, MaxPerPage)

	total := len(items)
	start, end := handler.PageBounds(total, page, perPage)
	out := make([]T, 0, end-start)
	out = append(out, items[start:end]...)

	handler.SetPaginationHeaders(w, total, model.TotalPages(total, perPage))
	WriteJSON(w, http.StatusOK, out)
}

func writeTermStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		WriteNotFound(w, "rest_term_invalid_id", "Invalid term ID.")
		return
	}
	WriteInternalError(w, message)
}

// termSlug slugifies the supplied slug, or the name when none was given.
func termSlug(slug *string, name string) string {
	if slug != nil && strings.TrimSpace(*slug) != "" {
		return util.Slugify(*slug)
	}
	return util.Slugify(name)
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
