// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/olegiv/easysplit/internal/client"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// Listing defaults.
const (
	DefaultPerPage      = 9
	DefaultRelatedLimit = 3
)

// errMalformed marks a 2xx response whose body is not the expected JSON array.
var errMalformed = errors.New("malformed response")

// ContentService reads published content. It never returns errors:
// failures resolve to the fallback dataset or to empty results and are
// logged under the content_degraded category.
type ContentService struct {
	client   *client.Client
	store    SessionStore
	fallback *Dataset
	mock     bool
	logger   *slog.Logger
}

// NewContentService creates a ContentService backed by the default dataset.
// store may be nil, in which case GetPostByID never sends a token.
func NewContentService(c *client.Client, store SessionStore, logger *slog.Logger) *ContentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentService{
		client:   c,
		store:    store,
		fallback: DefaultDataset(),
		logger:   logger,
	}
}

// SetDataset replaces the fallback dataset.
func (s *ContentService) SetDataset(d *Dataset) {
	s.fallback = d
}

// SetMockData switches mock mode on or off. In mock mode every read is
// answered from the fallback dataset without touching the network.
func (s *ContentService) SetMockData(mock bool) {
	s.mock = mock
}

// Dataset returns the fallback dataset.
func (s *ContentService) Dataset() *Dataset {
	return s.fallback
}

// ListPosts returns one page of published posts, optionally narrowed to a
// category or a search term. page and perPage default to 1 and 9.
func (s *ContentService) ListPosts(ctx context.Context, page, perPage int, categoryID int64, search string) model.PostList {
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	if s.mock {
		return s.fallback.Page(page, perPage, categoryID, search)
	}

	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	q.Set("_embed", "")
	if categoryID != 0 {
		q.Set("categories", strconv.FormatInt(categoryID, 10))
	}
	if search != "" {
		q.Set("search", search)
	}

	posts, resp, err := s.fetchPosts(ctx, q)
	if err != nil {
		s.degraded("list_posts", err)
		return s.fallback.Page(page, perPage, categoryID, search)
	}

	return model.PostList{
		Items:      posts,
		Pagination: resp.Pagination(page),
	}
}

// SearchPosts is ListPosts with a search term and the default page size.
func (s *ContentService) SearchPosts(ctx context.Context, query string, page int) model.PostList {
	return s.ListPosts(ctx, page, DefaultPerPage, 0, query)
}

// GetPostBySlug returns the published post with the given slug, or nil when
// neither the backend nor the fallback dataset has it.
func (s *ContentService) GetPostBySlug(ctx context.Context, slug string) *model.Post {
	if s.mock {
		return s.fallback.BySlug(slug)
	}

	q := url.Values{}
	q.Set("slug", slug)
	q.Set("_embed", "")

	posts, _, err := s.fetchPosts(ctx, q)
	if err != nil {
		s.degraded("get_post_by_slug", err, "slug", slug)
		return s.fallback.BySlug(slug)
	}
	if len(posts) == 0 {
		return s.fallback.BySlug(slug)
	}
	return &posts[0]
}

// GetPostByID returns the post with the given id in any status, sending the
// stored token when there is one. A missing post yields nil.
func (s *ContentService) GetPostByID(ctx context.Context, id int64) *model.Post {
	if s.mock {
		return s.fallback.ByID(id)
	}

	var token string
	if s.store != nil {
		token = s.store.Read(ctx).Token
	}

	resp, err := s.client.Do(ctx, client.Request{
		Path:  "/posts/" + strconv.FormatInt(id, 10),
		Query: url.Values{"_embed": {""}},
		Token: token,
	})
	if err != nil {
		s.degraded("get_post_by_id", err, "post_id", id)
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if !resp.OK() {
		s.degraded("get_post_by_id", newBackendError(resp), "post_id", id)
		return nil
	}

	var p wpapi.Post
	if err := resp.Decode(&p); err != nil {
		s.degraded("get_post_by_id", err, "post_id", id)
		return nil
	}
	post := wpapi.ToPost(p)
	return &post
}

// ListCategories returns every category, or an empty list on failure.
func (s *ContentService) ListCategories(ctx context.Context) []model.Category {
	if s.mock {
		return s.fallback.Categories()
	}

	var wire []wpapi.Category
	if err := s.fetchArray(ctx, "/categories", perPageAll(), &wire); err != nil {
		s.degraded("list_categories", err)
		return []model.Category{}
	}

	out := make([]model.Category, len(wire))
	for i, c := range wire {
		out[i] = wpapi.ToCategory(c)
	}
	return out
}

// ListTags returns every tag, or an empty list on failure.
func (s *ContentService) ListTags(ctx context.Context) []model.Tag {
	if s.mock {
		return s.fallback.Tags()
	}

	var wire []wpapi.Tag
	if err := s.fetchArray(ctx, "/tags", perPageAll(), &wire); err != nil {
		s.degraded("list_tags", err)
		return []model.Tag{}
	}

	out := make([]model.Tag, len(wire))
	for i, t := range wire {
		out[i] = wpapi.ToTag(t)
	}
	return out
}

// ListRelatedPosts returns up to limit posts other than excludeID. Without
// categories these are the most recent posts; otherwise only the first
// category is queried.
func (s *ContentService) ListRelatedPosts(ctx context.Context, excludeID int64, categoryIDs []int64, limit int) []model.Post {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	if len(categoryIDs) == 0 {
		recent := s.ListPosts(ctx, 1, limit+1, 0, "")
		return excludePost(recent.Items, excludeID, limit)
	}

	category := categoryIDs[0]
	if s.mock {
		page := s.fallback.Page(1, limit+1, category, "")
		return excludePost(page.Items, excludeID, limit)
	}

	q := url.Values{}
	q.Set("categories", strconv.FormatInt(category, 10))
	q.Set("per_page", strconv.Itoa(limit+1))
	q.Set("_embed", "")

	posts, _, err := s.fetchPosts(ctx, q)
	if err != nil {
		s.degraded("list_related_posts", err, "category_id", category)
		return []model.Post{}
	}
	return excludePost(posts, excludeID, limit)
}

// fetchPosts runs GET /posts and decodes the array of posts.
func (s *ContentService) fetchPosts(ctx context.Context, q url.Values) ([]model.Post, *client.Response, error) {
	resp, err := s.client.Do(ctx, client.Request{Path: "/posts", Query: q})
	if err != nil {
		return nil, nil, err
	}
	if !resp.OK() {
		return nil, resp, newBackendError(resp)
	}

	var wire []wpapi.Post
	if err := decodeArray(resp, &wire); err != nil {
		return nil, resp, err
	}
	return wpapi.ToPosts(wire), resp, nil
}

// fetchArray runs an unauthenticated GET and decodes a JSON array into v.
func (s *ContentService) fetchArray(ctx context.Context, path string, q url.Values, v any) error {
	resp, err := s.client.Do(ctx, client.Request{Path: path, Query: q})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return newBackendError(resp)
	}
	return decodeArray(resp, v)
}

// degraded logs a read failure that was answered without the backend.
func (s *ContentService) degraded(op string, err error, attrs ...any) {
	args := append([]any{
		"category", model.EventCategoryContent,
		"operation", op,
		"backend", s.client.Backend(),
		"error", err,
	}, attrs...)
	s.logger.Warn("content backend degraded", args...)
}

// decodeArray decodes a response body that must be a JSON array.
func decodeArray(resp *client.Response, v any) error {
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || body[0] != '[' {
		return fmt.Errorf("%w: expected JSON array", errMalformed)
	}
	return resp.Decode(v)
}

// perPageAll asks for the largest page WordPress allows.
func perPageAll() url.Values {
	return url.Values{"per_page": {"100"}}
}

// excludePost drops the post with id excludeID and truncates to limit.
func excludePost(posts []model.Post, excludeID int64, limit int) []model.Post {
	out := make([]model.Post, 0, limit)
	for _, p := range posts {
		if p.ID == excludeID {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}
