// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/olegiv/easysplit/internal/client"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/util"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// AdminService performs authenticated mutations. The token is read from the
// session store on every call, so a logout elsewhere takes effect at once.
type AdminService struct {
	client *client.Client
	store  SessionStore
	logger *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(c *client.Client, store SessionStore, logger *slog.Logger) *AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminService{
		client: c,
		store:  store,
		logger: logger,
	}
}

// CreatePost creates a post. A missing slug is derived from the title.
func (s *AdminService) CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error) {
	if (in.Slug == nil || *in.Slug == "") && in.Title != nil {
		slug := util.Slugify(*in.Title)
		in.Slug = &slug
	}

	var wire wpapi.Post
	if err := s.mutate(ctx, http.MethodPost, "/posts", nil, in, &wire); err != nil {
		return nil, err
	}
	post := wpapi.ToPost(wire)
	s.logger.Info("post created", "category", model.EventCategoryAdmin, "post_id", post.ID, "slug", post.Slug)
	return &post, nil
}

// UpdatePost sends only the fields set in in.
func (s *AdminService) UpdatePost(ctx context.Context, id int64, in model.PostInput) (*model.Post, error) {
	var wire wpapi.Post
	if err := s.mutate(ctx, http.MethodPost, itemPath("/posts", id), nil, in, &wire); err != nil {
		return nil, err
	}
	post := wpapi.ToPost(wire)
	s.logger.Info("post updated", "category", model.EventCategoryAdmin, "post_id", id)
	return &post, nil
}

// DeletePost permanently deletes a post, bypassing the trash.
func (s *AdminService) DeletePost(ctx context.Context, id int64) error {
	if err := s.mutate(ctx, http.MethodDelete, itemPath("/posts", id), forceQuery(), nil, nil); err != nil {
		return err
	}
	s.logger.Info("post deleted", "category", model.EventCategoryAdmin, "post_id", id)
	return nil
}

// CreateCategory creates a category. A missing slug is derived from the name.
func (s *AdminService) CreateCategory(ctx context.Context, in model.TermInput) (*model.Category, error) {
	deriveTermSlug(&in)

	var wire wpapi.Category
	if err := s.mutate(ctx, http.MethodPost, "/categories", nil, in, &wire); err != nil {
		return nil, err
	}
	c := wpapi.ToCategory(wire)
	s.logger.Info("category created", "category", model.EventCategoryAdmin, "category_id", c.ID)
	return &c, nil
}

// UpdateCategory sends only the fields set in in.
func (s *AdminService) UpdateCategory(ctx context.Context, id int64, in model.TermInput) (*model.Category, error) {
	var wire wpapi.Category
	if err := s.mutate(ctx, http.MethodPost, itemPath("/categories", id), nil, in, &wire); err != nil {
		return nil, err
	}
	c := wpapi.ToCategory(wire)
	return &c, nil
}

// DeleteCategory permanently deletes a category.
func (s *AdminService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.mutate(ctx, http.MethodDelete, itemPath("/categories", id), forceQuery(), nil, nil); err != nil {
		return err
	}
	s.logger.Info("category deleted", "category", model.EventCategoryAdmin, "category_id", id)
	return nil
}

// CreateTag creates a tag. A missing slug is derived from the name.
func (s *AdminService) CreateTag(ctx context.Context, in model.TermInput) (*model.Tag, error) {
	deriveTermSlug(&in)

	var wire wpapi.Tag
	if err := s.mutate(ctx, http.MethodPost, "/tags", nil, in, &wire); err != nil {
		return nil, err
	}
	t := wpapi.ToTag(wire)
	s.logger.Info("tag created", "category", model.EventCategoryAdmin, "tag_id", t.ID)
	return &t, nil
}

// UpdateTag sends only the fields set in in.
func (s *AdminService) UpdateTag(ctx context.Context, id int64, in model.TermInput) (*model.Tag, error) {
	var wire wpapi.Tag
	if err := s.mutate(ctx, http.MethodPost, itemPath("/tags", id), nil, in, &wire); err != nil {
		return nil, err
	}
	t := wpapi.ToTag(wire)
	return &t, nil
}

// DeleteTag permanently deletes a tag.
func (s *AdminService) DeleteTag(ctx context.Context, id int64) error {
	if err := s.mutate(ctx, http.MethodDelete, itemPath("/tags", id), forceQuery(), nil, nil); err != nil {
		return err
	}
	s.logger.Info("tag deleted", "category", model.EventCategoryAdmin, "tag_id", id)
	return nil
}

// UploadMedia uploads r as filename. Size and type limits are left to the
// backend; its rejection message is returned as a BackendError.
func (s *AdminService) UploadMedia(ctx context.Context, filename string, r io.Reader) (*model.MediaUpload, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Upload(ctx, "/media", token, filename, r)
	if err != nil {
		return nil, connectionError(err)
	}
	if !resp.OK() {
		return nil, newBackendError(resp)
	}

	var media wpapi.Media
	if err := resp.Decode(&media); err != nil {
		return nil, err
	}
	s.logger.Info("media uploaded", "category", model.EventCategoryMedia, "media_id", media.ID)
	return &model.MediaUpload{ID: media.ID, SourceURL: media.SourceURL, Filename: media.Filename}, nil
}

// token returns the stored token or ErrAuthRequired.
func (s *AdminService) token(ctx context.Context) (string, error) {
	sess := s.store.Read(ctx)
	if !sess.HasToken() {
		return "", ErrAuthRequired
	}
	return sess.Token, nil
}

// mutate sends an authenticated request and decodes a 2xx body into out
// when out is not nil.
func (s *AdminService) mutate(ctx context.Context, method, path string, q url.Values, body, out any) error {
	token, err := s.token(ctx)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(ctx, client.Request{
		Method: method,
		Path:   path,
		Query:  q,
		Body:   body,
		Token:  token,
	})
	if err != nil {
		return connectionError(err)
	}
	if !resp.OK() {
		berr := newBackendError(resp)
		s.logger.Warn("backend rejected mutation",
			"category", model.EventCategoryAdmin,
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"error", berr)
		return berr
	}

	if out == nil {
		return nil
	}
	if err := resp.Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	return nil
}

func deriveTermSlug(in *model.TermInput) {
	if (in.Slug == nil || *in.Slug == "") && in.Name != nil {
		slug := util.Slugify(*in.Name)
		in.Slug = &slug
	}
}

func itemPath(collection string, id int64) string {
	return collection + "/" + strconv.FormatInt(id, 10)
}

func forceQuery() url.Values {
	return url.Values{"force": {"true"}}
}
