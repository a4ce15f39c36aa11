// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"testing"

	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/wpapi"
)

func int64Ptr(v int64) *int64 { return &v }

func TestListCategories(t *testing.T) {
	env := testSetup(t)
	env.addPost(t, store.PostRecord{Title: "A", Slug: "a", Categories: []int64{1, 2}, Date: baseDate})
	env.addPost(t, store.PostRecord{Title: "B", Slug: "b", Categories: []int64{1}, Date: baseDate})
	env.addPost(t, store.PostRecord{Title: "Draft", Slug: "draft", Status: model.PostStatusDraft, Categories: []int64{1, 3}, Date: baseDate})

	rr := env.do(t, http.MethodGet, RouteCategories, nil, "")
	assertStatus(t, rr, http.StatusOK)
	assertPaginationHeaders(t, rr.Header(), "3", "1")

	got := decode[[]wpapi.Category](t, rr)
	want := []struct {
		slug  string
		count int
	}{
		{"cro", 2},
		{"trafego-pago", 0},
		{"wordpress", 1},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Slug != w.slug || got[i].Count != w.count {
			t.Errorf("[%d] = %s/%d, want %s/%d", i, got[i].Slug, got[i].Count, w.slug, w.count)
		}
	}
}

func TestListCategories_Query(t *testing.T) {
	env := testSetup(t)
	env.addPost(t, store.PostRecord{Title: "A", Slug: "a", Categories: []int64{2}, Date: baseDate})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"hide empty", "?hide_empty=true", []string{"wordpress"}},
		{"search", "?search=tr%C3%A1fego", []string{"trafego-pago"}},
		{"search is case insensitive", "?search=CRO", []string{"cro"}},
		{"paged", "?per_page=2&page=2", []string{"wordpress"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, RouteCategories+tt.query, nil, "")
			assertStatus(t, rr, http.StatusOK)
			got := decode[[]wpapi.Category](t, rr)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d categories, want %v", len(got), tt.want)
			}
			for i, slug := range tt.want {
				if got[i].Slug != slug {
					t.Errorf("[%d] = %q, want %q", i, got[i].Slug, slug)
				}
			}
		})
	}
}

func TestGetCategory(t *testing.T) {
	env := testSetup(t)
	env.addPost(t, store.PostRecord{Title: "A", Slug: "a", Categories: []int64{3}, Date: baseDate})

	rr := env.do(t, http.MethodGet, "/categories/3", nil, "")
	assertStatus(t, rr, http.StatusOK)
	if c := decode[wpapi.Category](t, rr); c.Name != "Tráfego Pago" || c.Count != 1 {
		t.Errorf("category = %+v", c)
	}

	rr = env.do(t, http.MethodGet, "/categories/42", nil, "")
	assertErrorCode(t, rr, http.StatusNotFound, "rest_term_invalid_id")
}

func TestCreateCategory(t *testing.T) {
	env := testSetup(t)

	rr := env.do(t, http.MethodPost, RouteCategories, model.TermInput{Name: strPtr(" Análise de Dados "), Parent: int64Ptr(1)}, env.admin)
	assertStatus(t, rr, http.StatusCreated)
	c := decode[wpapi.Category](t, rr)
	if c.ID != 4 || c.Name != "Análise de Dados" || c.Slug != "analise-de-dados" || c.Parent != 1 {
		t.Errorf("category = %+v", c)
	}

	tests := []struct {
		name       string
		input      model.TermInput
		wantStatus int
		wantCode   string
	}{
		{"missing name", model.TermInput{Slug: strPtr("x")}, http.StatusBadRequest, "rest_missing_callback_param"},
		{"duplicate slug from name", model.TermInput{Name: strPtr("WordPress")}, http.StatusBadRequest, "term_exists"},
		{"duplicate explicit slug", model.TermInput{Name: strPtr("Other"), Slug: strPtr("CRO")}, http.StatusBadRequest, "term_exists"},
		{"unknown parent", model.TermInput{Name: strPtr("Child"), Parent: int64Ptr(99)}, http.StatusBadRequest, "rest_term_invalid"},
		{"name without slug characters", model.TermInput{Name: strPtr("???")}, http.StatusBadRequest, "rest_invalid_param"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, RouteCategories, tt.input, env.admin)
			assertErrorCode(t, rr, tt.wantStatus, tt.wantCode)
		})
	}

	rr = env.do(t, http.MethodPost, RouteCategories, model.TermInput{Name: strPtr("Anon")}, "")
	assertErrorCode(t, rr, http.StatusUnauthorized, "rest_not_logged_in")

	if n := env.cms.Categories.Len(); n != 4 {
		t.Errorf("categories stored = %d, want 4", n)
	}
}

func TestUpdateCategory(t *testing.T) {
	env := testSetup(t)

	rr := env.do(t, http.MethodPut, "/categories/2", model.TermInput{Description: strPtr("Plugins e temas")}, env.admin)
	assertStatus(t, rr, http.StatusOK)
	c := decode[wpapi.Category](t, rr)
	if c.Name != "WordPress" || c.Slug != "wordpress" || c.Description != "Plugins e temas" {
		t.Errorf("category = %+v", c)
	}

	rr = env.do(t, http.MethodPost, "/categories/2", model.TermInput{Slug: strPtr("WP"), Parent: int64Ptr(1)}, env.admin)
	assertStatus(t, rr, http.StatusOK)
	if c := decode[wpapi.Category](t, rr); c.Slug != "wp" || c.Parent != 1 {
		t.Errorf("category = %+v", c)
	}

	tests := []struct {
		name     string
		path     string
		input    model.TermInput
		status   int
		wantCode string
	}{
		{"slug taken", "/categories/2", model.TermInput{Slug: strPtr("cro")}, http.StatusBadRequest, "term_exists"},
		{"own parent", "/categories/2", model.TermInput{Parent: int64Ptr(2)}, http.StatusBadRequest, "rest_term_invalid"},
		{"empty name", "/categories/2", model.TermInput{Name: strPtr(" ")}, http.StatusBadRequest, "rest_invalid_param"},
		{"unknown id", "/categories/77", model.TermInput{Name: strPtr("x")}, http.StatusNotFound, "rest_term_invalid_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPut, tt.path, tt.input, env.admin)
			assertErrorCode(t, rr, tt.status, tt.wantCode)
		})
	}
}

func TestDeleteCategory(t *testing.T) {
	env := testSetup(t)
	env.addPost(t, store.PostRecord{Title: "A", Slug: "a", Categories: []int64{1, 2}, Date: baseDate})
	env.addPost(t, store.PostRecord{Title: "B", Slug: "b", Categories: []int64{2}, Date: baseDate})

	child, err := env.cms.Categories.Insert(model.Category{Name: "Child", Slug: "child", Parent: 2})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}

	rr := env.do(t, http.MethodDelete, "/categories/2?force=true", nil, env.admin)
	assertStatus(t, rr, http.StatusOK)
	resp := decode[struct {
		Deleted  bool           `json:"deleted"`
		Previous wpapi.Category `json:"previous"`
	}](t, rr)
	if !resp.Deleted || resp.Previous.Slug != "wordpress" {
		t.Errorf("response = %+v", resp)
	}

	for id, want := range map[int64][]int64{1: {1}, 2: {}} {
		p, err := env.cms.Posts.Get(id)
		if err != nil {
			t.Fatalf("Get(%d): %v", id, err)
		}
		assertIDs(t, p.Categories, want)
	}

	c, err := env.cms.Categories.Get(child.ID)
	if err != nil {
		t.Fatalf("Get child: %v", err)
	}
	if c.Parent != 0 {
		t.Errorf("child parent = %d, want 0", c.Parent)
	}

	rr = env.do(t, http.MethodDelete, "/categories/2", nil, env.admin)
	assertErrorCode(t, rr, http.StatusNotFound, "rest_term_invalid_id")
}

func TestTags(t *testing.T) {
	env := testSetup(t)

	rr := env.do(t, http.MethodPost, RouteTags, model.TermInput{Name: strPtr("Google Ads")}, env.admin)
	assertStatus(t, rr, http.StatusCreated)
	tag := decode[wpapi.Tag](t, rr)
	if tag.ID != 1 || tag.Slug != "google-ads" {
		t.Fatalf("tag = %+v", tag)
	}

	rr = env.do(t, http.MethodPost, RouteTags, model.TermInput{Name: strPtr("google ads")}, env.admin)
	assertErrorCode(t, rr, http.StatusBadRequest, "term_exists")

	env.addPost(t, store.PostRecord{Title: "A", Slug: "a", Tags: []int64{tag.ID}, Date: baseDate})
	env.addPost(t, store.PostRecord{Title: "B", Slug: "b", Tags: []int64{tag.ID}, Status: model.PostStatusPending, Date: baseDate})

	rr = env.do(t, http.MethodGet, RouteTags, nil, "")
	assertStatus(t, rr, http.StatusOK)
	if tags := decode[[]wpapi.Tag](t, rr); len(tags) != 1 || tags[0].Count != 1 {
		t.Errorf("tags = %+v", tags)
	}

	rr = env.do(t, http.MethodPut, "/tags/1", model.TermInput{Name: strPtr("Google Ads 2026")}, env.admin)
	assertStatus(t, rr, http.StatusOK)
	if got := decode[wpapi.Tag](t, rr); got.Name != "Google Ads 2026" || got.Slug != "google-ads" || got.Count != 1 {
		t.Errorf("tag = %+v", got)
	}

	rr = env.do(t, http.MethodGet, "/tags/1", nil, "")
	assertStatus(t, rr, http.StatusOK)

	rr = env.do(t, http.MethodDelete, "/tags/1", nil, env.admin)
	assertStatus(t, rr, http.StatusOK)
	for _, p := range env.cms.Posts.All() {
		if len(p.Tags) != 0 {
			t.Errorf("post %d still tagged: %v", p.ID, p.Tags)
		}
	}

	rr = env.do(t, http.MethodGet, "/tags/1", nil, "")
	assertErrorCode(t, rr, http.StatusNotFound, "rest_term_invalid_id")
}
