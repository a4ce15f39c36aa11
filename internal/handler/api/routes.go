// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/easysplit/internal/middleware"
)

// Route patterns, relative to the API mount point.
const (
	RouteLogin      = "/auth/login"
	RouteMe         = "/auth/me"
	RoutePosts      = "/posts"
	RoutePostsID    = "/posts/{id:[0-9]+}"
	RoutePostsSlug  = "/posts/slug/{slug}"
	RouteCategories = "/categories"
	RouteCategoryID = "/categories/{id:[0-9]+}"
	RouteTags       = "/tags"
	RouteTagsID     = "/tags/{id:[0-9]+}"
	RouteMedia      = "/media"
	RouteMediaID    = "/media/{id:[0-9]+}"
	RouteEvents     = "/events"
)

// crudHandlers defines the handler methods of a REST collection.
type crudHandlers struct {
	List   http.HandlerFunc
	Get    http.HandlerFunc
	Create http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

// registerWrites registers the authenticated routes of a collection.
// Routes: POST /, PUT /{id}, POST /{id}, DELETE /{id}
func registerWrites(r chi.Router, base, baseID string, h crudHandlers) {
	r.Post(base, h.Create)
	r.Put(baseID, h.Update)
	r.Post(baseID, h.Update) // WordPress updates via POST
	r.Delete(baseID, h.Delete)
}

// Routes returns the API router. Reads are public; every route that
// mutates data sits behind the bearer token guard.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.limiter != nil {
		r.Use(h.limiter.Middleware())
	}

	posts := crudHandlers{List: h.ListPosts, Get: h.GetPost, Create: h.CreatePost, Update: h.UpdatePost, Delete: h.DeletePost}
	categories := crudHandlers{List: h.ListCategories, Get: h.GetCategory, Create: h.CreateCategory, Update: h.UpdateCategory, Delete: h.DeleteCategory}
	tags := crudHandlers{List: h.ListTags, Get: h.GetTag, Create: h.CreateTag, Update: h.UpdateTag, Delete: h.DeleteTag}

	// Login, with per-IP rate limiting and account lockout
	if h.lp != nil {
		r.With(h.lp.Middleware()).Post(RouteLogin, h.Login)
	} else {
		r.Post(RouteLogin, h.Login)
	}

	// Public reads; a valid token unlocks non-published statuses
	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalToken(h.tokens))

		r.Get(RoutePosts, posts.List)
		r.Get(RoutePostsSlug, h.GetPostBySlug)
		r.Get(RouteCategories, categories.List)
		r.Get(RouteCategoryID, categories.Get)
		r.Get(RouteTags, tags.List)
		r.Get(RouteTagsID, tags.Get)
		if h.media != nil {
			r.Get(RouteMediaID, h.GetMedia)
		}
	})

	// Authenticated
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireToken(h.tokens))

		r.Get(RouteMe, h.Me)
		r.Get(RoutePostsID, posts.Get)
		registerWrites(r, RoutePosts, RoutePostsID, posts)
		registerWrites(r, RouteCategories, RouteCategoryID, categories)
		registerWrites(r, RouteTags, RouteTagsID, tags)

		if h.media != nil {
			r.Post(RouteMedia, h.UploadMedia)
			r.Delete(RouteMediaID, h.DeleteMedia)
		}
		if h.events != nil {
			r.Get(RouteEvents, h.ListEvents)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "rest_no_route", "No route was found matching the URL and request method.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "rest_no_route", "No route was found matching the URL and request method.")
	})

	return r
}
