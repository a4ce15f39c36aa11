// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olegiv/easysplit/internal/client"
	"github.com/olegiv/easysplit/internal/config"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/testutil"
)

// countingTransport counts round trips before handing them to next.
type countingTransport struct {
	calls atomic.Int64
	next  http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls.Add(1)
	return t.next.RoundTrip(req)
}

// memoryStore is an in-memory SessionStore.
type memoryStore struct {
	mu       sync.Mutex
	sess     model.Session
	remember bool
	writes   int
	clears   int
}

func (m *memoryStore) Read(context.Context) model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess
}

func (m *memoryStore) Write(_ context.Context, sess model.Session, remember bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = sess
	m.remember = remember
	m.writes++
	return nil
}

func (m *memoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = model.Anonymous()
	m.remember = false
	m.clears++
	return nil
}

func storeWithToken(token string) *memoryStore {
	return &memoryStore{sess: model.Session{Authenticated: true, Token: token, User: &model.UserProfile{ID: 1}}}
}

// newTestClient starts handler behind httptest and returns a client for it
// that counts requests.
func newTestClient(t *testing.T, backend string, handler http.Handler) (*client.Client, *countingTransport) {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return newClientFor(srv.URL, backend, time.Second)
}

// newClientFor returns a counting client for baseURL.
func newClientFor(baseURL, backend string, timeout time.Duration) (*client.Client, *countingTransport) {
	transport := &countingTransport{next: http.DefaultTransport}
	c := client.New(client.Options{
		BaseURL:    baseURL,
		Backend:    backend,
		Timeout:    timeout,
		HTTPClient: &http.Client{Transport: transport},
		Logger:     testutil.TestLoggerSilent(),
	})
	return c, transport
}

// unreachableClient returns a client whose requests are refused.
func unreachableClient(t *testing.T) (*client.Client, *countingTransport) {
	t.Helper()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	return newClientFor(url, config.BackendWordPress, time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeBody(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func writeWPError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": message,
		"data":    map[string]int{"status": status},
	})
}

// numberedPosts builds n published posts with ids 1..n, newest first.
func numberedPosts(n int) []model.Post {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	posts := make([]model.Post, n)
	for i := range posts {
		id := int64(i + 1)
		posts[i] = model.Post{
			ID:         id,
			Slug:       fmt.Sprintf("post-%d", id),
			Title:      fmt.Sprintf("Post %d", id),
			Content:    "<p>body</p>",
			Status:     model.PostStatusPublish,
			Categories: []int64{1},
			CreatedAt:  base.Add(-time.Duration(i) * time.Hour),
		}
	}
	return posts
}
