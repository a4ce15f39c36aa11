// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/middleware"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/service"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/testutil"
)

const testSecret = "api-test-secret-with-at-least-32-bytes!"

// testEnv bundles a handler, its router and a seeded content store.
type testEnv struct {
	h      *Handler
	router http.Handler
	cms    *store.CMS
	tokens *auth.TokenManager
	admin  string // bearer token of the seeded administrator
}

// testSetup creates a seeded store and an API handler for testing.
func testSetup(t *testing.T, opts ...func(*Config)) *testEnv {
	t.Helper()

	cms := testutil.TestCMS(t)
	tokens := auth.NewTokenManager(testSecret, time.Hour)
	cfg := Config{
		CMS:       cms,
		Tokens:    tokens,
		Media:     service.NewMediaService(cms.Media, filepath.Join(t.TempDir(), "uploads"), 0, testutil.TestLoggerSilent()),
		Events:    service.NewEventService(testutil.TestMemoryDB(t)),
		PublicURL: "https://blog.example.com",
		Logger:    testutil.TestLoggerSilent(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	h := NewHandler(cfg)
	h.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	admin, _, err := tokens.GenerateToken(1, "admin", model.RoleAdministrator)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	return &testEnv{h: h, router: h.Routes(), cms: cms, tokens: tokens, admin: admin}
}

// withLoginProtection enables login protection with generous IP limits.
func withLoginProtection(t *testing.T, maxAttempts int) func(*Config) {
	return func(cfg *Config) {
		lp := middleware.NewLoginProtection(middleware.LoginProtectionConfig{
			IPRateLimit:       100,
			IPBurst:           100,
			MaxFailedAttempts: maxAttempts,
			LockoutDuration:   time.Minute,
			AttemptWindow:     time.Minute,
		})
		t.Cleanup(lp.Stop)
		cfg.LoginProtection = lp
	}
}

// do executes a request against the router. body is JSON-encoded unless
// it is an io.Reader.
func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case io.Reader:
		reader = b
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// addPost inserts a post directly into the store.
func (e *testEnv) addPost(t *testing.T, p store.PostRecord) store.PostRecord {
	t.Helper()
	if p.Status == "" {
		p.Status = model.PostStatusPublish
	}
	if p.Categories == nil {
		p.Categories = []int64{}
	}
	created, err := e.cms.Posts.Insert(p)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	return created
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rr.Body.String(), err)
	}
	return v
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, wantStatus int, wantCode string) {
	t.Helper()
	assertStatus(t, rr, wantStatus)
	body := decode[middleware.APIError](t, rr)
	if body.Code != wantCode {
		t.Errorf("code = %q, want %q", body.Code, wantCode)
	}
	if body.Data.Status != wantStatus {
		t.Errorf("data.status = %d, want %d", body.Data.Status, wantStatus)
	}
}

func strPtr(s string) *string { return &s }
