// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/cache"
	"github.com/olegiv/easysplit/internal/client"
	"github.com/olegiv/easysplit/internal/config"
	"github.com/olegiv/easysplit/internal/handler/api"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/service"
	"github.com/olegiv/easysplit/internal/session"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/testutil"
	"github.com/olegiv/easysplit/internal/version"
)

func TestMain(m *testing.M) {
	isTerminal = func(int) bool { return false }
	os.Exit(m.Run())
}

// testEnv runs blogctl against a fallback CMS served over HTTP.
type testEnv struct {
	cms *store.CMS
	out *bytes.Buffer
	app *App
}

func newTestEnv(t *testing.T, input string) *testEnv {
	t.Helper()

	cms := testutil.TestCMS(t)
	logger := testutil.TestLoggerSilent()
	h := api.NewHandler(api.Config{
		CMS:    cms,
		Tokens: auth.NewTokenManager("cli-test-secret-with-at-least-32-bytes", time.Hour),
		Media:  service.NewMediaService(cms.Media, filepath.Join(t.TempDir(), "uploads"), 0, logger),
		Events: service.NewEventService(testutil.TestMemoryDB(t)),
		Logger: logger,
	})
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	storage := session.NewCacheStorage(cache.NewSession(), cache.NewSession())
	t.Cleanup(func() { _ = storage.Close() })
	sessions := session.NewStore(storage, logger)

	c := client.New(client.Options{
		BaseURL:    srv.URL,
		Backend:    config.BackendFallback,
		Timeout:    5 * time.Second,
		HTTPClient: srv.Client(),
		Logger:     logger,
	})
	authSvc := service.NewAuthService(c, sessions, logger)
	authSvc.SetBackoff()

	out := &bytes.Buffer{}
	app := New(Config{
		Auth:    authSvc,
		Content: service.NewContentService(c, sessions, logger),
		Admin:   service.NewAdminService(c, sessions, logger),
		Version: &version.Info{Version: "1.2.3"},
		Out:     out,
		Err:     out,
		In:      strings.NewReader(input),
	})
	return &testEnv{cms: cms, out: out, app: app}
}

// run executes one command line and returns its output.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	e.out.Reset()
	err := e.app.Run(context.Background(), args)
	return e.out.String(), err
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	e.app.in.Reset(strings.NewReader("admin123\n"))
	_, err := e.run(t, "login", "-user", "admin")
	require.NoError(t, err)
}

func TestLoginWhoamiLogout(t *testing.T) {
	env := newTestEnv(t, "admin\nadmin123\n")

	out, err := env.run(t, "login")
	require.NoError(t, err)
	assert.Contains(t, out, "Username: ")
	assert.Contains(t, out, "Signed in as "+store.DefaultAdminName)
	assert.Contains(t, out, "-remember")

	out, err = env.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "(id 1)")

	out, err = env.run(t, "logout")
	require.NoError(t, err)
	assert.Equal(t, "Signed out\n", out)

	_, err = env.run(t, "whoami")
	assert.ErrorIs(t, err, service.ErrAuthRequired)
}

func TestLogin_Rejected(t *testing.T) {
	env := newTestEnv(t, "wrong\n")

	_, err := env.run(t, "login", "-user", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid username or password")

	_, err = env.run(t, "whoami")
	assert.ErrorIs(t, err, service.ErrAuthRequired)
}

func TestMutationsRequireLogin(t *testing.T) {
	env := newTestEnv(t, "")

	_, err := env.run(t, "create", "-title", "Hello")
	require.ErrorIs(t, err, service.ErrAuthRequired)
	assert.Contains(t, err.Error(), "blogctl login")
	assert.Zero(t, env.cms.Posts.Len())
}

func TestCreateListAndShowPost(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	out, err := env.run(t, "create", "-title", "Olá Mundo", "-status", "publish", "-categories", "1,2", "-excerpt", "Resumo")
	require.NoError(t, err)
	assert.Equal(t, "Created post 1 (ola-mundo, publish)\n", out)

	_, err = env.run(t, "update", "-file", writeFile(t, "body.html", "<p>Primeiro <b>post</b></p>"), "1")
	require.NoError(t, err)

	out, err = env.run(t, "posts")
	require.NoError(t, err)
	assert.Contains(t, out, "ola-mundo")
	assert.Contains(t, out, "page 1 of 1 (1 posts)")

	out, err = env.run(t, "posts", "-category", "3")
	require.NoError(t, err)
	assert.Equal(t, "No posts found\n", out)

	out, err = env.run(t, "post", "ola-mundo")
	require.NoError(t, err)
	assert.Contains(t, out, "Olá Mundo")
	assert.Contains(t, out, "Primeiro post")
	assert.NotContains(t, out, "<b>")

	_, err = env.run(t, "post", "missing")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestCreateFromMarkdown(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	path := writeFile(t, "post.md", "# Testes A/B\n\nTexto com **ênfase**.\n")
	out, err := env.run(t, "create", "-file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "(testes-a-b, draft)")

	p, err := env.cms.Posts.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Testes A/B", p.Title)
	assert.Contains(t, p.Content, "<strong>ênfase</strong>")
	assert.NotContains(t, p.Content, "<h1>")
}

func TestCreate_RequiresTitle(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	out, err := env.run(t, "create", "-status", "draft")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out, "Usage: blogctl create")
}

func TestUpdate_SendsOnlySetFlags(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	_, err := env.run(t, "create", "-title", "Rascunho", "-excerpt", "Curto", "-categories", "2")
	require.NoError(t, err)

	out, err := env.run(t, "update", "1", "-status", "publish")
	require.NoError(t, err)
	assert.Equal(t, "Updated post 1 (rascunho, publish)\n", out)

	p, err := env.cms.Posts.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "Rascunho", p.Title)
	assert.Equal(t, "Curto", p.Excerpt)
	assert.Equal(t, []int64{2}, p.Categories)

	_, err = env.run(t, "update", "1")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	_, err := env.run(t, "create", "-title", "Temporário")
	require.NoError(t, err)

	out, err := env.run(t, "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted post 1\n", out)
	assert.Zero(t, env.cms.Posts.Len())

	_, err = env.run(t, "delete", "1")
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = env.run(t, "delete", "abc")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestRelated(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	for _, title := range []string{"Um", "Dois", "Três"} {
		_, err := env.run(t, "create", "-title", title, "-status", "publish", "-categories", "1")
		require.NoError(t, err)
	}
	_, err := env.run(t, "create", "-title", "Outro", "-status", "publish", "-categories", "2")
	require.NoError(t, err)

	out, err := env.run(t, "related", "-limit", "5", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "dois")
	assert.Contains(t, out, "tres")
	assert.NotContains(t, out, "outro")
	assert.NotContains(t, out, " um ")
}

func TestTaxonomyCommands(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	out, err := env.run(t, "category", "create", "-name", "Google Ads", "-parent", "1")
	require.NoError(t, err)
	assert.Equal(t, "Created category 4 (google-ads)\n", out)

	out, err = env.run(t, "category", "update", "4", "-description", "Campanhas")
	require.NoError(t, err)
	assert.Equal(t, "Updated category 4 (google-ads)\n", out)

	c, err := env.cms.Categories.Get(4)
	require.NoError(t, err)
	assert.Equal(t, "Campanhas", c.Description)
	assert.Equal(t, int64(1), c.Parent)

	out, err = env.run(t, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "google-ads")
	assert.Contains(t, out, "wordpress")

	_, err = env.run(t, "category", "create", "-name", "google ads")
	require.Error(t, err)

	out, err = env.run(t, "tag", "create", "-name", "SEO")
	require.NoError(t, err)
	assert.Equal(t, "Created tag 1 (seo)\n", out)

	_, err = env.run(t, "tag", "create", "-name", "x", "-parent", "1")
	assert.ErrorIs(t, err, ErrUsage)

	out, err = env.run(t, "tags")
	require.NoError(t, err)
	assert.Contains(t, out, "seo")

	out, err = env.run(t, "tag", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "Deleted tag 1\n", out)

	out, err = env.run(t, "category", "delete", "4")
	require.NoError(t, err)
	assert.Equal(t, "Deleted category 4\n", out)

	_, err = env.run(t, "category", "rename", "4")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestUpload(t *testing.T) {
	env := newTestEnv(t, "")
	env.login(t)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	path := writeFile(t, "capa.png", buf.String())

	out, err := env.run(t, "upload", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Uploaded media 1: http")
	assert.Contains(t, out, api.UploadsPrefix)

	m, err := env.cms.Media.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "capa.png", m.Original)
	assert.Equal(t, model.MimeTypePNG, m.MimeType)

	_, err = env.run(t, "upload", writeFile(t, "notes.txt", "plain text"))
	var be *service.BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, http.StatusUnsupportedMediaType, be.Status)

	_, err = env.run(t, "upload", filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestShell(t *testing.T) {
	input := strings.Join([]string{
		"login -user admin",
		"admin123",
		"",
		`create -title "Post do shell" -status publish`,
		"whoami",
		`create -title "unterminated`,
		"bogus",
		"exit",
		"version",
	}, "\n")
	env := newTestEnv(t, input)

	out, err := env.run(t, "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as")
	assert.Contains(t, out, "Created post 1 (post-do-shell, publish)")
	assert.Contains(t, out, "(id 1)")
	assert.Contains(t, out, "unterminated \" quote")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.NotContains(t, out, "blogctl 1.2.3\n", "commands after exit must not run")
}

func TestShell_EOF(t *testing.T) {
	env := newTestEnv(t, "version")

	out, err := env.run(t, "shell")
	require.NoError(t, err)
	assert.Contains(t, out, "blogctl> blogctl 1.2.3")
}

func TestRun_Usage(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t)
	require.NoError(t, err)
	assert.Contains(t, out, "Usage: blogctl <command>")
	assert.Contains(t, out, "categories")

	out, err = env.run(t, "frobnicate")
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, out, `unknown command "frobnicate"`)

	_, err = env.run(t, "posts", "-page", "x")
	assert.ErrorIs(t, err, ErrUsage)

	out, err = env.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "blogctl 1.2.3\n", out)
}

func TestMain_ExitCodes(t *testing.T) {
	env := newTestEnv(t, "")
	ctx := context.Background()

	assert.Equal(t, 0, env.app.Main(ctx, []string{"version"}))
	assert.Equal(t, 2, env.app.Main(ctx, []string{"delete"}))
	assert.Equal(t, 1, env.app.Main(ctx, []string{"create", "-title", "x"}))
	assert.Contains(t, env.out.String(), "error: not signed in")
}

func TestPromptPassword_Terminal(t *testing.T) {
	env := newTestEnv(t, "")

	origIsTerminal, origPassword := isTerminal, termPassword
	isTerminal = func(int) bool { return true }
	termPassword = func(int) ([]byte, error) { return []byte("s3cret"), nil }
	t.Cleanup(func() {
		isTerminal, termPassword = origIsTerminal, origPassword
	})

	got, err := env.app.promptPassword()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line    string
		want    []string
		wantErr bool
	}{
		{"", nil, false},
		{"  posts   -page 2 ", []string{"posts", "-page", "2"}, false},
		{`create -title "Olá mundo"`, []string{"create", "-title", "Olá mundo"}, false},
		{`tag create -name 'It''s'`, []string{"tag", "create", "-name", "Its"}, false},
		{`post ""`, []string{"post", ""}, false},
		{`create -title "open`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := splitLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseArgs_Interspersed(t *testing.T) {
	env := newTestEnv(t, "")
	fs := env.app.newFlagSet("x", "x")
	limit := fs.Int("limit", 3, "")
	verbose := fs.Bool("v", false, "")

	rest, err := parseArgs(fs, []string{"a", "-limit", "5", "b", "-v"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rest)
	assert.Equal(t, 5, *limit)
	assert.True(t, *verbose)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
