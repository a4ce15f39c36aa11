// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package client is the HTTP transport shared by the blog façades. It
// speaks the wp/v2 contract to either WordPress or the fallback CMS and
// hides the difference in authentication scheme.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/easysplit/internal/auth"
	"github.com/olegiv/easysplit/internal/config"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// Transport limits.
const (
	DefaultTimeout   = 10 * time.Second
	MaxResponseLen   = 8 << 20
	DefaultUserAgent = "easysplit"
)

// Options configures a Client.
type Options struct {
	BaseURL    string
	Backend    string // config.BackendWordPress or config.BackendFallback
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues requests against the content backend. Every request is
// bounded by the configured timeout.
type Client struct {
	baseURL   string
	backend   string
	timeout   time.Duration
	userAgent string
	http      *http.Client
	logger    *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Backend == "" {
		opts.Backend = config.BackendWordPress
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		backend:   opts.Backend,
		timeout:   opts.Timeout,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		logger:    opts.Logger,
	}
}

// Backend returns the backend flavor.
func (c *Client) Backend() string {
	return c.backend
}

// IsFallback reports whether the client talks to the fallback CMS.
func (c *Client) IsFallback() bool {
	return c.backend == config.BackendFallback
}

// Scheme returns the Authorization scheme used with stored tokens.
func (c *Client) Scheme() string {
	if c.IsFallback() {
		return auth.SchemeBearer
	}
	return auth.SchemeBasic
}

// Request describes one API call. Path is relative to the base URL.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Token  string
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Do sends req and reads the whole response. The returned error is set
// only for failures below HTTP: timeouts, refused connections and the like.
// Non-2xx statuses are returned as a Response.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var body io.Reader
	contentType := ""
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return c.send(ctx, req, body, contentType)
}

// Upload sends r as the multipart field "file" with a POST to path.
func (c *Client) Upload(ctx context.Context, path, token, filename string, r io.Reader) (*Response, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing multipart body: %w", err)
	}

	return c.send(ctx, Request{Method: http.MethodPost, Path: path, Token: token}, &buf, mw.FormDataContentType())
}

func (c *Client) send(ctx context.Context, req Request, body io.Reader, contentType string) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-Id", requestID)
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Token != "" {
		httpReq.Header.Set("Authorization", auth.AuthorizationHeader(c.Scheme(), req.Token))
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.Debug("backend request failed",
			"method", method, "path", req.Path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, req.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	if err != nil {
		return nil, fmt.Errorf("reading %s %s: %w", method, req.Path, err)
	}

	c.logger.Debug("backend request",
		"method", method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration_ms", time.Since(start).Milliseconds(),
		"authenticated", req.Token != "")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Pagination reads the X-WP-Total and X-WP-TotalPages headers. Missing or
// malformed headers default to 0 and 1. page is echoed unchanged.
func (r *Response) Pagination(page int) model.Pagination {
	return model.Pagination{
		Total:       headerInt(r.Header, wpapi.HeaderTotal, 0),
		TotalPages:  headerInt(r.Header, wpapi.HeaderTotalPages, 1),
		CurrentPage: page,
	}
}

// ErrorMessage returns the message field of an error body, if any.
func (r *Response) ErrorMessage() string {
	var body wpapi.Error
	if err := json.Unmarshal(r.Body, &body); err != nil {
		return ""
	}
	return body.Message
}

func headerInt(h http.Header, key string, def int) int {
	v := strings.TrimSpace(h.Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
