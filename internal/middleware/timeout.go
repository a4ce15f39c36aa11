// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Timeout cancels the request context after d. A handler that has not
// started its response by then is answered with a WordPress-shaped 503
// (rest_request_timeout) and anything it writes afterwards is discarded.
// A non-positive d disables the deadline.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			gw := &guardedWriter{ResponseWriter: w}
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				next.ServeHTTP(gw, r.WithContext(ctx))
			}()

			select {
			case <-finished:
			case <-ctx.Done():
				if gw.expire() {
					WriteAPIError(w, http.StatusServiceUnavailable, "rest_request_timeout", "The request took too long to complete.")
				}
			}
		})
	}
}

type responseState int

const (
	statePending responseState = iota
	stateStarted
	stateExpired
)

// guardedWriter lets either the handler or the deadline own the response,
// never both.
type guardedWriter struct {
	http.ResponseWriter
	mu    sync.Mutex
	state responseState
}

// expire claims the response for the deadline. It fails once the handler
// has started writing.
func (g *guardedWriter) expire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state != statePending {
		return false
	}
	g.state = stateExpired
	return true
}

// start claims the response for the handler.
func (g *guardedWriter) start(code int) bool {
	switch g.state {
	case stateExpired:
		return false
	case statePending:
		g.state = stateStarted
		g.ResponseWriter.WriteHeader(code)
	}
	return true
}

func (g *guardedWriter) WriteHeader(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == statePending {
		g.start(code)
	}
}

func (g *guardedWriter) Write(b []byte) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.start(http.StatusOK) {
		return 0, http.ErrHandlerTimeout
	}
	return g.ResponseWriter.Write(b)
}
