// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/olegiv/easysplit/internal/client"
)

// Sentinel errors returned by the façades. Read paths never return them;
// they resolve to fallback data or empty results instead.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access forbidden")
	ErrConnection         = errors.New("connection error")
	ErrAuthRequired       = errors.New("authentication required")
	ErrNotFound           = errors.New("not found")
)

// Upload validation errors.
var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyUpload     = errors.New("empty upload")
)

// BackendError is a non-2xx response from the content backend.
type BackendError struct {
	Status  int
	Message string
}

// Error returns the backend's message, or a generic one naming the status.
func (e *BackendError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("operation failed: %d", e.Status)
}

// Is lets callers test a BackendError against the sentinel errors that
// correspond to its status.
func (e *BackendError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrAuthRequired:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// newBackendError builds a BackendError from a response.
func newBackendError(resp *client.Response) *BackendError {
	return &BackendError{Status: resp.StatusCode, Message: resp.ErrorMessage()}
}

// connectionError wraps a transport failure.
func connectionError(err error) error {
	return fmt.Errorf("%w: %w", ErrConnection, err)
}
