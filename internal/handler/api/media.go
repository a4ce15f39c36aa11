// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/olegiv/easysplit/internal/middleware"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/service"
	"github.com/olegiv/easysplit/internal/wpapi"
)

// UploadsPrefix is the URL path uploads are served under.
const UploadsPrefix = "/uploads/"

// multipartOverhead is allowed on top of the file size for the form envelope.
const multipartOverhead = 64 << 10

// MediaResponse represents a media item in API responses.
type MediaResponse struct {
	ID           int64  `json:"id"`
	SourceURL    string `json:"source_url"`
	Filename     string `json:"filename"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	MimeType     string `json:"mime_type"`
	Width        int    `json:"width,omitempty"`
	Height       int    `json:"height,omitempty"`
	Date         string `json:"date"`
}

// UploadMedia handles POST /media.
// Multipart form with the image in field "file".
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.media.MaxSize()+multipartOverhead)
	if err := r.ParseMultipartForm(h.media.MaxSize()); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			WriteError(w, http.StatusRequestEntityTooLarge, "rest_upload_file_too_big", "File is too large")
			return
		}
		WriteBadRequest(w, "rest_upload_no_data", "No file uploaded")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteBadRequest(w, "rest_upload_no_data", "No file uploaded")
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.media.Upload(r.Context(), file, header.Filename, middleware.GetUserID(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			WriteError(w, http.StatusRequestEntityTooLarge, "rest_upload_file_too_big", "File is too large")
		case errors.Is(err, service.ErrUnsupportedType):
			WriteError(w, http.StatusUnsupportedMediaType, "rest_upload_invalid_type", "Only images are allowed")
		case errors.Is(err, service.ErrEmptyUpload):
			WriteBadRequest(w, "rest_upload_no_data", "No file uploaded")
		default:
			h.logger.Error("media upload failed", "category", model.EventCategoryMedia, "error", err)
			WriteInternalError(w, "Failed to store upload")
		}
		return
	}

	resp := h.mediaResponse(r, result.Media)
	if result.Thumbnail != "" {
		resp.ThumbnailURL = h.mediaURL(r, service.ThumbnailPath(result.Thumbnail))
	}
	WriteJSON(w, http.StatusCreated, resp)
}

// GetMedia handles GET /media/{id}.
func (h *Handler) GetMedia(w http.ResponseWriter, r *http.Request) {
	m, ok := requireEntityByID(w, r, "media", h.media.Get)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, h.mediaResponse(r, m))
}

// DeleteMedia handles DELETE /media/{id}. The files are removed from disk.
func (h *Handler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	m, ok := requireEntityByID(w, r, "media", h.media.Get)
	if !ok {
		return
	}
	previous := h.mediaResponse(r, m)

	if err := h.media.Delete(r.Context(), m.ID); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			WriteNotFound(w, "rest_media_invalid_id", "Invalid media ID.")
			return
		}
		h.logger.Error("media delete failed", "category", model.EventCategoryMedia, "media_id", m.ID, "error", err)
		WriteInternalError(w, "Failed to delete media")
		return
	}

	h.logger.Info("media deleted",
		"category", model.EventCategoryMedia,
		"media_id", m.ID,
		"user_id", middleware.GetUserID(r))
	WriteJSON(w, http.StatusOK, DeleteResponse{Deleted: true, Previous: previous})
}

func (h *Handler) mediaResponse(r *http.Request, m model.Media) MediaResponse {
	return MediaResponse{
		ID:        m.ID,
		SourceURL: h.mediaURL(r, m.Filename),
		Filename:  m.Filename,
		MimeType:  m.MimeType,
		Width:     m.Width,
		Height:    m.Height,
		Date:      wpapi.FormatTime(m.CreatedAt),
	}
}

// mediaURL returns the absolute URL of a file under the uploads directory.
// The configured public URL wins; otherwise the request's host is used.
func (h *Handler) mediaURL(r *http.Request, name string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + UploadsPrefix + (&url.URL{Path: strings.TrimPrefix(name, "/")}).EscapedPath()
}
