// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// Supported MIME types
const (
	MimeTypeJPEG = "image/jpeg"
	MimeTypePNG  = "image/png"
	MimeTypeGIF  = "image/gif"
	MimeTypeWebP = "image/webp"
)

// VariantThumbnail is the name of the generated thumbnail variant.
const VariantThumbnail = "thumbnail"

// ImageVariantConfig defines settings for generating image variants.
type ImageVariantConfig struct {
	Width   int
	Height  int
	Quality int
	Crop    bool // true = crop to exact size, false = fit within bounds
}

// ThumbnailVariant is the thumbnail generated for every upload.
var ThumbnailVariant = ImageVariantConfig{Width: 300, Height: 200, Quality: 80, Crop: true}

// IsSupportedMimeType reports whether uploads of the given type are accepted.
func IsSupportedMimeType(mimeType string) bool {
	switch mimeType {
	case MimeTypeJPEG, MimeTypePNG, MimeTypeGIF, MimeTypeWebP:
		return true
	}
	return false
}

// MediaUpload is the result of a media upload.
type MediaUpload struct {
	ID           int64  `json:"id"`
	SourceURL    string `json:"source_url"`
	Filename     string `json:"filename,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Media is a stored upload record on the fallback CMS.
type Media struct {
	ID         int64     `json:"id"`
	Filename   string    `json:"filename"`
	Original   string    `json:"original_name"`
	MimeType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	UploadedBy int64     `json:"uploaded_by"`
	CreatedAt  time.Time `json:"created_at"`
}
