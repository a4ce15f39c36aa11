// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/easysplit/internal/imaging"
	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/util"
)

// Upload limits
const (
	DefaultMaxUploadSize = 5 << 20 // 5MB
	DefaultUploadDir     = "./uploads"
)

// UploadResult contains the result of a media upload.
type UploadResult struct {
	Media     model.Media
	Thumbnail string // thumbnail filename relative to the thumbnail directory, empty if none
}

// MediaService stores uploads for the fallback CMS.
type MediaService struct {
	media     *store.Collection[model.Media]
	library   *imaging.Library
	maxSize   int64
	logger    *slog.Logger
	now       func() time.Time
}

// NewMediaService creates a new media service writing under uploadDir.
func NewMediaService(media *store.Collection[model.Media], uploadDir string, maxSize int64, logger *slog.Logger) *MediaService {
	if uploadDir == "" {
		uploadDir = DefaultUploadDir
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxUploadSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{
		media:     media,
		library:   imaging.NewLibrary(uploadDir),
		maxSize:   maxSize,
		logger:    logger,
		now:       time.Now,
	}
}

// UploadDir returns the directory uploads are written to.
func (s *MediaService) UploadDir() string {
	return s.library.Dir()
}

// MaxSize returns the upload ceiling in bytes.
func (s *MediaService) MaxSize() int64 {
	return s.maxSize
}

// Upload validates r as a supported image, stores it under a generated
// name with a thumbnail, and records it.
func (s *MediaService) Upload(ctx context.Context, r io.Reader, originalName string, userID int64) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	if int64(len(data)) > s.maxSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.maxSize)
	}

	mimeType := imaging.DetectMimeType(data)
	if !model.IsSupportedMimeType(mimeType) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The extension follows the detected type, never the client's name.
	filename := util.UploadFilename(imaging.ExtensionFor(mimeType), s.now(), uuid.New().ID())

	processed, err := s.library.Save(data, filename)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedFormat) {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
		}
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	result := UploadResult{}
	thumb, err := s.library.Thumbnail(filename)
	if err != nil {
		s.logger.Warn("failed to create thumbnail", "category", model.EventCategoryMedia, "filename", filename, "error", err)
	} else {
		result.Thumbnail = filepath.Base(thumb.Path)
	}

	record, err := s.media.Insert(model.Media{
		Filename:   filename,
		Original:   filepath.Base(originalName),
		MimeType:   processed.MimeType,
		Size:       processed.Size,
		Width:      processed.Width,
		Height:     processed.Height,
		UploadedBy: userID,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		_ = s.library.Remove(filename)
		return nil, fmt.Errorf("failed to create media record: %w", err)
	}
	result.Media = record

	s.logger.Info("media stored",
		"category", model.EventCategoryMedia,
		"media_id", record.ID,
		"filename", filename,
		"mime_type", record.MimeType,
		"size", record.Size)
	return &result, nil
}

// Get returns the media record with the given id.
func (s *MediaService) Get(id int64) (model.Media, error) {
	m, err := s.media.Get(id)
	if errors.Is(err, store.ErrNotFound) {
		return m, ErrNotFound
	}
	return m, err
}

// Delete removes a media record and its files.
func (s *MediaService) Delete(ctx context.Context, id int64) error {
	m, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.media.Delete(id); err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}
	if err := s.library.Remove(m.Filename); err != nil {
		s.logger.Warn("failed to delete media files", "category", model.EventCategoryMedia, "filename", m.Filename, "error", err)
	}
	return nil
}

// ThumbnailPath returns the path of a thumbnail relative to the upload
// directory, as served under /uploads.
func ThumbnailPath(thumbnail string) string {
	if thumbnail == "" {
		return ""
	}
	return model.VariantThumbnail + "/" + thumbnail
}
