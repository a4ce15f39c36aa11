// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/store"
	"github.com/olegiv/easysplit/internal/testutil"
)

func newTestMediaService(t *testing.T, maxSize int64) (*MediaService, string) {
	t.Helper()

	dir := t.TempDir()
	media, err := store.OpenCollection(filepath.Join(dir, store.MediaFile),
		func(m *model.Media) int64 { return m.ID },
		func(m *model.Media, id int64) { m.ID = id })
	if err != nil {
		t.Fatalf("OpenCollection: %v", err)
	}

	uploads := filepath.Join(dir, "uploads")
	svc := NewMediaService(media, uploads, maxSize, testutil.TestLoggerSilent())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc, uploads
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

var uploadNamePattern = regexp.MustCompile(`^1700000000000-\d+\.png$`)

func TestMediaUpload(t *testing.T) {
	svc, uploads := newTestMediaService(t, 0)
	data := testPNG(t, 640, 480)

	res, err := svc.Upload(context.Background(), bytes.NewReader(data), "../../etc/My Photo.JPG", 1)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	m := res.Media
	if m.ID != 1 {
		t.Errorf("ID = %d, want 1", m.ID)
	}
	if !uploadNamePattern.MatchString(m.Filename) {
		t.Errorf("Filename = %q, want <millis>-<random>.png", m.Filename)
	}
	if m.Original != "My Photo.JPG" {
		t.Errorf("Original = %q, want %q", m.Original, "My Photo.JPG")
	}
	if m.MimeType != model.MimeTypePNG || m.Width != 640 || m.Height != 480 {
		t.Errorf("record = %+v", m)
	}
	if m.Size != int64(len(data)) {
		t.Errorf("Size = %d, want %d", m.Size, len(data))
	}

	if _, err := os.Stat(filepath.Join(uploads, m.Filename)); err != nil {
		t.Errorf("stored file missing: %v", err)
	}
	if res.Thumbnail == "" {
		t.Fatal("no thumbnail created")
	}
	if _, err := os.Stat(filepath.Join(uploads, ThumbnailPath(res.Thumbnail))); err != nil {
		t.Errorf("thumbnail missing: %v", err)
	}
}

func TestMediaUpload_Rejections(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrEmptyUpload},
		{"text", []byte("just some text, not an image"), ErrUnsupportedType},
		{"pdf", []byte("%PDF-1.4\n%âãÏÓ\n"), ErrUnsupportedType},
		{"too large", bytes.Repeat([]byte{0x89}, 2048), ErrFileTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, uploads := newTestMediaService(t, 1024)

			_, err := svc.Upload(context.Background(), bytes.NewReader(tt.data), "x.png", 1)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Upload error = %v, want %v", err, tt.want)
			}

			entries, _ := os.ReadDir(uploads)
			if len(entries) != 0 {
				t.Errorf("rejected upload left %d files behind", len(entries))
			}
		})
	}
}

func TestMediaUpload_IDsNotReused(t *testing.T) {
	svc, _ := newTestMediaService(t, 0)
	ctx := context.Background()
	data := testPNG(t, 32, 32)

	first, err := svc.Upload(ctx, bytes.NewReader(data), "a.png", 1)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.Delete(ctx, first.Media.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	second, err := svc.Upload(ctx, bytes.NewReader(data), "b.png", 1)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if second.Media.ID == first.Media.ID {
		t.Errorf("id %d was reused", first.Media.ID)
	}
}

func TestMediaDelete(t *testing.T) {
	svc, uploads := newTestMediaService(t, 0)
	ctx := context.Background()

	res, err := svc.Upload(ctx, bytes.NewReader(testPNG(t, 400, 300)), "a.png", 1)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if err := svc.Delete(ctx, res.Media.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := os.Stat(filepath.Join(uploads, res.Media.Filename)); !os.IsNotExist(err) {
		t.Errorf("file still exists after delete: %v", err)
	}
	if _, err := svc.Get(res.Media.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete error = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(ctx, res.Media.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
}

func TestThumbnailPath(t *testing.T) {
	if got := ThumbnailPath(""); got != "" {
		t.Errorf("ThumbnailPath(\"\") = %q, want empty", got)
	}
	if got := ThumbnailPath("1-2.png"); !strings.HasPrefix(got, model.VariantThumbnail+"/") {
		t.Errorf("ThumbnailPath = %q", got)
	}
}
