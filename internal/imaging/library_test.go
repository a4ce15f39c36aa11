// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/olegiv/easysplit/internal/model"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(width, height)); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(width, height), nil); err != nil {
		t.Fatalf("jpeg.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestSave_KeepsOriginalBytes(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir)
	data := encodePNG(t, 40, 20)

	img, err := lib.Save(data, "1700000000000-42.png")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if img.Width != 40 || img.Height != 20 || img.MimeType != model.MimeTypePNG {
		t.Errorf("image = %+v", img)
	}
	if img.Path != filepath.Join(dir, "1700000000000-42.png") || img.Size != int64(len(data)) {
		t.Errorf("image = %+v", img)
	}

	stored, err := os.ReadFile(img.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(stored, data) {
		t.Error("stored file differs from upload")
	}
}

func TestSave_Rejected(t *testing.T) {
	lib := NewLibrary(t.TempDir())

	if _, err := lib.Save([]byte("%PDF-1.4 not an image"), "doc.png"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("pdf: err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := lib.Save([]byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`), "a.svg"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("svg: err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := lib.Save(encodePNG(t, 2, 2), ".."); err == nil {
		t.Error("expected error for invalid filename")
	}
}

func TestThumbnailAndRemove(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir)

	orig, err := lib.Save(encodeJPEG(t, 600, 600), "1-2.jpg")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	thumb, err := lib.Thumbnail("1-2.jpg")
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if thumb.Width != model.ThumbnailVariant.Width || thumb.Height != model.ThumbnailVariant.Height {
		t.Errorf("thumbnail = %dx%d, want %dx%d", thumb.Width, thumb.Height,
			model.ThumbnailVariant.Width, model.ThumbnailVariant.Height)
	}
	if thumb.Path != filepath.Join(dir, model.VariantThumbnail, "1-2.jpg") {
		t.Errorf("Path = %q", thumb.Path)
	}

	if err := lib.Remove("1-2.jpg"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	for _, path := range []string{orig.Path, thumb.Path} {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("%s still exists", path)
		}
	}
	if err := lib.Remove("1-2.jpg"); err != nil {
		t.Errorf("second Remove = %v, want nil", err)
	}
}

func TestThumbnail_Missing(t *testing.T) {
	if _, err := NewLibrary(t.TempDir()).Thumbnail("nope.png"); err == nil {
		t.Error("expected error for missing upload")
	}
}

func TestVariantName(t *testing.T) {
	tests := map[string]string{
		"a.png":  "a.png",
		"a.jpg":  "a.jpg",
		"a.gif":  "a.gif",
		"a.webp": "a.jpg",
		"a.WEBP": "a.jpg",
	}
	for in, want := range tests {
		if got := variantName(in); got != want {
			t.Errorf("variantName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFormats(t *testing.T) {
	tests := []struct {
		mime string
		ext  string
		ok   bool
	}{
		{model.MimeTypeJPEG, ".jpg", true},
		{model.MimeTypePNG, ".png", true},
		{model.MimeTypeGIF, ".gif", true},
		{model.MimeTypeWebP, ".webp", true},
		{"image/svg+xml", "", false},
		{"image/tiff", "", false},
	}
	for _, tt := range tests {
		f, ok := FormatOf(tt.mime)
		if ok != tt.ok || f.Ext != tt.ext || ExtensionFor(tt.mime) != tt.ext {
			t.Errorf("FormatOf(%q) = %+v, %v", tt.mime, f, ok)
		}
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", encodePNG(t, 2, 2), model.MimeTypePNG},
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0}, model.MimeTypeJPEG},
		{"gif", []byte("GIF89a"), model.MimeTypeGIF},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP"), model.MimeTypeWebP},
		{"tiff", []byte("II*\x00"), ""},
		{"text", []byte("hello"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok := Sniff(tt.data)
			if ok != (tt.want != "") || f.MimeType != tt.want {
				t.Errorf("Sniff = %+v, %v; want %q", f, ok, tt.want)
			}
		})
	}
}

func TestOrient(t *testing.T) {
	for o := 0; o <= 9; o++ {
		t.Run(fmt.Sprintf("orientation_%d", o), func(t *testing.T) {
			b := orient(testImage(20, 10), o).Bounds()
			swapped := b.Dx() == 10 && b.Dy() == 20
			if want := o >= 5 && o <= 8; swapped != want {
				t.Errorf("bounds %dx%d, swapped = %v, want %v", b.Dx(), b.Dy(), swapped, want)
			}
		})
	}
}
