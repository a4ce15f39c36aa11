// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging validates uploaded images and keeps them, with their
// thumbnails, in the fallback CMS's uploads directory.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder

	"github.com/olegiv/easysplit/internal/model"
	"github.com/olegiv/easysplit/internal/util"
)

// ErrUnsupportedFormat is returned for data that is not a JPEG, PNG, GIF or
// WebP image.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format describes an accepted upload type.
type Format struct {
	MimeType string
	Ext      string
	// Encodable is false for formats without a pure Go encoder; their
	// thumbnails are written as JPEG.
	Encodable bool
}

var formats = []Format{
	{model.MimeTypeJPEG, ".jpg", true},
	{model.MimeTypePNG, ".png", true},
	{model.MimeTypeGIF, ".gif", true},
	{model.MimeTypeWebP, ".webp", false},
}

// Sniff identifies data by its leading bytes.
func Sniff(data []byte) (Format, bool) {
	return FormatOf(DetectMimeType(data))
}

// FormatOf looks up the format for mimeType.
func FormatOf(mimeType string) (Format, bool) {
	for _, f := range formats {
		if f.MimeType == mimeType {
			return f, true
		}
	}
	return Format{}, false
}

func formatOfName(name string) Format {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	for _, f := range formats {
		if f.Ext == ext {
			return f
		}
	}
	return formats[0]
}

// DetectMimeType returns the sniffed content type without parameters.
func DetectMimeType(data []byte) string {
	ct := http.DetectContentType(data)
	ct, _, _ = strings.Cut(ct, ";")
	return ct
}

// ExtensionFor returns the file extension stored for mimeType, or "".
func ExtensionFor(mimeType string) string {
	f, _ := FormatOf(mimeType)
	return f.Ext
}

// Image describes a stored upload.
type Image struct {
	Path     string
	MimeType string
	Width    int
	Height   int
	Size     int64
}

// Library keeps uploads flat under its directory and thumbnails under
// <dir>/thumbnail.
type Library struct {
	dir string
}

// NewLibrary creates a Library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{dir: dir}
}

// Dir returns the uploads directory.
func (l *Library) Dir() string {
	return l.dir
}

// Save validates data and writes it as name. Photos carrying an EXIF
// rotation are turned upright and re-encoded; anything else is written
// unchanged.
func (l *Library) Save(data []byte, name string) (*Image, error) {
	f, ok := Sniff(data)
	if !ok {
		return nil, ErrUnsupportedFormat
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	out := data
	if o := exifOrientation(data); o != 1 {
		img = orient(img, o)
		if out, err = encode(img, f, 95); err != nil {
			return nil, fmt.Errorf("re-encoding rotated image: %w", err)
		}
	}

	path, err := l.write("", name, out)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Image{Path: path, MimeType: f.MimeType, Width: b.Dx(), Height: b.Dy(), Size: int64(len(out))}, nil
}

// Thumbnail renders the thumbnail of the stored upload name.
func (l *Library) Thumbnail(name string) (*Image, error) {
	return l.variant(name, model.VariantThumbnail, model.ThumbnailVariant)
}

func (l *Library) variant(name, kind string, cfg model.ImageVariantConfig) (*Image, error) {
	src, err := util.SafeJoinPath(l.dir, name)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Open(src)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}

	if cfg.Crop {
		img = imaging.Fill(img, cfg.Width, cfg.Height, imaging.Center, imaging.Lanczos)
	} else {
		img = imaging.Fit(img, cfg.Width, cfg.Height, imaging.Lanczos)
	}

	f := formatOfName(name)
	target := variantName(name)
	if !f.Encodable {
		f = formats[0]
	}
	data, err := encode(img, f, cfg.Quality)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", kind, err)
	}
	path, err := l.write(kind, target, data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &Image{Path: path, MimeType: f.MimeType, Width: b.Dx(), Height: b.Dy(), Size: int64(len(data))}, nil
}

// variantName is the filename a variant of name is stored under.
func variantName(name string) string {
	if formatOfName(name).Encodable {
		return name
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + formats[0].Ext
}

// Remove deletes an upload and its thumbnail. Missing files are ignored.
func (l *Library) Remove(name string) error {
	safe, err := util.SanitizeFilename(name)
	if err != nil {
		return err
	}
	for _, path := range []string{
		filepath.Join(l.dir, safe),
		filepath.Join(l.dir, model.VariantThumbnail, variantName(safe)),
	} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing %s: %w", path, err)
		}
	}
	return nil
}

func (l *Library) write(sub, name string, data []byte) (string, error) {
	safe, err := util.SanitizeFilename(name)
	if err != nil {
		return "", err
	}
	dir, err := util.SafeJoinPath(l.dir, sub)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, safe)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func encode(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch f.MimeType {
	case model.MimeTypePNG:
		err = png.Encode(&buf, img)
	case model.MimeTypeGIF:
		err = gif.Encode(&buf, img, nil)
	default:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	return buf.Bytes(), err
}

// exifOrientation returns the EXIF orientation tag, or 1 when absent.
func exifOrientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	o, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return o
}

// orientations maps EXIF orientation values 2-8 to the transform that
// makes the image upright.
var orientations = map[int]func(image.Image) *image.NRGBA{
	2: imaging.FlipH,
	3: imaging.Rotate180,
	4: imaging.FlipV,
	5: imaging.Transpose,
	6: imaging.Rotate270,
	7: imaging.Transverse,
	8: imaging.Rotate90,
}

func orient(img image.Image, o int) image.Image {
	if fn, ok := orientations[o]; ok {
		return fn(img)
	}
	return img
}
