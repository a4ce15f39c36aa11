// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SanitizeFilename reduces filename to its last path element, treating
// backslashes as separators. Names that reduce to nothing, "." or ".."
// are rejected.
func SanitizeFilename(filename string) (string, error) {
	safe := filepath.Base(filepath.Clean(strings.ReplaceAll(filename, "\\", "/")))
	if safe == "." || safe == ".." || safe == "" || safe == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	return safe, nil
}

// UploadFilename builds the on-disk name of an upload as
// "<unix millis>-<random><ext>". Only the extension of the client-supplied
// name survives, lowercased.
func UploadFilename(original string, now time.Time, random uint32) string {
	ext := strings.ToLower(filepath.Ext(original))
	if ext != "" && !isSafeExtension(ext) {
		ext = ""
	}
	return fmt.Sprintf("%d-%d%s", now.UnixMilli(), random, ext)
}

// isSafeExtension reports whether ext is a dot followed by 1-5 alphanumerics.
func isSafeExtension(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 || ext[0] != '.' {
		return false
	}
	for _, r := range ext[1:] {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}

// ValidatePathWithinBase fails when target does not resolve to base or a
// path below it.
func ValidatePathWithinBase(base, target string) error {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return fmt.Errorf("invalid base path: %w", err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("invalid target path: %w", err)
	}
	rel, err := filepath.Rel(absBase, absTarget)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path %q escapes %q", target, base)
	}
	return nil
}

// SafeJoinPath joins parts onto base and rejects results outside base.
func SafeJoinPath(base string, parts ...string) (string, error) {
	full := filepath.Join(append([]string{base}, parts...)...)
	if err := ValidatePathWithinBase(base, full); err != nil {
		return "", err
	}
	return full, nil
}
