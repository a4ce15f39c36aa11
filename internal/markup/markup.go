// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package markup converts and cleans post bodies: Markdown to HTML,
// HTML sanitizing and plain-text excerpts.
package markup

import (
	"bufio"
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// DefaultExcerptWords is the excerpt length WordPress uses.
const DefaultExcerptWords = 55

// ExcerptMore is appended to truncated excerpts.
const ExcerptMore = " [&hellip;]"

var (
	// ugcPolicy allows the formatting tags expected in a post body and
	// strips scripts, styles and event handlers.
	ugcPolicy = bluemonday.UGCPolicy()

	// stripPolicy removes every tag.
	stripPolicy = bluemonday.StrictPolicy()
)

// Sanitize returns body with unsafe HTML removed.
func Sanitize(body string) string {
	return ugcPolicy.Sanitize(body)
}

// PlainText strips all markup from body and collapses whitespace.
func PlainText(body string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(body))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns the first maxWords words of body as a paragraph.
func Excerpt(body string, maxWords int) string {
	if maxWords <= 0 {
		maxWords = DefaultExcerptWords
	}

	words := strings.Fields(PlainText(body))
	if len(words) == 0 {
		return ""
	}

	more := ""
	if len(words) > maxWords {
		words = words[:maxWords]
		more = ExcerptMore
	}
	return "<p>" + html.EscapeString(strings.Join(words, " ")) + more + "</p>"
}

// MarkdownToHTML renders Markdown source. Raw HTML in the source is
// dropped by goldmark's default renderer.
func MarkdownToHTML(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// SplitTitle removes a leading "# Title" line from Markdown source and
// returns it with the rest of the document. title is empty when the first
// non-blank line is not a level-one heading.
func SplitTitle(src []byte) (title string, body []byte) {
	scanner := bufio.NewScanner(bytes.NewReader(src))
	offset := 0
	for scanner.Scan() {
		line := scanner.Text()
		offset += len(line) + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if !strings.HasPrefix(trimmed, "# ") {
			return "", src
		}
		if offset > len(src) {
			offset = len(src)
		}
		return strings.TrimSpace(trimmed[2:]), bytes.TrimLeft(src[offset:], "\r\n")
	}
	return "", src
}
