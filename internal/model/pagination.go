// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Pagination describes the position of a page within a result set.
// CurrentPage is always the caller-supplied page, never corrected.
type Pagination struct {
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
}

// TotalPages calculates the number of pages needed to hold total items.
func TotalPages(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return (total-1)/perPage + 1
}

// PageBounds returns the slice bounds of a page within total items.
// Pages past the end yield the empty range [total, total]; a page below
// 1 is treated as the first page.
func PageBounds(total, page, perPage int) (start, end int) {
	if total <= 0 || perPage <= 0 {
		return 0, 0
	}
	page = max(page, 1)
	if page > TotalPages(total, perPage) {
		return total, total
	}
	start = (page - 1) * perPage
	if perPage >= total-start {
		return start, total
	}
	return start, start + perPage
}
