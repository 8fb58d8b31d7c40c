// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

// WindowSizes configures infinite scrolling.
type WindowSizes struct {
	FirstPage int
	Batch     int
}

// Window is the infinite-scroll state of a list. DisplayCount only grows
// until the active filter changes.
type Window struct {
	Category     string  `json:"category"`
	Search       string  `json:"search"`
	Sort         SortKey `json:"sort"`
	DisplayCount int     `json:"displayCount"`
}

// NewWindow returns a window showing the first page of the full list.
func NewWindow(sizes WindowSizes) Window {
	return Window{Category: CategoryAll, Sort: DefaultSort, DisplayCount: sizes.FirstPage}
}

// SetFilter switches the active filter. Changing category or search
// resets DisplayCount to the first page size and reports true.
func (w *Window) SetFilter(category, search string, sort SortKey, sizes WindowSizes) bool {
	if category == "" {
		category = CategoryAll
	}
	if sort == "" {
		sort = DefaultSort
	}
	w.Sort = sort
	if category == w.Category && search == w.Search && w.DisplayCount > 0 {
		return false
	}
	w.Category = category
	w.Search = search
	w.DisplayCount = sizes.FirstPage
	return true
}

// Grow extends the window by one batch, capped at filtered.
// It never shrinks DisplayCount.
func (w *Window) Grow(sizes WindowSizes, filtered int) {
	next := min(w.DisplayCount+sizes.Batch, filtered)
	if next > w.DisplayCount {
		w.DisplayCount = next
	}
}

// Visible returns the shown prefix of items.
func Visible[T any](w Window, items []T) []T {
	n := min(max(w.DisplayCount, 0), len(items))
	return items[:n:n]
}

// HasMore reports whether items beyond the window remain.
func (w Window) HasMore(filtered int) bool {
	return w.DisplayCount < filtered
}
