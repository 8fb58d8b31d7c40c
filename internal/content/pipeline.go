// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content derives the visible slice of a content collection:
// filter by category and search term, sort by one key, then paginate or
// window. The same pipeline serves blog and portfolio lists.
package content

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Accessor exposes the fields the pipeline needs from an item.
type Accessor[T any] interface {
	Date(item T) time.Time
	Title(item T) string
	LocalizedTitle(item T) string
	Views(item T) int
	Category(item T) string
	// SearchFields returns every text the search term is matched against.
	SearchFields(item T) []string
}

// SortKey selects the single ordering applied to a list.
type SortKey string

// Supported sort keys.
const (
	SortDateAsc   SortKey = "date-asc"
	SortDateDesc  SortKey = "date-desc"
	SortTitleAsc  SortKey = "title-asc"
	SortTitleDesc SortKey = "title-desc"
	SortViewsAsc  SortKey = "views-asc"
	SortViewsDesc SortKey = "views-desc"
)

// DefaultSort is used when no sort key is given.
const DefaultSort = SortDateDesc

// SortKeys lists every valid key.
var SortKeys = []SortKey{SortDateAsc, SortDateDesc, SortTitleAsc, SortTitleDesc, SortViewsAsc, SortViewsDesc}

// ParseSortKey validates s. An empty string yields DefaultSort.
func ParseSortKey(s string) (SortKey, bool) {
	if s == "" {
		return DefaultSort, true
	}
	k := SortKey(s)
	if slices.Contains(SortKeys, k) {
		return k, true
	}
	return "", false
}

// Query is one request against a list.
type Query struct {
	Category string
	Search   string
	Sort     SortKey
	Page     int
	PageSize int
}

// Result is one page of a derived list.
type Result[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"` // items left after filtering
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
}

// Pipeline applies filter, sort and pagination to collections of T.
// It holds no per-call state and is safe for concurrent use.
type Pipeline[T any] struct {
	acc        Accessor[T]
	categories Categories
	lang       language.Tag
}

// New creates a pipeline. Titles are collated for lang.
func New[T any](acc Accessor[T], categories Categories, lang language.Tag) *Pipeline[T] {
	return &Pipeline[T]{acc: acc, categories: categories, lang: lang}
}

// WithLanguage returns a copy of the pipeline that collates for lang.
func (p *Pipeline[T]) WithLanguage(lang language.Tag) *Pipeline[T] {
	cp := *p
	cp.lang = lang
	return &cp
}

// Categories returns the logical category mapping.
func (p *Pipeline[T]) Categories() Categories {
	return p.categories
}

// Filter keeps the items in the logical category that match the search
// term. The input order is preserved and items is not modified.
func (p *Pipeline[T]) Filter(items []T, category, search string) []T {
	keys, all := p.categories.Resolve(category)
	term := strings.TrimSpace(search)

	var fold cases.Caser
	if term != "" {
		fold = cases.Fold()
		term = fold.String(term)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		if !all {
			if _, ok := keys[p.acc.Category(item)]; !ok {
				continue
			}
		}
		if term != "" && !p.matches(fold, item, term) {
			continue
		}
		out = append(out, item)
	}
	return out
}

// matches reports whether any search field contains term.
func (p *Pipeline[T]) matches(fold cases.Caser, item T, term string) bool {
	for _, field := range p.acc.SearchFields(item) {
		if field != "" && strings.Contains(fold.String(field), term) {
			return true
		}
	}
	return false
}

// Sort returns a sorted copy of items. Equal items keep their relative order.
func (p *Pipeline[T]) Sort(items []T, key SortKey) []T {
	out := slices.Clone(items)
	if key == "" {
		key = DefaultSort
	}

	switch key {
	case SortDateAsc:
		slices.SortStableFunc(out, func(a, b T) int { return p.acc.Date(a).Compare(p.acc.Date(b)) })
	case SortDateDesc:
		slices.SortStableFunc(out, func(a, b T) int { return p.acc.Date(b).Compare(p.acc.Date(a)) })
	case SortViewsAsc:
		slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(p.acc.Views(a), p.acc.Views(b)) })
	case SortViewsDesc:
		slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(p.acc.Views(b), p.acc.Views(a)) })
	case SortTitleAsc, SortTitleDesc:
		// Collators are not safe for concurrent use.
		col := collate.New(p.lang)
		sign := 1
		if key == SortTitleDesc {
			sign = -1
		}
		slices.SortStableFunc(out, func(a, b T) int {
			return sign * col.CompareString(p.sortTitle(a), p.sortTitle(b))
		})
	}
	return out
}

// sortTitle prefers the localized title.
func (p *Pipeline[T]) sortTitle(item T) string {
	if t := p.acc.LocalizedTitle(item); t != "" {
		return t
	}
	return p.acc.Title(item)
}

// Derive filters then sorts.
func (p *Pipeline[T]) Derive(items []T, category, search string, key SortKey) []T {
	return p.Sort(p.Filter(items, category, search), key)
}

// Apply runs the full pipeline for q.
func (p *Pipeline[T]) Apply(items []T, q Query) Result[T] {
	derived := p.Derive(items, q.Category, q.Search, q.Sort)
	return Result[T]{
		Items:      Paginate(derived, q.Page, q.PageSize),
		Total:      len(derived),
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: TotalPages(len(derived), q.PageSize),
	}
}

// Paginate returns items[(page-1)*size : page*size]. Pages outside the
// collection yield an empty, non-nil slice.
func Paginate[T any](items []T, page, size int) []T {
	if page < 1 || size < 1 {
		return []T{}
	}
	start := (page - 1) * size
	if start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end:end]
}

// TotalPages returns the number of pages needed for total items.
func TotalPages(total, size int) int {
	if size < 1 || total <= 0 {
		return 0
	}
	return (total + size - 1) / size
}
