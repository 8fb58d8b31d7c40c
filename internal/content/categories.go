// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

// CategoryAll selects every item.
const CategoryAll = "All"

// Categories maps a logical category to the category keys stored on items.
// One logical category may cover several keys.
type Categories map[string][]string

// Resolve returns the key set for a logical category. all is true for
// CategoryAll and the empty string. An unknown name is treated as a raw key.
func (c Categories) Resolve(logical string) (keys map[string]struct{}, all bool) {
	if logical == "" || logical == CategoryAll {
		return nil, true
	}
	raw, ok := c[logical]
	if !ok {
		return map[string]struct{}{logical: {}}, false
	}
	keys = make(map[string]struct{}, len(raw))
	for _, k := range raw {
		keys[k] = struct{}{}
	}
	return keys, false
}

// Names returns the logical names, CategoryAll first, in the order given.
func (c Categories) Names(order ...string) []string {
	names := []string{CategoryAll}
	for _, n := range order {
		if _, ok := c[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Blog and portfolio categories. Each covers the plain key and the
// translation key older items were stored with.
var (
	PostCategoryOrder = []string{"Photography", "Travel", "Technology", "Life"}
	PostCategories    = Categories{
		"Photography": {"photography", "blog.category.photography"},
		"Travel":      {"travel", "blog.category.travel"},
		"Technology":  {"technology", "blog.category.technology"},
		"Life":        {"life", "blog.category.life"},
	}

	PortfolioCategoryOrder = []string{"Landscape", "Portrait", "Street", "Nature"}
	PortfolioCategories    = Categories{
		"Landscape": {"landscape", "portfolio.category.landscape"},
		"Portrait":  {"portrait", "portfolio.category.portrait"},
		"Street":    {"street", "portfolio.category.street"},
		"Nature":    {"nature", "portfolio.category.nature"},
	}
)
