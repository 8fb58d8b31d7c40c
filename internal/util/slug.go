// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small helpers shared across the site: URL slugs,
// client addresses and file names.
package util

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength bounds generated slugs. Longer titles are cut at the last
// word boundary that fits.
const MaxSlugLength = 80

// Slugify converts a title to a URL slug of lowercase ASCII words joined
// by single hyphens. Non-Latin scripts are transliterated, so
// "Привет мир" becomes "privet-mir". Apostrophes join words ("don't"
// becomes "dont").
func Slugify(s string) string {
	ascii := unidecode.Unidecode(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(ascii))
	sep := false
	for _, r := range strings.ToLower(ascii) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if sep && b.Len() > 0 {
				b.WriteByte('-')
			}
			sep = false
			b.WriteRune(r)
		case r == '\'':
		default:
			sep = true
		}
	}

	slug := b.String()
	if len(slug) <= MaxSlugLength {
		return slug
	}
	slug = slug[:MaxSlugLength]
	if i := strings.LastIndexByte(slug, '-'); i > 0 {
		slug = slug[:i]
	}
	return strings.TrimSuffix(slug, "-")
}

// IsValidSlug reports whether s is a non-empty run of lowercase ASCII
// words joined by single hyphens.
func IsValidSlug(s string) bool {
	if s == "" || len(s) > MaxSlugLength {
		return false
	}
	prev := byte('-')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-' && prev != '-':
		default:
			return false
		}
		prev = c
	}
	return prev != '-'
}
