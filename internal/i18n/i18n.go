// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package i18n resolves the visitor's language from the site's supported
// languages. The language is forwarded to the backend and used for title
// collation.
package i18n

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Matcher picks a supported language for a request.
type Matcher struct {
	codes   []string
	tags    []language.Tag
	matcher language.Matcher
}

// New creates a matcher. The first code is the default language.
func New(codes []string) (*Matcher, error) {
	if len(codes) == 0 {
		return nil, errors.New("i18n: no languages configured")
	}

	m := &Matcher{}
	for _, code := range codes {
		code = strings.ToLower(strings.TrimSpace(code))
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("i18n: parsing language %q: %w", code, err)
		}
		m.codes = append(m.codes, code)
		m.tags = append(m.tags, tag)
	}
	m.matcher = language.NewMatcher(m.tags)
	return m, nil
}

// Default returns the default language code.
func (m *Matcher) Default() string {
	return m.codes[0]
}

// Supported returns the configured language codes.
func (m *Matcher) Supported() []string {
	return m.codes
}

// IsSupported reports whether code is configured.
func (m *Matcher) IsSupported(code string) bool {
	code = strings.ToLower(code)
	for _, c := range m.codes {
		if c == code {
			return true
		}
	}
	return false
}

// Match finds the best supported language for an Accept-Language header
// or a bare language code.
func (m *Matcher) Match(acceptLang string) string {
	if acceptLang == "" {
		return m.Default()
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(tags) == 0 {
		tag, err := language.Parse(acceptLang)
		if err != nil {
			return m.Default()
		}
		tags = []language.Tag{tag}
	}

	_, idx, conf := m.matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(m.codes) {
		return m.Default()
	}
	return m.codes[idx]
}

// Tag returns the language tag for a supported code, or the default tag.
func (m *Matcher) Tag(code string) language.Tag {
	code = strings.ToLower(code)
	for i, c := range m.codes {
		if c == code {
			return m.tags[i]
		}
	}
	return m.tags[0]
}
