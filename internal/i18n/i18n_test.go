// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestNew_Errors(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Error("New(nil) should fail")
	}
	if _, err := New([]string{"en", "not a language!"}); err == nil {
		t.Error("New should reject an unparsable code")
	}
}

func TestMatch(t *testing.T) {
	m, err := New([]string{"en", "RU"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	tests := []struct {
		input    string
		expected string
	}{
		{"", "en"},
		{"en", "en"},
		{"ru", "ru"},
		{"ru-RU", "ru"},
		{"en-US,en;q=0.9", "en"},
		{"ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7", "ru"},
		{"de-DE,de;q=0.9", "en"},
		{"garbage;;", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := m.Match(tt.input); got != tt.expected {
				t.Errorf("Match(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSupportedAndTag(t *testing.T) {
	m, err := New([]string{"ru", "en"})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if m.Default() != "ru" {
		t.Errorf("Default() = %q, want %q", m.Default(), "ru")
	}
	if !m.IsSupported("EN") {
		t.Error("IsSupported(EN) = false, want true")
	}
	if m.IsSupported("de") {
		t.Error("IsSupported(de) = true, want false")
	}
	if m.Tag("en") != language.English {
		t.Errorf("Tag(en) = %v, want %v", m.Tag("en"), language.English)
	}
	if m.Tag("fr") != language.Russian {
		t.Errorf("Tag(fr) = %v, want default %v", m.Tag("fr"), language.Russian)
	}
}
