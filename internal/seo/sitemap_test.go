// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"encoding/xml"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

func TestNewSitemapBuilder_TrimsSlash(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com/")
	if builder.siteURL != "https://example.com" {
		t.Errorf("siteURL = %q, want %q", builder.siteURL, "https://example.com")
	}
	if len(builder.urls) != 0 {
		t.Errorf("urls length = %d, want 0", len(builder.urls))
	}
}

func TestSitemapBuilderAddHomepage(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.AddHomepage()

	if len(builder.urls) != 1 {
		t.Fatalf("urls length = %d, want 1", len(builder.urls))
	}
	url := builder.urls[0]
	if url.Loc != "https://example.com/" {
		t.Errorf("Loc = %q, want %q", url.Loc, "https://example.com/")
	}
	if url.Priority != "1.0" {
		t.Errorf("Priority = %q, want %q", url.Priority, "1.0")
	}
}

func TestSitemapBuilderAddPost(t *testing.T) {
	tests := []struct {
		name        string
		post        model.Post
		wantLastMod string
	}{
		{
			name:        "updated wins",
			post:        model.Post{ID: 7, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), UpdatedAt: time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)},
			wantLastMod: "2025-01-15T10:00:00Z",
		},
		{
			name:        "falls back to date",
			post:        model.Post{ID: 7, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			wantLastMod: "2024-01-01T00:00:00Z",
		},
		{
			name:        "no timestamps",
			post:        model.Post{ID: 7},
			wantLastMod: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			builder := NewSitemapBuilder("https://example.com")
			builder.AddPost(tt.post)

			url := builder.urls[0]
			if url.Loc != "https://example.com/blog/7" {
				t.Errorf("Loc = %q, want %q", url.Loc, "https://example.com/blog/7")
			}
			if url.LastMod != tt.wantLastMod {
				t.Errorf("LastMod = %q, want %q", url.LastMod, tt.wantLastMod)
			}
		})
	}
}

func TestSitemapBuilderAddPortfolioLastMod(t *testing.T) {
	builder := NewSitemapBuilder("https://example.com")
	builder.AddStatic("/portfolio")

	builder.AddPortfolioLastMod(nil)
	if builder.urls[0].LastMod != "" {
		t.Errorf("empty portfolio should leave LastMod unset, got %q", builder.urls[0].LastMod)
	}

	builder.AddPortfolioLastMod([]model.PortfolioItem{
		{ID: 1, Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{ID: 2, UpdatedAt: time.Date(2025, 5, 2, 8, 30, 0, 0, time.UTC)},
	})
	if got := builder.urls[0].LastMod; got != "2025-05-02T08:30:00Z" {
		t.Errorf("LastMod = %q, want newest item change", got)
	}
	if builder.urls[0].ChangeFreq != ChangeFreqWeekly {
		t.Errorf("ChangeFreq = %q, want %q", builder.urls[0].ChangeFreq, ChangeFreqWeekly)
	}
}

func TestGenerateSitemap(t *testing.T) {
	posts := []model.Post{{ID: 1}, {ID: 2}}
	out, err := GenerateSitemap("https://example.com", posts, nil)
	if err != nil {
		t.Fatalf("GenerateSitemap() error: %v", err)
	}

	s := string(out)
	if !strings.HasPrefix(s, xml.Header) {
		t.Error("sitemap should start with the XML header")
	}
	if !strings.Contains(s, `xmlns="`+XMLNamespace+`"`) {
		t.Error("sitemap should declare the sitemap namespace")
	}

	var parsed Sitemap
	if err := xml.Unmarshal(out[len(xml.Header):], &parsed); err != nil {
		t.Fatalf("sitemap is not valid XML: %v", err)
	}
	// homepage + static sections + posts
	if want := 1 + len(StaticPages) + len(posts); len(parsed.URLs) != want {
		t.Errorf("URL count = %d, want %d", len(parsed.URLs), want)
	}
	for _, loc := range []string{"https://example.com/about", "https://example.com/blog/2"} {
		if !strings.Contains(s, "<loc>"+loc+"</loc>") {
			t.Errorf("sitemap missing %s", loc)
		}
	}
}
