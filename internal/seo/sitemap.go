// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package seo builds the crawler-facing documents of the site: the
// sitemap and robots.txt.
package seo

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// XMLNamespace is the sitemap XML namespace.
const XMLNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// ChangeFreq represents the change frequency of a URL.
type ChangeFreq string

// Valid change frequency values.
const (
	ChangeFreqDaily   ChangeFreq = "daily"
	ChangeFreqWeekly  ChangeFreq = "weekly"
	ChangeFreqMonthly ChangeFreq = "monthly"
)

// SitemapURL represents a single URL entry in the sitemap.
type SitemapURL struct {
	Loc        string     `xml:"loc"`
	LastMod    string     `xml:"lastmod,omitempty"`
	ChangeFreq ChangeFreq `xml:"changefreq,omitempty"`
	Priority   string     `xml:"priority,omitempty"`
}

// Sitemap represents the complete sitemap document.
type Sitemap struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// StaticPages are the fixed front-end sections listed in every sitemap.
var StaticPages = []string{"/about", "/resume", "/portfolio", "/blog", "/contact"}

// SitemapBuilder builds sitemap XML from the site's content.
type SitemapBuilder struct {
	siteURL string
	urls    []SitemapURL
}

// NewSitemapBuilder creates a new sitemap builder.
func NewSitemapBuilder(siteURL string) *SitemapBuilder {
	return &SitemapBuilder{
		siteURL: strings.TrimRight(siteURL, "/"),
		urls:    make([]SitemapURL, 0),
	}
}

// AddHomepage adds the homepage to the sitemap.
func (b *SitemapBuilder) AddHomepage() {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/",
		ChangeFreq: ChangeFreqDaily,
		Priority:   "1.0",
	})
}

// AddStatic adds a fixed section such as /about.
func (b *SitemapBuilder) AddStatic(path string) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + path,
		ChangeFreq: ChangeFreqMonthly,
		Priority:   "0.7",
	})
}

// AddPost adds a blog post page.
func (b *SitemapBuilder) AddPost(p model.Post) {
	b.urls = append(b.urls, SitemapURL{
		Loc:        b.siteURL + "/blog/" + strconv.FormatInt(p.ID, 10),
		LastMod:    lastMod(p.UpdatedAt, p.Date),
		ChangeFreq: ChangeFreqWeekly,
		Priority:   "0.8",
	})
}

// AddPosts adds every post.
func (b *SitemapBuilder) AddPosts(posts []model.Post) {
	for _, p := range posts {
		b.AddPost(p)
	}
}

// AddPortfolioLastMod stamps the /portfolio entry with the newest item
// change. Portfolio items have no page of their own.
func (b *SitemapBuilder) AddPortfolioLastMod(items []model.PortfolioItem) {
	var newest time.Time
	for _, it := range items {
		if t := it.UpdatedAt; t.After(newest) {
			newest = t
		}
		if it.Date.After(newest) {
			newest = it.Date
		}
	}
	if newest.IsZero() {
		return
	}
	loc := b.siteURL + "/portfolio"
	for i := range b.urls {
		if b.urls[i].Loc == loc {
			b.urls[i].LastMod = newest.UTC().Format(time.RFC3339)
			b.urls[i].ChangeFreq = ChangeFreqWeekly
		}
	}
}

// Build generates the sitemap XML.
func (b *SitemapBuilder) Build() ([]byte, error) {
	sitemap := Sitemap{
		XMLNS: XMLNamespace,
		URLs:  b.urls,
	}

	output := []byte(xml.Header)
	xmlBytes, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return append(output, xmlBytes...), nil
}

// GenerateSitemap builds the sitemap for the given content.
func GenerateSitemap(siteURL string, posts []model.Post, portfolio []model.PortfolioItem) ([]byte, error) {
	builder := NewSitemapBuilder(siteURL)
	builder.AddHomepage()
	for _, path := range StaticPages {
		builder.AddStatic(path)
	}
	builder.AddPortfolioLastMod(portfolio)
	builder.AddPosts(posts)
	return builder.Build()
}

func lastMod(updated, date time.Time) string {
	if updated.IsZero() {
		updated = date
	}
	if updated.IsZero() {
		return ""
	}
	return updated.UTC().Format(time.RFC3339)
}
