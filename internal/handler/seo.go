// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/seo"
)

// ContentLister returns the published post and portfolio lists.
type ContentLister interface {
	Posts(ctx context.Context, lang string) ([]model.Post, error)
	Portfolio(ctx context.Context, lang string) ([]model.PortfolioItem, error)
}

// SEOHandler serves /robots.txt and /sitemap.xml.
type SEOHandler struct {
	content     ContentLister
	siteURL     string
	lang        string
	disallowAll bool
}

// NewSEOHandler creates the handler. lang selects the content lists the
// sitemap is built from. disallowAll keeps every crawler out, for staging.
func NewSEOHandler(content ContentLister, siteURL, lang string, disallowAll bool) *SEOHandler {
	return &SEOHandler{content: content, siteURL: siteURL, lang: lang, disallowAll: disallowAll}
}

// Robots handles GET /robots.txt.
func (h *SEOHandler) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write([]byte(seo.BuildRobots(seo.RobotsConfig{
		SiteURL:     h.siteURL,
		DisallowAll: h.disallowAll,
	})))
}

// Sitemap handles GET /sitemap.xml. A backend outage yields a sitemap of
// the fixed sections only.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.Posts(r.Context(), h.lang)
	if err != nil {
		slog.Warn("sitemap: listing posts failed", "error", err)
	}
	portfolio, err := h.content.Portfolio(r.Context(), h.lang)
	if err != nil {
		slog.Warn("sitemap: listing portfolio failed", "error", err)
	}

	out, err := seo.GenerateSitemap(h.siteURL, posts, portfolio)
	if err != nil {
		slog.Error("failed to build sitemap", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	_, _ = w.Write(out)
}
