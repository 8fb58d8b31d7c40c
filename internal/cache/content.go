// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// Key prefixes. Lists are cached per language because the backend fills
// the localized fields from Accept-Language.
const (
	prefixPosts     = "posts:"
	prefixPost      = "post:"
	prefixPortfolio = "portfolio:"
)

// ContentCache caches the public post and portfolio collections.
type ContentCache struct {
	backend   Cacher
	posts     *TypedCache[[]model.Post]
	post      *TypedCache[model.Post]
	portfolio *TypedCache[[]model.PortfolioItem]
	logger    *slog.Logger
}

// NewContentCache wraps c. ttl bounds how stale a list may be when an
// edit bypassed this site.
func NewContentCache(c Cacher, ttl time.Duration, logger *slog.Logger) *ContentCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentCache{
		backend:   c,
		posts:     NewTypedCache[[]model.Post](c, ttl),
		post:      NewTypedCache[model.Post](c, ttl),
		portfolio: NewTypedCache[[]model.PortfolioItem](c, ttl),
		logger:    logger,
	}
}

// Posts returns the post list for lang, loading it on a miss.
func (cc *ContentCache) Posts(ctx context.Context, lang string, load func(context.Context) ([]model.Post, error)) ([]model.Post, error) {
	return cc.posts.GetOrSet(ctx, prefixPosts+lang, load)
}

// Post returns one post for lang, loading it on a miss.
func (cc *ContentCache) Post(ctx context.Context, id int64, lang string, load func(context.Context) (model.Post, error)) (model.Post, error) {
	return cc.post.GetOrSet(ctx, postKey(id, lang), load)
}

// Portfolio returns the portfolio list for lang, loading it on a miss.
func (cc *ContentCache) Portfolio(ctx context.Context, lang string, load func(context.Context) ([]model.PortfolioItem, error)) ([]model.PortfolioItem, error) {
	return cc.portfolio.GetOrSet(ctx, prefixPortfolio+lang, load)
}

// StorePosts replaces the cached post list for lang.
func (cc *ContentCache) StorePosts(ctx context.Context, lang string, posts []model.Post) error {
	return cc.posts.Set(ctx, prefixPosts+lang, posts)
}

// StorePortfolio replaces the cached portfolio list for lang.
func (cc *ContentCache) StorePortfolio(ctx context.Context, lang string, items []model.PortfolioItem) error {
	return cc.portfolio.Set(ctx, prefixPortfolio+lang, items)
}

// InvalidatePosts drops every cached post list and post.
func (cc *ContentCache) InvalidatePosts(ctx context.Context) {
	cc.dropPrefix(ctx, prefixPosts)
	cc.dropPrefix(ctx, prefixPost)
}

// InvalidatePortfolio drops every cached portfolio list.
func (cc *ContentCache) InvalidatePortfolio(ctx context.Context) {
	cc.dropPrefix(ctx, prefixPortfolio)
}

// Clear drops everything.
func (cc *ContentCache) Clear(ctx context.Context) error {
	return cc.backend.Clear(ctx)
}

// Stats reports backend statistics when available.
func (cc *ContentCache) Stats() (Stats, bool) {
	sp, ok := cc.backend.(StatsProvider)
	if !ok {
		return Stats{}, false
	}
	return sp.Stats(), true
}

func (cc *ContentCache) dropPrefix(ctx context.Context, prefix string) {
	if err := cc.backend.DeleteByPrefix(ctx, prefix); err != nil {
		cc.logger.Error("cache invalidation failed", "prefix", prefix, "error", err)
	}
}

func postKey(id int64, lang string) string {
	return prefixPost + strconv.FormatInt(id, 10) + ":" + lang
}
