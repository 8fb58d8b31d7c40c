// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"

	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/markup"
	"github.com/olegiv/folio-go/internal/model"
)

// PostDetail is a post with its Markdown rendered.
type PostDetail struct {
	model.Post
	HTML          template.HTML `json:"html"`
	LocalizedHTML template.HTML `json:"localizedHtml,omitempty"`
}

// ContentService reads posts and portfolio items through the content cache
// and forwards edits to the backend.
//
// Reads always use an anonymous API so nothing tied to a visitor ends up in
// the shared cache. Writes use the caller's API and invalidate the cache.
type ContentService struct {
	client   *backend.Client
	cache    *cache.ContentCache
	renderer *markup.Renderer
	logger   *slog.Logger
}

// NewContentService creates a ContentService.
func NewContentService(client *backend.Client, cc *cache.ContentCache, renderer *markup.Renderer, logger *slog.Logger) *ContentService {
	if logger == nil {
		logger = slog.Default()
	}
	if renderer == nil {
		renderer = markup.New()
	}
	return &ContentService{
		client:   client,
		cache:    cc,
		renderer: renderer,
		logger:   logger,
	}
}

// Posts returns every post for lang. Missing excerpts are derived from the
// content.
func (s *ContentService) Posts(ctx context.Context, lang string) ([]model.Post, error) {
	return s.cache.Posts(ctx, lang, func(ctx context.Context) ([]model.Post, error) {
		return s.loadPosts(ctx, lang)
	})
}

func (s *ContentService) loadPosts(ctx context.Context, lang string) ([]model.Post, error) {
	posts, err := s.client.For(nil, lang).ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		s.fillExcerpt(&posts[i])
	}
	return posts, nil
}

// Post returns one post for lang.
func (s *ContentService) Post(ctx context.Context, id int64, lang string) (model.Post, error) {
	return s.cache.Post(ctx, id, lang, func(ctx context.Context) (model.Post, error) {
		p, err := s.client.For(nil, lang).GetPost(ctx, id)
		if err != nil {
			return model.Post{}, err
		}
		s.fillExcerpt(p)
		return *p, nil
	})
}

// PostDetail returns one post with its content rendered to sanitized HTML.
func (s *ContentService) PostDetail(ctx context.Context, id int64, lang string) (*PostDetail, error) {
	p, err := s.Post(ctx, id, lang)
	if err != nil {
		return nil, err
	}

	d := &PostDetail{Post: p}
	if d.HTML, err = s.renderer.HTML(p.Content); err != nil {
		return nil, fmt.Errorf("rendering post %d: %w", id, err)
	}
	if p.ContentLocalized != "" {
		if d.LocalizedHTML, err = s.renderer.HTML(p.ContentLocalized); err != nil {
			return nil, fmt.Errorf("rendering post %d: %w", id, err)
		}
	}
	return d, nil
}

// Portfolio returns every portfolio item for lang.
func (s *ContentService) Portfolio(ctx context.Context, lang string) ([]model.PortfolioItem, error) {
	return s.cache.Portfolio(ctx, lang, func(ctx context.Context) ([]model.PortfolioItem, error) {
		return s.client.For(nil, lang).ListPortfolio(ctx)
	})
}

// CreatePost stores a post as the caller.
func (s *ContentService) CreatePost(ctx context.Context, api *backend.API, in model.PostInput) (*model.Post, error) {
	p, err := api.CreatePost(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePosts(ctx)
	return p, nil
}

// UpdatePost replaces a post as the caller.
func (s *ContentService) UpdatePost(ctx context.Context, api *backend.API, id int64, in model.PostInput) (*model.Post, error) {
	p, err := api.UpdatePost(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePosts(ctx)
	return p, nil
}

// DeletePost removes a post as the caller.
func (s *ContentService) DeletePost(ctx context.Context, api *backend.API, id int64) error {
	if err := api.DeletePost(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePosts(ctx)
	return nil
}

// CreatePortfolioItem stores a portfolio item as the caller.
func (s *ContentService) CreatePortfolioItem(ctx context.Context, api *backend.API, in model.PortfolioInput) (*model.PortfolioItem, error) {
	it, err := api.CreatePortfolioItem(ctx, in)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePortfolio(ctx)
	return it, nil
}

// UpdatePortfolioItem replaces a portfolio item as the caller.
func (s *ContentService) UpdatePortfolioItem(ctx context.Context, api *backend.API, id int64, in model.PortfolioInput) (*model.PortfolioItem, error) {
	it, err := api.UpdatePortfolioItem(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidatePortfolio(ctx)
	return it, nil
}

// DeletePortfolioItem removes a portfolio item as the caller.
func (s *ContentService) DeletePortfolioItem(ctx context.Context, api *backend.API, id int64) error {
	if err := api.DeletePortfolioItem(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidatePortfolio(ctx)
	return nil
}

// Warm reloads the post and portfolio lists for every language into the
// cache. It keeps going after a failure and returns the first error.
func (s *ContentService) Warm(ctx context.Context, langs []string) error {
	var firstErr error
	note := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, lang := range langs {
		posts, err := s.loadPosts(ctx, lang)
		if err != nil {
			s.logger.Warn("cache warm failed", "kind", "posts", "lang", lang, "error", err)
			note(err)
		} else {
			note(s.cache.StorePosts(ctx, lang, posts))
		}

		items, err := s.client.For(nil, lang).ListPortfolio(ctx)
		if err != nil {
			s.logger.Warn("cache warm failed", "kind", "portfolio", "lang", lang, "error", err)
			note(err)
		} else {
			note(s.cache.StorePortfolio(ctx, lang, items))
		}
	}
	return firstErr
}

// Invalidate drops every cached list and post.
func (s *ContentService) Invalidate(ctx context.Context) {
	s.cache.InvalidatePosts(ctx)
	s.cache.InvalidatePortfolio(ctx)
}

// CacheStats reports content cache statistics when the backend exposes them.
func (s *ContentService) CacheStats() (cache.Stats, bool) {
	return s.cache.Stats()
}

func (s *ContentService) fillExcerpt(p *model.Post) {
	if p.Excerpt == "" && p.Content != "" {
		p.Excerpt = s.renderer.Excerpt(p.Content, markup.DefaultExcerptLength)
	}
	if p.ExcerptLocalized == "" && p.ContentLocalized != "" {
		p.ExcerptLocalized = s.renderer.Excerpt(p.ContentLocalized, markup.DefaultExcerptLength)
	}
}
