// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/olegiv/folio-go/internal/model"
)

// ListPosts returns every post. Filtering happens locally.
func (a *API) ListPosts(ctx context.Context) ([]model.Post, error) {
	var out []model.Post
	if err := a.do(ctx, request{method: http.MethodGet, path: "/content/posts", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPost returns one post.
func (a *API) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var out model.Post
	if err := a.do(ctx, request{method: http.MethodGet, path: postPath(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost stores a new post.
func (a *API) CreatePost(ctx context.Context, in model.PostInput) (*model.Post, error) {
	var out model.Post
	if err := a.do(ctx, request{method: http.MethodPost, path: "/content/posts", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePost replaces a post.
func (a *API) UpdatePost(ctx context.Context, id int64, in model.PostInput) (*model.Post, error) {
	var out model.Post
	if err := a.do(ctx, request{method: http.MethodPut, path: postPath(id), body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePost removes a post.
func (a *API) DeletePost(ctx context.Context, id int64) error {
	return a.do(ctx, request{method: http.MethodDelete, path: postPath(id)})
}

// ListPortfolio returns every portfolio item.
func (a *API) ListPortfolio(ctx context.Context) ([]model.PortfolioItem, error) {
	var out []model.PortfolioItem
	if err := a.do(ctx, request{method: http.MethodGet, path: "/content/portfolio", out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPortfolioItem returns one portfolio item.
func (a *API) GetPortfolioItem(ctx context.Context, id int64) (*model.PortfolioItem, error) {
	var out model.PortfolioItem
	if err := a.do(ctx, request{method: http.MethodGet, path: portfolioPath(id), out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePortfolioItem stores a new portfolio item.
func (a *API) CreatePortfolioItem(ctx context.Context, in model.PortfolioInput) (*model.PortfolioItem, error) {
	var out model.PortfolioItem
	if err := a.do(ctx, request{method: http.MethodPost, path: "/content/portfolio", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePortfolioItem replaces a portfolio item.
func (a *API) UpdatePortfolioItem(ctx context.Context, id int64, in model.PortfolioInput) (*model.PortfolioItem, error) {
	var out model.PortfolioItem
	if err := a.do(ctx, request{method: http.MethodPut, path: portfolioPath(id), body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeletePortfolioItem removes a portfolio item.
func (a *API) DeletePortfolioItem(ctx context.Context, id int64) error {
	return a.do(ctx, request{method: http.MethodDelete, path: portfolioPath(id)})
}

// ListComments returns the comments on a post, oldest first.
func (a *API) ListComments(ctx context.Context, postID int64) ([]model.Comment, error) {
	var out []model.Comment
	q := url.Values{}
	q.Set("postId", strconv.FormatInt(postID, 10))
	if err := a.do(ctx, request{method: http.MethodGet, path: "/comments", query: q, out: &out}); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateComment adds a comment as the current user.
func (a *API) CreateComment(ctx context.Context, in model.CommentInput) (*model.Comment, error) {
	var out model.Comment
	if err := a.do(ctx, request{method: http.MethodPost, path: "/comments", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteComment removes a comment.
func (a *API) DeleteComment(ctx context.Context, id int64) error {
	return a.do(ctx, request{method: http.MethodDelete, path: "/comments/" + strconv.FormatInt(id, 10)})
}

func postPath(id int64) string {
	return "/content/posts/" + strconv.FormatInt(id, 10)
}

func portfolioPath(id int64) string {
	return "/content/portfolio/" + strconv.FormatInt(id, 10)
}
