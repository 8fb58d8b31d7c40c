// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
)

// maxPageSize caps the pageSize query parameter.
const maxPageSize = 100

// listQuery reads category, search, sort, page and pageSize. It writes a
// 400 and returns false for an unknown sort key.
func (h *Handler) listQuery(w http.ResponseWriter, r *http.Request) (content.Query, bool) {
	q := r.URL.Query()
	sort, ok := content.ParseSortKey(q.Get("sort"))
	if !ok {
		WriteBadRequest(w, "Invalid sort key", map[string]string{"sort": "unknown sort key"})
		return content.Query{}, false
	}
	return content.Query{
		Category: q.Get("category"),
		Search:   strings.TrimSpace(q.Get("search")),
		Sort:     sort,
		Page:     queryInt(r, "page", 1),
		PageSize: min(queryInt(r, "pageSize", h.PageSize), maxPageSize),
	}, true
}

func pageMeta[T any](res content.Result[T]) *Meta {
	return &Meta{
		Total:    res.Total,
		Page:     res.Page,
		PageSize: res.PageSize,
		Pages:    res.TotalPages,
	}
}

// CategoriesResponse lists the logical categories of both collections.
type CategoriesResponse struct {
	Posts     []string `json:"posts"`
	Portfolio []string `json:"portfolio"`
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, CategoriesResponse{
		Posts:     content.PostCategories.Names(content.PostCategoryOrder...),
		Portfolio: content.PortfolioCategories.Names(content.PortfolioCategoryOrder...),
	}, nil)
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q, ok := h.listQuery(w, r)
	if !ok {
		return
	}
	lang := middleware.GetLanguage(r)

	posts, err := h.Content.Posts(r.Context(), lang)
	if err != nil {
		h.writeBackendError(w, r, err, "list posts")
		return
	}

	res := h.posts.WithLanguage(h.Languages.Tag(lang)).Apply(posts, q)
	WriteSuccess(w, res.Items, pageMeta(res))
}

// GetPost handles GET /api/posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "post")
	if !ok {
		return
	}
	post, err := h.Content.PostDetail(r.Context(), id, middleware.GetLanguage(r))
	if err != nil {
		h.writeBackendError(w, r, err, "get post")
		return
	}
	WriteSuccess(w, post, nil)
}

// ListComments handles GET /api/posts/{id}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "post")
	if !ok {
		return
	}
	comments, err := h.Provider.Client().For(nil, middleware.GetLanguage(r)).ListComments(r.Context(), id)
	if err != nil {
		h.writeBackendError(w, r, err, "list comments")
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	WriteSuccess(w, comments, &Meta{Total: len(comments)})
}

// CommentRequest is the body of a new comment.
type CommentRequest struct {
	Content string `json:"content"`
}

// CreateComment handles POST /api/posts/{id}/comments.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "post")
	if !ok {
		return
	}
	var req CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validateComment(req.Content); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	c, err := h.visitorAPI(r).CreateComment(r.Context(), model.CommentInput{
		PostID:  id,
		Content: strings.TrimSpace(req.Content),
	})
	if err != nil {
		h.writeBackendError(w, r, err, "create comment")
		return
	}
	WriteCreated(w, c)
}

// DeleteComment handles DELETE /api/comments/{id}. The backend decides
// whether the caller may delete it.
func (h *Handler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "comment")
	if !ok {
		return
	}
	if err := h.visitorAPI(r).DeleteComment(r.Context(), id); err != nil {
		h.writeBackendError(w, r, err, "delete comment")
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryContent, "Comment deleted", map[string]any{"comment_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// PortfolioPage is the visible part of the infinite-scroll portfolio.
type PortfolioPage struct {
	Items  []model.PortfolioItem `json:"items"`
	Window content.Window        `json:"window"`
}

// ListPortfolio handles GET /api/portfolio. The filter comes from the
// query when given, otherwise from the visitor's stored window; changing
// it resets the window to the first page.
func (h *Handler) ListPortfolio(w http.ResponseWriter, r *http.Request) {
	store := h.prefsStore(r)
	win := store.PortfolioWindow(r.Context(), h.Window)

	q := r.URL.Query()
	if q.Has("category") || q.Has("search") || q.Has("sort") {
		sort, ok := content.ParseSortKey(q.Get("sort"))
		if !ok {
			WriteBadRequest(w, "Invalid sort key", map[string]string{"sort": "unknown sort key"})
			return
		}
		win.SetFilter(q.Get("category"), strings.TrimSpace(q.Get("search")), sort, h.Window)
	}

	h.writePortfolioWindow(w, r, win, false)
}

// MorePortfolio handles POST /api/portfolio/more by growing the window
// one batch.
func (h *Handler) MorePortfolio(w http.ResponseWriter, r *http.Request) {
	win := h.prefsStore(r).PortfolioWindow(r.Context(), h.Window)
	h.writePortfolioWindow(w, r, win, true)
}

func (h *Handler) writePortfolioWindow(w http.ResponseWriter, r *http.Request, win content.Window, grow bool) {
	lang := middleware.GetLanguage(r)
	items, err := h.Content.Portfolio(r.Context(), lang)
	if err != nil {
		h.writeBackendError(w, r, err, "list portfolio")
		return
	}

	derived := h.portfolio.WithLanguage(h.Languages.Tag(lang)).Derive(items, win.Category, win.Search, win.Sort)
	if grow {
		win.Grow(h.Window, len(derived))
	}
	if err := h.prefsStore(r).SetPortfolioWindow(r.Context(), win); err != nil {
		h.Logger.Warn("failed to store portfolio window", "error", err)
	}

	visible := content.Visible(win, derived)
	WriteSuccess(w, PortfolioPage{Items: visible, Window: win}, &Meta{
		Total:   len(derived),
		HasMore: win.HasMore(len(derived)),
	})
}

// GetPortfolioItem handles GET /api/portfolio/{id}.
func (h *Handler) GetPortfolioItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "portfolio item")
	if !ok {
		return
	}
	it, err := h.Provider.Client().For(nil, middleware.GetLanguage(r)).GetPortfolioItem(r.Context(), id)
	if err != nil {
		h.writeBackendError(w, r, err, "get portfolio item")
		return
	}
	WriteSuccess(w, it, nil)
}
