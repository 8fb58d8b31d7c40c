// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/ai"
	"github.com/olegiv/folio-go/internal/imaging"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/scheduler"
	"github.com/olegiv/folio-go/internal/service"
)

// AdminListPosts handles GET /api/admin/posts. It reads through the
// visitor's credentials so the list is never served from the shared cache.
func (h *Handler) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	q, ok := h.listQuery(w, r)
	if !ok {
		return
	}
	posts, err := h.visitorAPI(r).ListPosts(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err, "admin list posts")
		return
	}
	res := h.posts.WithLanguage(h.Languages.Tag(middleware.GetLanguage(r))).Apply(posts, q)
	WriteSuccess(w, res.Items, pageMeta(res))
}

// AdminCreatePost handles POST /api/admin/posts.
func (h *Handler) AdminCreatePost(w http.ResponseWriter, r *http.Request) {
	var in model.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if fields := normalizePostInput(&in); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	post, err := h.Content.CreatePost(r.Context(), h.visitorAPI(r), in)
	if err != nil {
		h.writeBackendError(w, r, err, "create post")
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryContent, "Post created", map[string]any{"post_id": post.ID, "title": post.Title})
	WriteCreated(w, post)
}

// AdminUpdatePost handles PUT /api/admin/posts/{id}.
func (h *Handler) AdminUpdatePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "post")
	if !ok {
		return
	}
	var in model.PostInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if fields := normalizePostInput(&in); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	post, err := h.Content.UpdatePost(r.Context(), h.visitorAPI(r), id, in)
	if err != nil {
		h.writeBackendError(w, r, err, "update post")
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryContent, "Post updated", map[string]any{"post_id": id})
	WriteSuccess(w, post, nil)
}

// AdminDeletePost handles DELETE /api/admin/posts/{id}.
func (h *Handler) AdminDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "post")
	if !ok {
		return
	}
	if err := h.Content.DeletePost(r.Context(), h.visitorAPI(r), id); err != nil {
		h.writeBackendError(w, r, err, "delete post")
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryContent, "Post deleted", map[string]any{"post_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// AdminListPortfolio handles GET /api/admin/portfolio.
func (h *Handler) AdminListPortfolio(w http.ResponseWriter, r *http.Request) {
	q, ok := h.listQuery(w, r)
	if !ok {
		return
	}
	items, err := h.visitorAPI(r).ListPortfolio(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err, "admin list portfolio")
		return
	}
	res := h.portfolio.WithLanguage(h.Languages.Tag(middleware.GetLanguage(r))).Apply(items, q)
	WriteSuccess(w, res.Items, pageMeta(res))
}

// AdminCreatePortfolioItem handles POST /api/admin/portfolio.
func (h *Handler) AdminCreatePortfolioItem(w http.ResponseWriter, r *http.Request) {
	var in model.PortfolioInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if fields := normalizePortfolioInput(&in); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	it, err := h.Content.CreatePortfolioItem(r.Context(), h.visitorAPI(r), in)
	if err != nil {
		h.writeBackendError(w, r, err, "create portfolio item")
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryContent, "Portfolio item created", map[string]any{"portfolio_id": it.ID, "title": it.Title})
	WriteCreated(w, it)
}

// AdminUpdatePortfolioItem handles PUT /api/admin/portfolio/{id}.
func (h *Handler) AdminUpdatePortfolioItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "portfolio item")
	if !ok {
		return
	}
	var in model.PortfolioInput
	if !decodeJSON(w, r, &in) {
		return
	}
	if fields := normalizePortfolioInput(&in); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	it, err := h.Content.UpdatePortfolioItem(r.Context(), h.visitorAPI(r), id, in)
	if err != nil {
		h.writeBackendError(w, r, err, "update portfolio item")
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryContent, "Portfolio item updated", map[string]any{"portfolio_id": id})
	WriteSuccess(w, it, nil)
}

// AdminDeletePortfolioItem handles DELETE /api/admin/portfolio/{id}.
func (h *Handler) AdminDeletePortfolioItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "portfolio item")
	if !ok {
		return
	}
	if err := h.Content.DeletePortfolioItem(r.Context(), h.visitorAPI(r), id); err != nil {
		h.writeBackendError(w, r, err, "delete portfolio item")
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryContent, "Portfolio item deleted", map[string]any{"portfolio_id": id})
	w.WriteHeader(http.StatusNoContent)
}

// writeMediaError maps upload failures to responses.
func (h *Handler) writeMediaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrMediaUnavailable):
		WriteUnavailable(w, "Image uploads are not configured")
	case errors.Is(err, service.ErrFileTooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Image is larger than 20MB", nil)
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		WriteError(w, http.StatusUnsupportedMediaType, "unsupported_format", "Only JPEG, PNG, GIF and WebP images are accepted", nil)
	case errors.Is(err, imaging.ErrImageTooLarge):
		WriteValidationError(w, map[string]string{"file": "Image dimensions are too large"})
	default:
		h.Logger.Error("image upload failed", "error", err)
		WriteError(w, http.StatusBadGateway, "upload_failed", "The image could not be stored", nil)
	}
}

// UploadMedia handles POST /api/admin/media with a multipart "file" field.
func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	if !h.Media.Enabled() {
		WriteUnavailable(w, "Image uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(service.MaxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeMediaError(w, service.ErrFileTooLarge)
			return
		}
		WriteBadRequest(w, "Invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		WriteValidationError(w, map[string]string{"file": "File is required"})
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > service.MaxUploadSize {
		h.writeMediaError(w, service.ErrFileTooLarge)
		return
	}

	up, err := h.Media.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.writeMediaError(w, err)
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryMedia, "Image uploaded", map[string]any{
		"public_id": up.PublicID,
		"filename":  header.Filename,
		"size":      up.Size,
	})
	WriteCreated(w, up)
}

// GenerateRequest is the body of the AI endpoints. Text is the post body
// for titles and the title for content.
type GenerateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// GenerateResponse carries the drafted text.
type GenerateResponse struct {
	Text string `json:"text"`
}

// GenerateTitle handles POST /api/admin/ai/title.
func (h *Handler) GenerateTitle(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "title")
}

// GenerateContent handles POST /api/admin/ai/content.
func (h *Handler) GenerateContent(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "content")
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, what string) {
	if h.Generator == nil {
		WriteUnavailable(w, "AI drafting is not configured")
		return
	}
	var req GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		WriteValidationError(w, map[string]string{"text": "Text is required"})
		return
	}
	lang := middleware.GetLanguage(r)
	if req.Language != "" && h.Languages.IsSupported(req.Language) {
		lang = req.Language
	}

	var (
		text string
		err  error
	)
	if what == "title" {
		text, err = h.Generator.GenerateTitle(r.Context(), req.Text, lang)
	} else {
		text, err = h.Generator.GenerateContent(r.Context(), req.Text, lang)
	}
	switch {
	case err == nil:
		WriteSuccess(w, GenerateResponse{Text: text}, nil)
	case errors.Is(err, ai.ErrNotConfigured):
		WriteUnavailable(w, "AI drafting is not configured")
	case errors.Is(err, ai.ErrEmptyInput):
		WriteValidationError(w, map[string]string{"text": "Text is required"})
	default:
		h.Logger.Error("ai generation failed", "kind", what, "error", err)
		WriteError(w, http.StatusBadGateway, "ai_failed", "The draft could not be generated", nil)
	}
}

// ListEvents handles GET /api/admin/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	if h.Events == nil {
		WriteUnavailable(w, "Event log is not available")
		return
	}
	q := r.URL.Query()
	page, err := h.Events.ListEvents(r.Context(), service.EventFilter{
		Category: q.Get("category"),
		Level:    q.Get("level"),
		Page:     queryInt(r, "page", 1),
		PerPage:  queryInt(r, "perPage", service.DefaultEventsPerPage),
	})
	if err != nil {
		h.Logger.Error("failed to list events", "error", err)
		WriteInternalError(w, "Failed to list events")
		return
	}
	WriteSuccess(w, page.Events, &Meta{
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PerPage,
		Pages:    page.TotalPages,
	})
}

// ListJobs handles GET /api/admin/jobs.
func (h *Handler) ListJobs(w http.ResponseWriter, _ *http.Request) {
	if h.Jobs == nil {
		WriteSuccess(w, []scheduler.JobInfo{}, &Meta{})
		return
	}
	jobs := h.Jobs.List()
	WriteSuccess(w, jobs, &Meta{Total: len(jobs)})
}

// TriggerJob handles POST /api/admin/jobs/{name}/run.
func (h *Handler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	if h.Jobs == nil {
		WriteNotFound(w, "Job not found")
		return
	}
	name := chi.URLParam(r, "name")
	err := h.Jobs.TriggerNow(r.Context(), name)
	switch {
	case err == nil:
		h.logEvent(r, model.EventLevelInfo, model.EventCategorySystem, "Job triggered", map[string]any{"job": name})
		WriteSuccess(w, h.jobInfo(name), nil)
	case errors.Is(err, scheduler.ErrJobNotFound):
		WriteNotFound(w, "Job not found")
	case errors.Is(err, scheduler.ErrTriggerLimit):
		WriteError(w, http.StatusTooManyRequests, "rate_limited", "Job was triggered recently, try again later", nil)
	case errors.Is(err, scheduler.ErrJobRunning):
		WriteError(w, http.StatusConflict, "job_running", "Job is already running", nil)
	default:
		h.logEvent(r, model.EventLevelError, model.EventCategorySystem, "Triggered job failed", map[string]any{"job": name, "error": err.Error()})
		WriteInternalError(w, "Job failed: "+err.Error())
	}
}

func (h *Handler) jobInfo(name string) scheduler.JobInfo {
	for _, j := range h.Jobs.List() {
		if j.Name == name {
			return j
		}
	}
	return scheduler.JobInfo{Name: name}
}

// CacheStats handles GET /api/admin/cache.
func (h *Handler) CacheStats(w http.ResponseWriter, _ *http.Request) {
	stats, ok := h.Content.CacheStats()
	if !ok {
		WriteUnavailable(w, "Content cache is disabled")
		return
	}
	WriteSuccess(w, stats, nil)
}

// ClearCache handles DELETE /api/admin/cache.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.Content.Invalidate(r.Context())
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryCache, "Content cache cleared", nil)
	w.WriteHeader(http.StatusNoContent)
}
