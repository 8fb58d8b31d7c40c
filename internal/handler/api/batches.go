// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/imaging"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/prefs"
	"github.com/olegiv/folio-go/internal/service"
)

// maxBatchBody allows a base64 encoded image of MaxUploadSize plus the
// text fields.
const maxBatchBody = service.MaxUploadSize/3*4 + 1<<20

// BatchRequest queues one drafted post or portfolio item. Image is base64
// in JSON.
type BatchRequest struct {
	Title          string    `json:"title"`
	TitleLocalized string    `json:"titleLocalized,omitempty"`
	Body           string    `json:"body,omitempty"`
	BodyLocalized  string    `json:"bodyLocalized,omitempty"`
	CategoryKey    string    `json:"categoryKey"`
	Date           time.Time `json:"date,omitzero"`
	ImageName      string    `json:"imageName,omitempty"`
	Image          []byte    `json:"image,omitempty"`
}

// BatchItemView is a queued item without its image bytes.
type BatchItemView struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	TitleLocalized string    `json:"titleLocalized,omitempty"`
	Body           string    `json:"body,omitempty"`
	BodyLocalized  string    `json:"bodyLocalized,omitempty"`
	CategoryKey    string    `json:"categoryKey"`
	Date           time.Time `json:"date"`
	ImageName      string    `json:"imageName,omitempty"`
	ImageSize      int       `json:"imageSize"`
	QueuedAt       time.Time `json:"queuedAt"`
}

func viewBatchItem(it prefs.BatchItem) BatchItemView {
	return BatchItemView{
		ID:             it.ID,
		Title:          it.Title,
		TitleLocalized: it.TitleLocalized,
		Body:           it.Body,
		BodyLocalized:  it.BodyLocalized,
		CategoryKey:    it.CategoryKey,
		Date:           it.Date,
		ImageName:      it.ImageName,
		ImageSize:      len(it.Image),
		QueuedAt:       it.QueuedAt,
	}
}

// batchKind reads {kind}, writing a 404 for unknown kinds.
func batchKind(w http.ResponseWriter, r *http.Request) (prefs.BatchKind, bool) {
	kind := prefs.BatchKind(chi.URLParam(r, "kind"))
	if !kind.Valid() {
		WriteNotFound(w, "Unknown batch")
		return "", false
	}
	return kind, true
}

func (h *Handler) writeBatch(w http.ResponseWriter, r *http.Request, kind prefs.BatchKind) {
	items, err := h.prefsStore(r).Batch(r.Context(), kind)
	if err != nil {
		h.Logger.Error("failed to read batch", "kind", kind, "error", err)
		WriteInternalError(w, "Failed to read batch")
		return
	}
	views := make([]BatchItemView, 0, len(items))
	for _, it := range items {
		views = append(views, viewBatchItem(it))
	}
	WriteSuccess(w, views, &Meta{Total: len(views)})
}

// GetBatch handles GET /api/admin/batches/{kind}.
func (h *Handler) GetBatch(w http.ResponseWriter, r *http.Request) {
	kind, ok := batchKind(w, r)
	if !ok {
		return
	}
	h.writeBatch(w, r, kind)
}

func validateBatchRequest(kind prefs.BatchKind, req *BatchRequest) map[string]string {
	req.Title = strings.TrimSpace(req.Title)
	req.TitleLocalized = strings.TrimSpace(req.TitleLocalized)
	req.CategoryKey = strings.TrimSpace(req.CategoryKey)

	errs := fieldErrors{}
	switch {
	case req.Title == "":
		errs.add("title", "Title is required")
	case utf8.RuneCountInString(req.Title) > maxTitleLength:
		errs.add("title", "Title must be at most 200 characters")
	}
	if kind == prefs.BatchPosts && strings.TrimSpace(req.Body) == "" {
		errs.add("body", "Content is required")
	}
	if kind == prefs.BatchPortfolio && len(req.Image) == 0 {
		errs.add("image", "Image is required")
	}
	if len(req.Image) > service.MaxUploadSize {
		errs.add("image", "Image is larger than 20MB")
	}
	return errs.orNil()
}

// EnqueueBatchItem handles POST /api/admin/batches/{kind}.
func (h *Handler) EnqueueBatchItem(w http.ResponseWriter, r *http.Request) {
	kind, ok := batchKind(w, r)
	if !ok {
		return
	}
	var req BatchRequest
	if !decodeJSONLimit(w, r, &req, maxBatchBody) {
		return
	}
	if fields := validateBatchRequest(kind, &req); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	item, err := h.prefsStore(r).Enqueue(r.Context(), kind, prefs.BatchItem{
		Title:          req.Title,
		TitleLocalized: req.TitleLocalized,
		Body:           req.Body,
		BodyLocalized:  req.BodyLocalized,
		CategoryKey:    req.CategoryKey,
		Date:           req.Date,
		ImageName:      req.ImageName,
		Image:          req.Image,
	})
	if err != nil {
		h.Logger.Error("failed to queue batch item", "kind", kind, "error", err)
		WriteInternalError(w, "Failed to queue item")
		return
	}
	WriteCreated(w, viewBatchItem(item))
}

// ClearBatch handles DELETE /api/admin/batches/{kind}.
func (h *Handler) ClearBatch(w http.ResponseWriter, r *http.Request) {
	kind, ok := batchKind(w, r)
	if !ok {
		return
	}
	if err := h.prefsStore(r).SetBatch(r.Context(), kind, nil); err != nil {
		h.Logger.Error("failed to clear batch", "kind", kind, "error", err)
		WriteInternalError(w, "Failed to clear batch")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveBatchItem handles DELETE /api/admin/batches/{kind}/{itemID}.
func (h *Handler) RemoveBatchItem(w http.ResponseWriter, r *http.Request) {
	kind, ok := batchKind(w, r)
	if !ok {
		return
	}
	err := h.prefsStore(r).Dequeue(r.Context(), kind, chi.URLParam(r, "itemID"))
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, prefs.ErrBatchItemMissing):
		WriteNotFound(w, "Batch item not found")
	default:
		h.Logger.Error("failed to remove batch item", "kind", kind, "error", err)
		WriteInternalError(w, "Failed to remove item")
	}
}

// PublishFailure names the item publishing stopped at.
type PublishFailure struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// PublishResult reports a batch publish. Items after a failure stay queued.
type PublishResult struct {
	Published []any           `json:"published"`
	Remaining int             `json:"remaining"`
	Failed    *PublishFailure `json:"failed,omitempty"`
}

// PublishBatch handles POST /api/admin/batches/{kind}/publish. Items are
// published in queue order: the image goes to the media host, then the
// post or portfolio item is created and the entry dequeued.
func (h *Handler) PublishBatch(w http.ResponseWriter, r *http.Request) {
	kind, ok := batchKind(w, r)
	if !ok {
		return
	}
	store := h.prefsStore(r)
	items, err := store.Batch(r.Context(), kind)
	if err != nil {
		h.Logger.Error("failed to read batch", "kind", kind, "error", err)
		WriteInternalError(w, "Failed to read batch")
		return
	}

	result := PublishResult{Published: []any{}}
	api := h.visitorAPI(r)
	for i, it := range items {
		created, err := h.publishItem(r, api, kind, it)
		if err == nil {
			err = store.Dequeue(r.Context(), kind, it.ID)
		}
		if err != nil {
			result.Failed = &PublishFailure{ID: it.ID, Title: it.Title, Message: publishMessage(err)}
			result.Remaining = len(items) - i
			h.logEvent(r, model.EventLevelWarning, model.EventCategoryContent, "Batch publish stopped", map[string]any{
				"kind":  string(kind),
				"item":  it.ID,
				"error": err.Error(),
			})
			break
		}
		result.Published = append(result.Published, created)
	}

	if len(result.Published) > 0 {
		h.logEvent(r, model.EventLevelInfo, model.EventCategoryContent, "Batch published", map[string]any{
			"kind":      string(kind),
			"published": len(result.Published),
		})
	}
	WriteSuccess(w, result, &Meta{Total: len(items)})
}

func (h *Handler) publishItem(r *http.Request, api *backend.API, kind prefs.BatchKind, it prefs.BatchItem) (any, error) {
	ctx := r.Context()
	var imageURL string
	if len(it.Image) > 0 {
		name := it.ImageName
		if name == "" {
			name = it.Title
		}
		up, err := h.Media.UploadBytes(ctx, name, it.Image)
		if err != nil {
			return nil, err
		}
		imageURL = up.URL
	}

	if kind == prefs.BatchPortfolio {
		in := model.PortfolioInput{
			Title:                it.Title,
			TitleLocalized:       it.TitleLocalized,
			Description:          it.Body,
			DescriptionLocalized: it.BodyLocalized,
			ImageURL:             imageURL,
			CategoryKey:          it.CategoryKey,
			Date:                 it.Date,
		}
		if fields := normalizePortfolioInput(&in); fields != nil {
			return nil, validationErr(fields)
		}
		return h.Content.CreatePortfolioItem(ctx, api, in)
	}

	in := model.PostInput{
		Title:            it.Title,
		TitleLocalized:   it.TitleLocalized,
		Content:          it.Body,
		ContentLocalized: it.BodyLocalized,
		ImageURL:         imageURL,
		CategoryKey:      it.CategoryKey,
		Date:             it.Date,
	}
	if fields := normalizePostInput(&in); fields != nil {
		return nil, validationErr(fields)
	}
	return h.Content.CreatePost(ctx, api, in)
}

// fieldError is a validation failure of a queued item.
type fieldError map[string]string

func validationErr(fields map[string]string) error { return fieldError(fields) }

func (f fieldError) Error() string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return fmt.Sprintf("invalid %s: %s", keys[0], f[keys[0]])
}

// publishMessage turns a publish failure into a message for the editor.
func publishMessage(err error) string {
	var fe fieldError
	switch {
	case errors.As(err, &fe):
		return fe.Error()
	case errors.Is(err, service.ErrMediaUnavailable):
		return "Image uploads are not configured"
	case errors.Is(err, service.ErrFileTooLarge):
		return "Image is larger than 20MB"
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return "Unsupported image format"
	case backend.IsTransport(err):
		return "The content service is unavailable"
	}
	if apiErr, ok := backend.AsAPIError(err); ok {
		return apiErr.Message
	}
	return "Publishing failed"
}
