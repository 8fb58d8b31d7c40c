// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the JSON API the single-page front end talks to.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/captcha"
	"github.com/olegiv/folio-go/internal/contact"
	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/i18n"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/prefs"
	"github.com/olegiv/folio-go/internal/scheduler"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/tokens"
	"github.com/olegiv/folio-go/internal/util"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// Generator drafts titles and post bodies.
type Generator interface {
	GenerateTitle(ctx context.Context, body, lang string) (string, error)
	GenerateContent(ctx context.Context, title, lang string) (string, error)
}

// Deps holds everything the API handlers use. Optional integrations are
// nil when not configured.
type Deps struct {
	Provider        *auth.Provider
	Content         *service.ContentService
	Media           *service.MediaService
	Events          *service.EventService
	Generator       Generator
	Contact         *contact.Relay
	Captcha         *captcha.Verifier
	Jobs            *scheduler.Registry
	Broker          *prefs.Broker
	Languages       *i18n.Matcher
	LoginProtection *middleware.LoginProtection
	ContactLimiter  *middleware.IPRateLimiter

	PageSize  int
	Window    content.WindowSizes
	PublicURL string
	Logger    *slog.Logger
}

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	Deps

	posts     *content.Pipeline[model.Post]
	portfolio *content.Pipeline[model.PortfolioItem]
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.PageSize <= 0 {
		d.PageSize = 6
	}
	if d.LoginProtection == nil {
		d.LoginProtection = middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())
	}
	if d.Window.FirstPage <= 0 {
		d.Window = content.WindowSizes{FirstPage: 12, Batch: 6}
	}
	lang := d.Languages.Tag(d.Languages.Default())
	return &Handler{
		Deps:      d,
		posts:     content.New[model.Post](content.PostAccessor{}, content.PostCategories, lang),
		portfolio: content.New[model.PortfolioItem](content.PortfolioAccessor{}, content.PortfolioCategories, lang),
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains pagination metadata.
type Meta struct {
	Total    int  `json:"total"`
	Page     int  `json:"page,omitempty"`
	PageSize int  `json:"pageSize,omitempty"`
	Pages    int  `json:"pages,omitempty"`
	HasMore  bool `json:"hasMore,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response in the same shape middleware uses.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	middleware.WriteAPIError(w, statusCode, code, message, details)
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// WriteUnavailable writes a 503 for an integration that is not configured.
func WriteUnavailable(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusServiceUnavailable, "not_configured", message, nil)
}

// writeBackendError maps a backend failure to a response. API errors keep
// their status; transport failures become 502.
func (h *Handler) writeBackendError(w http.ResponseWriter, r *http.Request, err error, what string) {
	if apiErr, ok := backend.AsAPIError(err); ok {
		code := "backend_error"
		switch apiErr.Status {
		case http.StatusNotFound:
			code = "not_found"
		case http.StatusUnauthorized:
			code = "unauthorized"
		case http.StatusForbidden:
			code = "forbidden"
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			code = "validation_error"
		}
		WriteError(w, apiErr.Status, code, apiErr.Message, nil)
		return
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	h.Logger.Error("backend unreachable", "operation", what, "path", r.URL.Path, "error", err)
	WriteError(w, http.StatusBadGateway, "backend_unavailable", "The content service is unavailable. Please try again later.", nil)
}

// decodeJSON reads a JSON body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	return decodeJSONLimit(w, r, v, maxJSONBody)
}

// decodeJSONLimit is decodeJSON with a custom body limit. Oversized bodies
// get a 413.
func decodeJSONLimit(w http.ResponseWriter, r *http.Request, v any, limit int64) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			WriteBadRequest(w, "Request body is required", nil)
		case errors.As(err, &tooLarge):
			WriteError(w, http.StatusRequestEntityTooLarge, "too_large", "Request body is too large", nil)
		default:
			WriteBadRequest(w, "Invalid JSON body", nil)
		}
		return false
	}
	return true
}

// parseIDParam parses the {id} URL parameter, writing a 400 on failure.
func parseIDParam(w http.ResponseWriter, r *http.Request, entityName string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid "+entityName+" ID", nil)
		return 0, false
	}
	return id, true
}

// queryInt reads a positive integer query parameter, or def.
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// manager returns the request's session manager.
func manager(r *http.Request) *auth.Manager {
	return auth.FromContext(r.Context())
}

// visitorAPI returns a backend API bound to the visitor's credentials.
// A 401 from the backend clears them in the same storage the manager uses.
func (h *Handler) visitorAPI(r *http.Request) *backend.API {
	return h.Provider.Client().For(tokens.New(middleware.GetStorage(r)), middleware.GetLanguage(r))
}

// prefsStore returns the visitor's preference store.
func (h *Handler) prefsStore(r *http.Request) *prefs.Store {
	return prefs.New(middleware.GetStorage(r), h.Broker)
}

// username returns the current username, "" when anonymous.
func username(r *http.Request) string {
	if m := manager(r); m != nil {
		if u := m.User(); u != nil {
			return u.Username
		}
	}
	return ""
}

// logEvent writes an audit event, logging failures.
func (h *Handler) logEvent(r *http.Request, level, category, message string, metadata map[string]any) {
	if h.Events == nil {
		return
	}
	if err := h.Events.LogRequestEvent(r.Context(), r, level, category, message, username(r), metadata); err != nil {
		h.Logger.Error("failed to write event", "message", message, "error", err, "remote_addr", util.ClientIP(r))
	}
}
