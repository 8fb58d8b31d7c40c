// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/middleware"
)

// Front end paths the guards redirect to.
const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Routes returns the API router, to be mounted at /api. It expects the
// session middleware to have run.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NoStore)

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.GetSession)
		r.Post("/bootstrap", h.Bootstrap)
		r.With(h.LoginProtection.Middleware()).Post("/login", h.Login)
		r.Post("/register", h.Register)
		r.Post("/logout", h.Logout)
		r.Post("/refresh", h.Refresh)
		r.Get("/google", h.GoogleStart)
	})

	r.Get("/categories", h.ListCategories)
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{id}", h.GetPost)
	r.Get("/posts/{id}/comments", h.ListComments)
	r.Get("/portfolio", h.ListPortfolio)
	r.Get("/portfolio/{id}", h.GetPortfolioItem)
	r.Post("/portfolio/more", h.MorePortfolio)

	r.Get("/contact", h.GetContactConfig)
	r.Post("/contact", h.SubmitContact)

	r.Get("/prefs", h.GetPrefs)
	r.Put("/prefs", h.UpdatePrefs)
	r.Get("/prefs/events", h.PrefsEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuthenticated(LoginPath))
		r.Get("/me", h.GetMe)
		r.Put("/me", h.UpdateMe)
		r.Post("/posts/{id}/comments", h.CreateComment)
		r.Delete("/comments/{id}", h.DeleteComment)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireSuperUser(HomePath, h.Events))

		r.Get("/posts", h.AdminListPosts)
		r.Post("/posts", h.AdminCreatePost)
		r.Put("/posts/{id}", h.AdminUpdatePost)
		r.Delete("/posts/{id}", h.AdminDeletePost)

		r.Get("/portfolio", h.AdminListPortfolio)
		r.Post("/portfolio", h.AdminCreatePortfolioItem)
		r.Put("/portfolio/{id}", h.AdminUpdatePortfolioItem)
		r.Delete("/portfolio/{id}", h.AdminDeletePortfolioItem)

		r.Post("/media", h.UploadMedia)
		r.Post("/ai/title", h.GenerateTitle)
		r.Post("/ai/content", h.GenerateContent)

		r.Get("/batches/{kind}", h.GetBatch)
		r.Post("/batches/{kind}", h.EnqueueBatchItem)
		r.Delete("/batches/{kind}", h.ClearBatch)
		r.Delete("/batches/{kind}/{itemID}", h.RemoveBatchItem)
		r.Post("/batches/{kind}/publish", h.PublishBatch)

		r.Get("/events", h.ListEvents)
		r.Get("/jobs", h.ListJobs)
		r.Post("/jobs/{name}/run", h.TriggerJob)
		r.Get("/cache", h.CacheStats)
		r.Delete("/cache", h.ClearCache)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteNotFound(w, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})
	return r
}
