// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/handler/api"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/prefs"
	"github.com/olegiv/folio-go/internal/service"
)

// assetMaxAge is the cache lifetime of fingerprinted build assets.
const assetMaxAge = 31536000

// Front-end routes answered with the application shell.
var shellRoutes = []string{
	"/",
	"/about",
	"/resume",
	"/portfolio",
	"/blog",
	"/blog/{id}",
	"/contact",
	"/login",
	"/register",
	api.OAuthCallbackPath,
}

// Shell serves the single-page application: its static assets and the
// index document for every client-side route. Guarded routes pass
// through the same access rules as the API before the index is sent.
type Shell struct {
	assets fs.FS
	index  *template.Template
	events *service.EventService
}

type shellData struct {
	Lang             string
	Theme            prefs.Theme
	SidebarCollapsed bool
}

// NewShell parses index.html from dist. events may be nil.
func NewShell(dist fs.FS, events *service.EventService) (*Shell, error) {
	index, err := template.ParseFS(dist, "index.html")
	if err != nil {
		return nil, fmt.Errorf("parsing index.html: %w", err)
	}
	return &Shell{assets: dist, index: index, events: events}, nil
}

// Routes returns the router for the front end.
func (s *Shell) Routes() http.Handler {
	r := chi.NewRouter()

	r.With(middleware.StaticCache(assetMaxAge)).Handle("/assets/*", http.FileServerFS(s.assets))

	for _, path := range shellRoutes {
		r.Get(path, s.Index)
	}
	r.With(middleware.RequireAuthenticated(api.LoginPath)).Get("/profile", s.Index)
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireSuperUser(api.HomePath, s.events))
		r.Get("/", s.Index)
		r.Get("/*", s.Index)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusNotFound)
	})
	return r
}

// Index writes the application shell.
func (s *Shell) Index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK)
}

func (s *Shell) render(w http.ResponseWriter, r *http.Request, status int) {
	data := shellData{
		Lang:  middleware.GetLanguage(r),
		Theme: prefs.DefaultTheme,
	}
	if storage := middleware.GetStorage(r); storage != nil {
		p := prefs.New(storage, nil)
		data.Theme = p.Theme(r.Context())
		data.SidebarCollapsed = p.SidebarCollapsed(r.Context())
	}

	var buf bytes.Buffer
	if err := s.index.Execute(&buf, data); err != nil {
		slog.Error("failed to render application shell", "error", err, "path", r.URL.Path)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
