// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/handler/api"
	"github.com/olegiv/folio-go/internal/i18n"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/testutil"
	"github.com/olegiv/folio-go/internal/testutil/fakebackend"
)

const testIndex = `<html lang="{{.Lang}}" data-theme="{{.Theme}}"><body{{if .SidebarCollapsed}} class="collapsed"{{end}}><div id="root"></div></body></html>`

func testDist() fstest.MapFS {
	return fstest.MapFS{
		"index.html":     {Data: []byte(testIndex)},
		"assets/app.js":  {Data: []byte("console.log('folio')")},
		"assets/app.css": {Data: []byte("body{}")},
	}
}

// site is the full front end (health, API and shell) behind the session
// stack, talking to a fake backend.
type site struct {
	t      *testing.T
	fb     *fakebackend.Server
	srv    *httptest.Server
	client *http.Client
	health *HealthHandler
}

func newSite(t *testing.T) *site {
	t.Helper()
	logger := testutil.TestLoggerSilent()

	fb := fakebackend.New(t)
	client := backend.New(fb.URL, 5*time.Second, logger)
	provider := auth.NewProvider(client, auth.Gate{}, logger)

	matcher, err := i18n.New([]string{"en", "ru"})
	if err != nil {
		t.Fatalf("i18n.New: %v", err)
	}

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	events := service.NewEventService(db, nil)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })

	apiHandler := api.NewHandler(api.Deps{
		Provider:  provider,
		Content:   service.NewContentService(client, cache.NewContentCache(mem, time.Minute, logger), nil, logger),
		Media:     service.NewMediaService(nil, nil, logger),
		Events:    events,
		Languages: matcher,
		Logger:    logger,
	})
	shell, err := NewShell(testDist(), events)
	if err != nil {
		t.Fatalf("NewShell: %v", err)
	}
	health := NewHealthHandler(db, client, t.TempDir())

	sm := scs.New()
	r := chi.NewRouter()
	r.Use(sm.LoadAndSave, middleware.Language(matcher), middleware.Session(sm, provider))
	r.Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Mount("/api", apiHandler.Routes())
	r.Mount("/", shell.Routes())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	return &site{
		t:      t,
		fb:     fb,
		srv:    srv,
		health: health,
		client: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// do sends a request and returns the response with its body read.
func (s *site) do(method, path, body string) (*http.Response, string) {
	s.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, s.srv.URL+path, rd)
	if err != nil {
		s.t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept-Language", "en")
	resp, err := s.client.Do(req)
	if err != nil {
		s.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		s.t.Fatalf("reading body: %v", err)
	}
	return resp, string(raw)
}

// login signs the site's visitor in as a new user with role.
func (s *site) login(username string, role model.Role) {
	s.t.Helper()
	s.fb.AddUser(username, username+"@example.com", "secret1", role)
	resp, body := s.do(http.MethodPost, "/api/session/login",
		`{"username":"`+username+`","password":"secret1"}`)
	if resp.StatusCode != http.StatusOK {
		s.t.Fatalf("login status = %d, body %s", resp.StatusCode, body)
	}
}
