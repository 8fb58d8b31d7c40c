// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/cache"
	"github.com/olegiv/folio-go/internal/i18n"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/prefs"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/testutil"
	"github.com/olegiv/folio-go/internal/testutil/fakebackend"
)

// testEnv is the API mounted behind the real session stack, talking to a
// fake backend.
type testEnv struct {
	t      *testing.T
	fb     *fakebackend.Server
	srv    *httptest.Server
	client *http.Client
	events *service.EventService
}

func newTestEnv(t *testing.T, opts ...func(*Deps)) *testEnv {
	t.Helper()
	logger := testutil.TestLoggerSilent()

	fb := fakebackend.New(t)
	client := backend.New(fb.URL, 5*time.Second, logger)
	provider := auth.NewProvider(client, auth.Gate{LegacyAdminUsername: true}, logger)

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{})
	t.Cleanup(func() { _ = mem.Close() })
	cc := cache.NewContentCache(mem, time.Minute, logger)

	matcher, err := i18n.New([]string{"en", "ru"})
	require.NoError(t, err)

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	events := service.NewEventService(db, nil)

	d := Deps{
		Provider:  provider,
		Content:   service.NewContentService(client, cc, nil, logger),
		Media:     service.NewMediaService(nil, nil, logger),
		Events:    events,
		Broker:    prefs.NewBroker(),
		Languages: matcher,
		LoginProtection: middleware.NewLoginProtection(middleware.LoginProtectionConfig{
			IPRateLimit: 1000,
			IPBurst:     1000,
		}),
		Window: defaultTestWindow,
		Logger: logger,
	}
	for _, opt := range opts {
		opt(&d)
	}
	h := NewHandler(d)

	sm := scs.New()
	r := chi.NewRouter()
	r.Use(sm.LoadAndSave, middleware.Language(matcher), middleware.Session(sm, provider))
	r.Mount("/api", h.Routes())

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		t:      t,
		fb:     fb,
		srv:    srv,
		client: &http.Client{Jar: jar, Timeout: 10 * time.Second},
		events: events,
	}
}

// newTestEnvSharing returns a second visitor of the same server.
func newTestEnvSharing(t *testing.T, e *testEnv) *testEnv {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testEnv{
		t:      t,
		fb:     e.fb,
		srv:    e.srv,
		client: &http.Client{Jar: jar, Timeout: 10 * time.Second},
		events: e.events,
	}
}

// sessionCookie returns the client's current scs session token.
func (e *testEnv) sessionCookie() string {
	e.t.Helper()
	u, err := url.Parse(e.srv.URL)
	require.NoError(e.t, err)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == "session" {
			return c.Value
		}
	}
	return ""
}

// newTestEnvWithCookie returns a second client of the same server that
// presents the given session token.
func newTestEnvWithCookie(t *testing.T, e *testEnv, token string) *testEnv {
	t.Helper()
	other := newTestEnvSharing(t, e)
	u, err := url.Parse(e.srv.URL)
	require.NoError(t, err)
	other.client.Jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: token, Path: "/"}})
	return other
}

// envelope is a decoded API response body.
type envelope[T any] struct {
	Data  T     `json:"data"`
	Meta  *Meta `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

// do sends a request with an optional JSON body and returns the status
// and raw body.
func (e *testEnv) do(method, path string, body any) (int, []byte) {
	e.t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(e.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept-Language", "en")

	resp, err := e.client.Do(req)
	require.NoError(e.t, err)
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, raw
}

// call is do plus decoding into an envelope of T.
func call[T any](e *testEnv, method, path string, body any) (int, envelope[T]) {
	e.t.Helper()
	status, raw := e.do(method, path, body)
	var env envelope[T]
	if len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, &env), "body: %s", raw)
	}
	return status, env
}

// login signs the env's client in as a new user with role.
func (e *testEnv) login(username string, role model.Role) model.User {
	e.t.Helper()
	u := e.fb.AddUser(username, username+"@example.com", "secret1", role)
	status, env := call[AuthResult](e, http.MethodPost, "/api/session/login", LoginRequest{Username: username, Password: "secret1"})
	require.Equal(e.t, http.StatusOK, status)
	require.True(e.t, env.Data.Success)
	return u
}
