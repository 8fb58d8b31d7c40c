// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/testutil"
	"github.com/olegiv/folio-go/internal/testutil/fakebackend"
)

// newGuardServer mounts guarded routes behind the session stack. GET
// /signin?u=NAME signs the visitor in with password "secret1".
func newGuardServer(t *testing.T) (*fakebackend.Server, *httptest.Server, *http.Client) {
	t.Helper()
	logger := testutil.TestLoggerSilent()
	fb := fakebackend.New(t)
	provider := auth.NewProvider(backend.New(fb.URL, 5*time.Second, logger), auth.Gate{}, logger)

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	sm := scs.New()
	r := chi.NewRouter()
	r.Use(sm.LoadAndSave, Session(sm, provider))
	r.Get("/signin", func(w http.ResponseWriter, r *http.Request) {
		m := auth.FromContext(r.Context())
		if success, err := m.Login(r.Context(), r.URL.Query().Get("u"), "secret1"); err != nil || !success {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(RequireAuthenticated("/login")).Get("/profile", ok)
	r.With(RequireAuthenticated("/login")).Post("/profile", ok)
	r.With(RequireAuthenticated("/login")).Get("/api/me", ok)
	r.With(RequireSuperUser("/", nil)).Get("/admin", ok)
	r.With(RequireSuperUser("/", nil)).Get("/api/admin", ok)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}
	client := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return fb, srv, client
}

func guardGet(t *testing.T, client *http.Client, method, url string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestRequireAuthenticated_Anonymous(t *testing.T) {
	_, srv, client := newGuardServer(t)

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		wantLoc  string
	}{
		{"page redirects with next", http.MethodGet, "/profile", http.StatusSeeOther, "/login?next=%2Fprofile"},
		{"form post redirects without next", http.MethodPost, "/profile", http.StatusSeeOther, "/login"},
		{"api gets json", http.MethodGet, "/api/me", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := guardGet(t, client, tt.method, srv.URL+tt.path)
			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			if tt.wantLoc != "" && resp.Header.Get("Location") != tt.wantLoc {
				t.Errorf("Location = %q, want %q", resp.Header.Get("Location"), tt.wantLoc)
			}
			if tt.wantLoc == "" {
				var body APIError
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Error.Code != "unauthorized" || body.Error.Details["redirect"] != "/login" {
					t.Errorf("error = %+v", body.Error)
				}
			}
		})
	}
}

func TestRequireSuperUser(t *testing.T) {
	tests := []struct {
		name     string
		role     model.Role
		wantPage int
		wantAPI  int
		wantCode string
	}{
		{"anonymous", "", http.StatusSeeOther, http.StatusUnauthorized, "unauthorized"},
		{"user", model.RoleUser, http.StatusSeeOther, http.StatusForbidden, "forbidden"},
		{"super user", model.RoleSuperUser, http.StatusOK, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb, srv, client := newGuardServer(t)
			if tt.role != "" {
				fb.AddUser("member", "member@example.com", "secret1", tt.role)
				if resp := guardGet(t, client, http.MethodGet, srv.URL+"/signin?u=member"); resp.StatusCode != http.StatusNoContent {
					t.Fatalf("signin status = %d", resp.StatusCode)
				}
			}

			resp := guardGet(t, client, http.MethodGet, srv.URL+"/admin")
			if resp.StatusCode != tt.wantPage {
				t.Errorf("page status = %d, want %d", resp.StatusCode, tt.wantPage)
			}
			if tt.wantPage == http.StatusSeeOther && resp.Header.Get("Location") != "/" {
				t.Errorf("Location = %q, want /", resp.Header.Get("Location"))
			}

			resp = guardGet(t, client, http.MethodGet, srv.URL+"/api/admin")
			if resp.StatusCode != tt.wantAPI {
				t.Errorf("api status = %d, want %d", resp.StatusCode, tt.wantAPI)
			}
			if tt.wantCode != "" {
				var body APIError
				if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if body.Error.Code != tt.wantCode {
					t.Errorf("code = %q, want %q", body.Error.Code, tt.wantCode)
				}
			}
		})
	}
}

func TestGuard_WithoutSessionMiddleware(t *testing.T) {
	h := RequireAuthenticated("/login")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("handler should not run")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/profile", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
