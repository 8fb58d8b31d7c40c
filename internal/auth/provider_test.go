// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/kv"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/tokens"
)

func TestProvider_UnauthorizedRequestEndsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			_ = json.NewEncoder(w).Encode(backend.AuthResponse{AccessToken: "a", RefreshToken: "r", User: alice()})
		case "/content/posts":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"jwt expired"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	p := NewProvider(backend.New(srv.URL, 5*time.Second, nil), Gate{}, nil)
	storage := kv.NewMemory()

	m := p.Manager(ctx, storage, "en")
	ok, err := m.Login(ctx, "alice", "pw")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, m.IsAuthenticated(ctx))

	api := p.Client().For(tokens.New(storage), "en")
	_, err = api.ListPosts(ctx)
	require.True(t, backend.IsUnauthorized(err))

	assert.Nil(t, tokens.New(storage).Get(ctx))
	assert.False(t, m.IsAuthenticated(ctx))
	assert.False(t, p.Manager(ctx, storage, "en").IsAuthenticated(ctx))
}

func TestProvider_CoalescesConcurrentLogins(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			close(entered)
		}
		<-release
		_ = json.NewEncoder(w).Encode(backend.AuthResponse{AccessToken: "a", RefreshToken: "r", User: alice()})
	}))
	defer srv.Close()

	ctx := context.Background()
	p := NewProvider(backend.New(srv.URL, 5*time.Second, nil), Gate{}, nil)
	storage := kv.NewMemory()

	results := make([]bool, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i == 1 {
				<-entered
			}
			ok, err := p.Manager(ctx, storage, "en").Login(ctx, "alice", "pw")
			assert.NoError(t, err)
			results[i] = ok
		}()
	}

	<-entered
	// Give the second submission time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []bool{true, true}, results)
	assert.Equal(t, int32(1), calls.Load())
}

func TestProvider_DifferentPasswordsDoNotCoalesce(t *testing.T) {
	var calls atomic.Int32
	bothIn := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req backend.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if calls.Add(1) == 2 {
			close(bothIn)
		}
		select {
		case <-bothIn:
		case <-time.After(2 * time.Second):
		}
		if req.Password != "pw" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Bad credentials"})
			return
		}
		_ = json.NewEncoder(w).Encode(backend.AuthResponse{AccessToken: "a", RefreshToken: "r", User: alice()})
	}))
	defer srv.Close()

	ctx := context.Background()
	p := NewProvider(backend.New(srv.URL, 5*time.Second, nil), Gate{}, nil)
	storage := kv.NewMemory()

	passwords := []string{"pw", "typo"}
	results := make([]bool, len(passwords))
	var wg sync.WaitGroup
	for i, pw := range passwords {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := p.Manager(ctx, storage, "en").Login(ctx, "alice", pw)
			assert.NoError(t, err)
			results[i] = ok
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []bool{true, false}, results)
}

func TestState_TextRoundTrip(t *testing.T) {
	for _, s := range []State{StateUnknown, StateAnonymous, StateAuthenticated} {
		raw, err := json.Marshal(Session{State: s})
		require.NoError(t, err)

		var got Session
		require.NoError(t, json.Unmarshal(raw, &got), string(raw))
		assert.Equal(t, s, got.State)
	}

	var s State
	assert.Error(t, s.UnmarshalText([]byte("State(7)")))
}

func TestProvider_DifferentVisitorsDoNotCoalesce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(backend.AuthResponse{AccessToken: "a", User: alice()})
	}))
	defer srv.Close()

	ctx := context.Background()
	p := NewProvider(backend.New(srv.URL, 5*time.Second, nil), Gate{}, nil)

	for range 2 {
		ok, err := p.Manager(ctx, kv.NewMemory(), "en").Login(ctx, "alice", "pw")
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, int32(2), calls.Load())
}

func TestProvider_ManagerKeysByVisitor(t *testing.T) {
	ctx := context.Background()
	p := NewProvider(backend.New("http://backend.invalid", time.Second, nil), Gate{}, nil)
	storage := kv.NewMemory()

	m := p.Manager(ctx, storage, "en")
	visitor, ok := storage.Get(ctx, kv.KeyVisitorID)
	require.True(t, ok)
	assert.Equal(t, "login|"+visitor+"|bob", m.key("login", "bob"))
	assert.Equal(t, StateAnonymous, m.State())
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))

	m := NewManager(tokens.New(kv.NewMemory()), nil, Gate{}, nil)
	ctx := NewContext(context.Background(), m)
	assert.Same(t, m, FromContext(ctx))
}

func TestGate_IsSuperUser(t *testing.T) {
	tests := []struct {
		name          string
		legacy        bool
		authenticated bool
		user          *model.User
		want          bool
	}{
		{"admin role", false, true, &model.User{Username: "x", Role: model.RoleAdmin}, true},
		{"super user role", false, true, &model.User{Username: "x", Role: model.RoleSuperUser}, true},
		{"plain user", true, true, &model.User{Username: "x", Role: model.RoleUser}, false},
		{"legacy admin username", true, true, &model.User{Username: "admin", Role: model.RoleUser}, true},
		{"legacy rule disabled", false, true, &model.User{Username: "admin", Role: model.RoleUser}, false},
		{"not authenticated", true, false, &model.User{Username: "admin", Role: model.RoleAdmin}, false},
		{"nil user", true, true, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := Gate{LegacyAdminUsername: tt.legacy}
			if got := g.IsSuperUser(tt.authenticated, tt.user); got != tt.want {
				t.Errorf("IsSuperUser() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecide(t *testing.T) {
	anon := Session{State: StateAnonymous}
	user := Session{State: StateAuthenticated, IsAuthenticated: true}
	super := Session{State: StateAuthenticated, IsAuthenticated: true, IsSuperUser: true}

	tests := []struct {
		name    string
		req     Requirement
		session Session
		want    Decision
	}{
		{"auth anonymous", NeedAuthenticated, anon, Decision{RedirectTo: "/login", Status: http.StatusUnauthorized}},
		{"auth user", NeedAuthenticated, user, Decision{Allowed: true}},
		{"super anonymous", NeedSuperUser, anon, Decision{RedirectTo: "/login", Status: http.StatusUnauthorized}},
		{"super plain user", NeedSuperUser, user, Decision{RedirectTo: "/login", Status: http.StatusForbidden}},
		{"super super", NeedSuperUser, super, Decision{Allowed: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.req, tt.session, "/login"))
		})
	}
}

func TestParseFragment(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantClean string
		wantPair  *model.TokenPair
	}{
		{
			name:      "oauth tokens",
			raw:       "https://site.example.com/#token=abc&refreshToken=xyz",
			wantClean: "https://site.example.com/",
			wantPair:  &model.TokenPair{AccessToken: "abc", RefreshToken: "xyz"},
		},
		{
			name:      "other parameters kept",
			raw:       "https://site.example.com/blog?page=2#token=abc&tab=comments",
			wantClean: "https://site.example.com/blog?page=2#tab=comments",
			wantPair:  &model.TokenPair{AccessToken: "abc"},
		},
		{
			name:      "no fragment",
			raw:       "https://site.example.com/about",
			wantClean: "https://site.example.com/about",
		},
		{
			name:      "fragment without token",
			raw:       "/blog#refreshToken=xyz",
			wantClean: "/blog#refreshToken=xyz",
		},
		{
			name:      "relative url",
			raw:       "/profile#token=t%2B1&refreshToken=r",
			wantClean: "/profile",
			wantPair:  &model.TokenPair{AccessToken: "t+1", RefreshToken: "r"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clean, pair, err := ParseFragment(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.wantClean, clean)
			assert.Equal(t, tt.wantPair, pair)
		})
	}
}

func TestParseFragment_InvalidURL(t *testing.T) {
	_, _, err := ParseFragment("http://[::1")
	assert.Error(t, err)
}

func TestLoginFailureMessage(t *testing.T) {
	assert.Equal(t, MsgInvalidCredentials, loginFailureMessage(&backend.APIError{Status: 400, Message: "Invalid credentials"}))
	assert.Equal(t, MsgInvalidCredentials, loginFailureMessage(&backend.APIError{Status: 404}))
	assert.Equal(t, MsgLoginFailed, loginFailureMessage(&backend.APIError{Status: 500, Message: "boom"}))
}
