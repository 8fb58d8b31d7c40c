// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveWithPolicy(p HeaderPolicy, path string) http.Header {
	h := SecurityHeaders(p)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Header()
}

func TestSecurityHeaders_Production(t *testing.T) {
	h := serveWithPolicy(SiteHeaderPolicy(false), "/about")

	assert.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
	assert.Equal(t, "SAMEORIGIN", h.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	assert.Empty(t, h.Get("X-XSS-Protection"))

	csp := h.Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'; script-src 'self' https://hcaptcha.com")
	assert.Contains(t, csp, "img-src 'self' data: blob: https://res.cloudinary.com")
	assert.Contains(t, csp, "form-action 'self' https://formspree.io")
	assert.NotContains(t, csp, "localhost")
}

func TestSecurityHeaders_Development(t *testing.T) {
	h := serveWithPolicy(SiteHeaderPolicy(true), "/")

	assert.Empty(t, h.Get("Strict-Transport-Security"))
	csp := h.Get("Content-Security-Policy")
	assert.Contains(t, csp, "'unsafe-eval' http://localhost:5173")
	assert.Contains(t, csp, "ws://localhost:5173")
}

func TestSecurityHeaders_APIPolicy(t *testing.T) {
	p := SiteHeaderPolicy(false)

	for _, path := range []string{"/api/posts", "/api/prefs/events"} {
		h := serveWithPolicy(p, path)
		assert.Equal(t, apiCSP, h.Get("Content-Security-Policy"), path)
		assert.Equal(t, "DENY", h.Get("X-Frame-Options"), path)
		assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"), path)
	}

	// The API policy must not leak into page responses.
	h := serveWithPolicy(p, "/apiary")
	assert.NotEqual(t, apiCSP, h.Get("Content-Security-Policy"))
}

func TestHeaderPolicy_ContentSecurityPolicy(t *testing.T) {
	p := HeaderPolicy{CSP: []Directive{
		{"default-src", []string{"'none'"}},
		{"img-src", []string{"'self'", "data:"}},
		{"upgrade-insecure-requests", nil},
	}}
	assert.Equal(t, "default-src 'none'; img-src 'self' data:; upgrade-insecure-requests", p.ContentSecurityPolicy())
}

func TestHeaderPolicy_PermissionsPolicySorted(t *testing.T) {
	p := HeaderPolicy{DisabledFeatures: []string{"usb", "camera", "geolocation"}}
	assert.Equal(t, "camera=(), geolocation=(), usb=()", p.PermissionsPolicy())
	assert.Equal(t, []string{"usb", "camera", "geolocation"}, p.DisabledFeatures, "input must stay untouched")
}

func TestSecurityHeaders_EmptyPolicy(t *testing.T) {
	h := serveWithPolicy(HeaderPolicy{}, "/")

	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	for _, name := range []string{"Content-Security-Policy", "Strict-Transport-Security", "X-Frame-Options", "Permissions-Policy"} {
		assert.Empty(t, h.Get(name), name)
	}
}

func TestSecurityHeaders_HandlerCanOverride(t *testing.T) {
	h := SecurityHeaders(SiteHeaderPolicy(false))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "DENY")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	// The shared policy header is unaffected by the override.
	assert.Equal(t, "SAMEORIGIN", serveWithPolicy(SiteHeaderPolicy(false), "/").Get("X-Frame-Options"))
}
