// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticCache(t *testing.T) {
	tests := []struct {
		path   string
		maxAge int
		want   string
	}{
		{"/assets/index-3f2a.js", 31536000, "public, max-age=31536000, immutable"},
		{"/assets/app.css", 60, "public, max-age=60, immutable"},
		{"/favicon.ico", 86400, "public, max-age=86400"},
		{"/robots.txt", 0, "public, max-age=0"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			h := StaticCache(tt.maxAge)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/javascript")
				_, _ = w.Write([]byte("ok"))
			}))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.want, rec.Header().Get("Cache-Control"))
			assert.Equal(t, "application/javascript", rec.Header().Get("Content-Type"))
			assert.Equal(t, "ok", rec.Body.String())
		})
	}
}

func TestNoStore(t *testing.T) {
	h := NoStore(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Accept-Language")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, []string{"Cookie", "Accept-Language"}, rec.Header().Values("Vary"))
}
