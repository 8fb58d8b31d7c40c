// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPRateLimiter_Allow(t *testing.T) {
	rl := NewIPRateLimiter(0.001, 2)

	if !rl.Allow("203.0.113.1") || !rl.Allow("203.0.113.1") {
		t.Fatal("requests within the burst should pass")
	}
	if rl.Allow("203.0.113.1") {
		t.Error("request over the burst should be rejected")
	}
	if !rl.Allow("203.0.113.2") {
		t.Error("another IP has its own budget")
	}
}

func TestIPRateLimiter_Middleware(t *testing.T) {
	rl := NewIPRateLimiter(0.001, 1)
	h := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = "198.51.100.7:5555"
		return req
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, newReq())
	if w.Code != http.StatusAccepted {
		t.Fatalf("first request status = %d, want %d", w.Code, http.StatusAccepted)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, newReq())
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	var body APIError
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "rate_limit_exceeded" {
		t.Errorf("code = %q, want rate_limit_exceeded", body.Error.Code)
	}
}

func TestLimiterCache_ClearIfExceeds(t *testing.T) {
	lc := newLimiterCache[string](1, 1)
	for _, k := range []string{"a", "b", "c"} {
		lc.get(k)
	}

	if lc.clearIfExceeds(5) {
		t.Error("cache under the limit should not be cleared")
	}
	if !lc.clearIfExceeds(2) {
		t.Error("cache over the limit should be cleared")
	}
	if len(lc.limiters) != 0 {
		t.Errorf("limiters = %d after clear, want 0", len(lc.limiters))
	}
}

func TestWriteAPIError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAPIError(w, http.StatusForbidden, "forbidden", "No", map[string]string{"redirect": "/"})

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	var body APIError
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "forbidden" || body.Error.Message != "No" || body.Error.Details["redirect"] != "/" {
		t.Errorf("body = %+v", body.Error)
	}
}
