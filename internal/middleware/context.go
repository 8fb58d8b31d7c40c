// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides the HTTP middleware of the site: visitor
// session loading, route guards, language detection, CSRF protection,
// rate limiting, security headers and timeouts.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/olegiv/folio-go/internal/kv"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyStorage     ContextKey = "storage"
	ContextKeyLanguage    ContextKey = "language"
	ContextKeyRequestPath ContextKey = "request_path"
)

// APIPrefix marks routes that answer with JSON instead of HTML.
const APIPrefix = "/api/"

// IsAPIRequest reports whether r targets a JSON route.
func IsAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, APIPrefix)
}

// GetStorage returns the visitor storage loaded by Session, or nil.
func GetStorage(r *http.Request) kv.Storage {
	s, _ := r.Context().Value(ContextKeyStorage).(kv.Storage)
	return s
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
