// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session builds the scs session manager that holds each visitor's
// storage. Sessions outlive the browser tab the way persistent browser
// storage does.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// Defaults for visitor sessions.
const (
	DefaultLifetime    = 30 * 24 * time.Hour
	DefaultIdleTimeout = 14 * 24 * time.Hour
	cleanupInterval    = 30 * time.Minute

	devCookieName  = "folio_session"
	prodCookieName = "__Host-folio_session"
)

// New creates a session manager backed by the sessions table in db.
func New(db *sql.DB, isDev bool) *scs.SessionManager {
	return NewWithLifetime(db, isDev, DefaultLifetime, DefaultIdleTimeout)
}

// NewWithLifetime creates a session manager with explicit lifetimes.
// A zero idleTimeout disables the idle expiry.
func NewWithLifetime(db *sql.DB, isDev bool, lifetime, idleTimeout time.Duration) *scs.SessionManager {
	sm := scs.New()
	sm.Store = sqlite3store.NewWithCleanupInterval(db, cleanupInterval)

	sm.Lifetime = lifetime
	sm.IdleTimeout = idleTimeout
	sm.Cookie.Name = devCookieName
	sm.Cookie.HttpOnly = true
	sm.Cookie.Path = "/"
	sm.Cookie.Persist = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	// __Host- cookies require Secure and Path=/, so only over HTTPS
	if !isDev {
		sm.Cookie.Name = prodCookieName
	}

	return sm
}
