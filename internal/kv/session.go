// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package kv

import (
	"context"

	"github.com/alexedwards/scs/v2"
)

// Session is a Storage backed by the visitor's scs session.
// The request context must have passed through the manager's LoadAndSave
// middleware.
type Session struct {
	sm *scs.SessionManager
}

// NewSession wraps a session manager.
func NewSession(sm *scs.SessionManager) *Session {
	return &Session{sm: sm}
}

// Get implements Storage.
func (s *Session) Get(ctx context.Context, key string) (string, bool) {
	if !s.sm.Exists(ctx, key) {
		return "", false
	}
	return s.sm.GetString(ctx, key), true
}

// Put implements Storage.
func (s *Session) Put(ctx context.Context, key, value string) {
	s.sm.Put(ctx, key, value)
}

// Remove implements Storage.
func (s *Session) Remove(ctx context.Context, key string) {
	s.sm.Remove(ctx, key)
}

// Renew issues a new session token for the same data, so a cookie seen
// before sign-in or sign-out stops working.
func (s *Session) Renew(ctx context.Context) error {
	return s.sm.RenewToken(ctx)
}

var (
	_ Storage = (*Session)(nil)
	_ Renewer = (*Session)(nil)
)
