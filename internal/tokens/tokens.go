// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package tokens persists the visitor's access/refresh token pair and the
// cached user profile. Expiry is not tracked here; the backend reports it
// with a 401.
package tokens

import (
	"context"

	"github.com/olegiv/folio-go/internal/kv"
	"github.com/olegiv/folio-go/internal/model"
)

// Storage keys.
const (
	KeyAccessToken  = "token"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Store reads and writes credentials in a visitor storage.
type Store struct {
	storage kv.Storage
}

// New creates a token store over the given storage.
func New(storage kv.Storage) *Store {
	return &Store{storage: storage}
}

// Get returns the stored pair, or nil when no access token is stored.
func (s *Store) Get(ctx context.Context) *model.TokenPair {
	access, ok := s.storage.Get(ctx, KeyAccessToken)
	if !ok || access == "" {
		return nil
	}
	refresh, _ := s.storage.Get(ctx, KeyRefreshToken)
	return &model.TokenPair{AccessToken: access, RefreshToken: refresh}
}

// AccessToken returns the stored access token or "".
func (s *Store) AccessToken(ctx context.Context) string {
	if p := s.Get(ctx); p != nil {
		return p.AccessToken
	}
	return ""
}

// RefreshToken returns the stored refresh token or "".
func (s *Store) RefreshToken(ctx context.Context) string {
	v, _ := s.storage.Get(ctx, KeyRefreshToken)
	return v
}

// Set stores the pair. An empty refresh token keeps the previous one.
func (s *Store) Set(ctx context.Context, pair model.TokenPair) {
	s.storage.Put(ctx, KeyAccessToken, pair.AccessToken)
	if pair.RefreshToken != "" {
		s.storage.Put(ctx, KeyRefreshToken, pair.RefreshToken)
	}
}

// User returns the cached profile, or nil when none is cached or it is unreadable.
func (s *Store) User(ctx context.Context) *model.User {
	u, ok, err := kv.GetJSON[model.User](ctx, s.storage, KeyUser)
	if err != nil || !ok {
		return nil
	}
	return &u
}

// SetUser caches the profile.
func (s *Store) SetUser(ctx context.Context, u *model.User) error {
	if u == nil {
		s.storage.Remove(ctx, KeyUser)
		return nil
	}
	return kv.PutJSON(ctx, s.storage, KeyUser, u)
}

// Clear removes both tokens and the cached profile.
func (s *Store) Clear(ctx context.Context) error {
	s.storage.Remove(ctx, KeyAccessToken)
	s.storage.Remove(ctx, KeyRefreshToken)
	s.storage.Remove(ctx, KeyUser)
	return nil
}
