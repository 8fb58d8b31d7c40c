// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package backend

import (
	"context"
	"net/http"

	"github.com/olegiv/folio-go/internal/model"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProfileUpdate is the body of PUT /auth/me. Empty fields are left unchanged.
type ProfileUpdate struct {
	Email     string `json:"email,omitempty"`
	AvatarURL string `json:"avatarUrl,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Birthday  string `json:"birthday,omitempty"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// AuthResponse is returned by login, register and refresh.
type AuthResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *model.User `json:"user,omitempty"`
}

// Tokens returns the credential pair carried by the response.
func (r *AuthResponse) Tokens() model.TokenPair {
	return model.TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges credentials for a token pair.
func (a *API) Login(ctx context.Context, in LoginRequest) (*AuthResponse, error) {
	var out AuthResponse
	err := a.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: in, out: &out, anonymous: true})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates an account. The backend may or may not log the new
// account in; callers check AccessToken.
func (a *API) Register(ctx context.Context, in RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	err := a.do(ctx, request{method: http.MethodPost, path: "/auth/register", body: in, out: &out, anonymous: true})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Refresh exchanges a refresh token for a new pair.
func (a *API) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	var out AuthResponse
	err := a.do(ctx, request{
		method:    http.MethodPost,
		path:      "/auth/refresh",
		body:      refreshRequest{RefreshToken: refreshToken},
		out:       &out,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the refresh token on the backend.
func (a *API) Logout(ctx context.Context, refreshToken string) error {
	return a.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/logout",
		body:   refreshRequest{RefreshToken: refreshToken},
	})
}

// Me returns the profile of the current credential holder.
func (a *API) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := a.do(ctx, request{method: http.MethodGet, path: "/auth/me", out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateMe updates the current profile and returns the stored result.
func (a *API) UpdateMe(ctx context.Context, in ProfileUpdate) (*model.User, error) {
	var out model.User
	if err := a.do(ctx, request{method: http.MethodPut, path: "/auth/me", body: in, out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}
