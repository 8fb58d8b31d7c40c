// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types shared by the site: users and
// their tokens, posts, portfolio items, comments and audit events.
package model

import (
	"time"
)

// Role is the account role assigned by the backend.
type Role string

// Account roles. The client never changes them.
const (
	RoleUser      Role = "USER"
	RoleAdmin     Role = "ADMIN"
	RoleSuperUser Role = "SUPER_USER"
)

// LegacyAdminUsername is the username treated as a super user by the legacy rule.
const LegacyAdminUsername = "admin"

// User represents an account as returned by the backend.
type User struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Role      Role      `json:"role"`
	Gender    string    `json:"gender,omitempty"`
	Birthday  string    `json:"birthday,omitempty"` // YYYY-MM-DD
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasPrivilegedRole reports whether the role alone grants super user access.
func (u *User) HasPrivilegedRole() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperUser
}

// TokenPair is the credential pair issued by the backend.
// AccessToken is sent as a bearer credential; RefreshToken is exchanged
// for a new pair.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// IsZero reports whether the pair carries no access token.
func (p *TokenPair) IsZero() bool {
	return p == nil || p.AccessToken == ""
}
