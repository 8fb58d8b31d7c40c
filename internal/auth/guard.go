// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"net/http"
)

// Requirement is what a guarded route needs from the session.
type Requirement int

// Requirements.
const (
	NeedAuthenticated Requirement = iota
	NeedSuperUser
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed    bool
	RedirectTo string
	// Status is the code for API callers: 401 without a session, 403
	// for an authenticated user lacking the role.
	Status int
}

// Decide evaluates a requirement against the current session state.
// It has no side effects.
func Decide(req Requirement, s Session, redirectTo string) Decision {
	switch req {
	case NeedAuthenticated:
		if s.IsAuthenticated {
			return Decision{Allowed: true}
		}
		return Decision{RedirectTo: redirectTo, Status: http.StatusUnauthorized}
	case NeedSuperUser:
		if s.IsSuperUser {
			return Decision{Allowed: true}
		}
		status := http.StatusForbidden
		if !s.IsAuthenticated {
			status = http.StatusUnauthorized
		}
		return Decision{RedirectTo: redirectTo, Status: status}
	default:
		return Decision{RedirectTo: redirectTo, Status: http.StatusForbidden}
	}
}
