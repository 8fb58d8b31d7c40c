// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"fmt"

	"github.com/olegiv/folio-go/internal/model"
)

// State is the authentication state of a visitor session.
type State int

// Session states. Unknown means a token is stored but the profile has
// not been confirmed yet.
const (
	StateUnknown State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	switch string(text) {
	case "unknown":
		*s = StateUnknown
	case "anonymous":
		*s = StateAnonymous
	case "authenticated":
		*s = StateAuthenticated
	default:
		return fmt.Errorf("unknown session state %q", text)
	}
	return nil
}

// Session is the visitor-facing view of the manager.
type Session struct {
	State           State             `json:"state"`
	User            *model.User       `json:"user"`
	IsAuthenticated bool              `json:"isAuthenticated"`
	IsSuperUser     bool              `json:"isSuperUser"`
	Error           string            `json:"error,omitempty"`
	FieldErrors     map[string]string `json:"fieldErrors,omitempty"`
}
