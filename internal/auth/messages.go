// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"net/http"
	"regexp"

	"github.com/olegiv/folio-go/internal/backend"
)

// Messages surfaced in the session error fields.
const (
	MsgInvalidCredentials = "Invalid username or password"
	MsgLoginFailed        = "Login failed. Please try again."
	MsgPasswordMismatch   = "Passwords do not match"
	MsgUsernameTaken      = "Username is already taken"
	MsgEmailTaken         = "Email is already registered"
	MsgRegistrationFailed = "Registration failed. Please try again."
	MsgSessionExpired     = "Your session has expired. Please log in again."
)

// Form field names used in FieldErrors.
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldConfirmPassword = "confirmPassword"
)

var (
	authFailurePattern   = regexp.MustCompile(`(?i)invalid|incorrect|wrong|bad credentials|not found|does ?n[o']t exist|no such user|unauthori[sz]ed|password|username|user`)
	usernameTakenPattern = regexp.MustCompile(`(?i)username.*(taken|exists|already|in use|duplicate)|(taken|exists|already|duplicate).*username`)
	emailTakenPattern    = regexp.MustCompile(`(?i)e-?mail.*(taken|exists|already|in use|registered|duplicate)|(taken|exists|already|duplicate).*e-?mail`)
)

// loginFailureMessage maps a rejected login to the message shown to the
// visitor. Anything that could reveal whether the username exists becomes
// MsgInvalidCredentials.
func loginFailureMessage(apiErr *backend.APIError) string {
	switch {
	case apiErr.Status == http.StatusUnauthorized, apiErr.Status == http.StatusNotFound:
		return MsgInvalidCredentials
	case authFailurePattern.MatchString(apiErr.Message):
		return MsgInvalidCredentials
	default:
		return MsgLoginFailed
	}
}

// registrationFieldErrors maps a rejected registration to field errors.
// It returns nil when the message matches no known field.
func registrationFieldErrors(apiErr *backend.APIError) map[string]string {
	fields := map[string]string{}
	if usernameTakenPattern.MatchString(apiErr.Message) {
		fields[FieldUsername] = MsgUsernameTaken
	}
	if emailTakenPattern.MatchString(apiErr.Message) {
		fields[FieldEmail] = MsgEmailTaken
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
