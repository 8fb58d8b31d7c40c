// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth runs the visitor's authentication session: login,
// registration, logout, token refresh and OAuth bootstrap, plus the role
// gate and route guard decisions derived from it.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/tokens"
)

// Errors returned by Manager.
var (
	ErrNoRefreshToken   = errors.New("no refresh token stored")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrEmptyTokenPair   = errors.New("backend returned no access token")
)

// Backend is the part of the REST client the manager calls.
type Backend interface {
	Login(ctx context.Context, in backend.LoginRequest) (*backend.AuthResponse, error)
	Register(ctx context.Context, in backend.RegisterRequest) (*backend.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*backend.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context) (*model.User, error)
	UpdateMe(ctx context.Context, in backend.ProfileUpdate) (*model.User, error)
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// flightFunc runs fn at most once at a time per key.
type flightFunc func(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error)

func direct(ctx context.Context, _ string, fn func(context.Context) (any, error)) (any, error) {
	return fn(ctx)
}

// Manager owns one visitor's session for the duration of a request.
// Persistent state lives in the token store; the manager keeps the
// derived state and the last error.
type Manager struct {
	tokens  *tokens.Store
	api     Backend
	gate    Gate
	flight  flightFunc
	visitor string
	logger  *slog.Logger

	mu          sync.Mutex
	state       State
	user        *model.User
	errMsg      string
	fieldErrors map[string]string
}

// NewManager creates a manager in the Unknown state. Call Restore or
// Bootstrap before reading the session.
func NewManager(store *tokens.Store, api Backend, gate Gate, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		tokens: store,
		api:    api,
		gate:   gate,
		flight: direct,
		logger: logger,
	}
}

// Restore loads the session from storage without calling the backend.
func (m *Manager) Restore(ctx context.Context) State {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens.Get(ctx) == nil {
		m.setAnonymous()
		return m.state
	}
	if u := m.tokens.User(ctx); u != nil {
		m.state = StateAuthenticated
		m.user = u
		return m.state
	}
	m.state = StateUnknown
	m.user = nil
	return m.state
}

// Bootstrap is run when the app loads. It stores tokens from an OAuth
// redirect fragment, then confirms the stored token with the backend.
// It returns rawURL without the token fragment.
func (m *Manager) Bootstrap(ctx context.Context, rawURL string) (string, error) {
	m.clearErrors()

	clean := rawURL
	if rawURL != "" {
		var pair *model.TokenPair
		var err error
		clean, pair, err = ParseFragment(rawURL)
		if err != nil {
			return rawURL, err
		}
		if !pair.IsZero() {
			m.tokens.Set(ctx, *pair)
			// A new login invalidates any cached profile.
			if err := m.tokens.SetUser(ctx, nil); err != nil {
				return clean, err
			}
			m.logger.Info("stored tokens from oauth redirect", "visitor", m.visitor)
		}
	}

	m.Verify(ctx)
	return clean, nil
}

// Verify confirms a stored token that has no cached profile yet.
// It is a no-op in the Anonymous and Authenticated states.
func (m *Manager) Verify(ctx context.Context) State {
	if state := m.Restore(ctx); state != StateUnknown {
		return state
	}
	m.fetchUser(ctx)
	return m.State()
}

// fetchUser loads the profile for the stored token. On failure the cached
// profile is used if one exists, otherwise the session is anonymous.
func (m *Manager) fetchUser(ctx context.Context) {
	v, err := m.flight(ctx, m.key("me", ""), func(ctx context.Context) (any, error) {
		return m.api.Me(ctx)
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	if err == nil {
		u := v.(*model.User)
		if err := m.tokens.SetUser(ctx, u); err != nil {
			m.logger.Error("failed to cache user profile", "error", err)
		}
		m.state = StateAuthenticated
		m.user = u
		return
	}

	m.logger.Warn("session check failed", "visitor", m.visitor, "error", err)
	if cached := m.tokens.User(ctx); cached != nil && m.tokens.Get(ctx) != nil {
		m.state = StateAuthenticated
		m.user = cached
		return
	}
	m.setAnonymous()
}

// Login authenticates with username and password. Rejected credentials
// return false with a nil error and set the session error; transport
// failures are returned.
func (m *Manager) Login(ctx context.Context, username, password string) (bool, error) {
	m.clearErrors()

	v, err := m.flight(ctx, m.key("login", credential(username, password)), func(ctx context.Context) (any, error) {
		return m.api.Login(ctx, backend.LoginRequest{Username: username, Password: password})
	})
	if err != nil {
		if apiErr, ok := backend.AsAPIError(err); ok {
			m.setError(loginFailureMessage(apiErr), nil)
			return false, nil
		}
		return false, fmt.Errorf("logging in: %w", err)
	}

	resp := v.(*backend.AuthResponse)
	if resp.AccessToken == "" {
		m.setError(MsgInvalidCredentials, nil)
		return false, nil
	}
	if err := m.establish(ctx, resp, username); err != nil {
		return false, err
	}
	return true, nil
}

// Register creates an account and logs it in. A password mismatch is
// rejected before any network call.
func (m *Manager) Register(ctx context.Context, in RegisterInput) (bool, error) {
	m.clearErrors()

	if in.Password != in.ConfirmPassword {
		m.setError(MsgPasswordMismatch, map[string]string{FieldConfirmPassword: MsgPasswordMismatch})
		return false, nil
	}

	v, err := m.flight(ctx, m.key("register", credential(in.Username, in.Email, in.Password)), func(ctx context.Context) (any, error) {
		return m.api.Register(ctx, backend.RegisterRequest{
			Username: in.Username,
			Email:    in.Email,
			Password: in.Password,
		})
	})
	if err != nil {
		if apiErr, ok := backend.AsAPIError(err); ok {
			fields := registrationFieldErrors(apiErr)
			msg := MsgRegistrationFailed
			if fields != nil {
				msg = firstFieldMessage(fields)
			}
			m.setError(msg, fields)
			return false, nil
		}
		return false, fmt.Errorf("registering: %w", err)
	}

	resp := v.(*backend.AuthResponse)
	if resp.AccessToken == "" {
		// The account exists but the backend did not sign it in.
		return m.Login(ctx, in.Username, in.Password)
	}
	if err := m.establish(ctx, resp, in.Username); err != nil {
		return false, err
	}
	return true, nil
}

// establish stores a fresh token pair and profile and marks the session
// authenticated.
func (m *Manager) establish(ctx context.Context, resp *backend.AuthResponse, username string) error {
	m.tokens.Set(ctx, resp.Tokens())

	u := resp.User
	if u == nil {
		me, err := m.api.Me(ctx)
		if err != nil {
			m.logger.Warn("profile fetch after login failed", "username", username, "error", err)
			me = &model.User{Username: username, Role: model.RoleUser}
		}
		u = me
	}
	if err := m.tokens.SetUser(ctx, u); err != nil {
		return fmt.Errorf("caching profile: %w", err)
	}

	m.mu.Lock()
	m.state = StateAuthenticated
	m.user = u
	m.mu.Unlock()
	return nil
}

// Logout revokes the refresh token on the backend when possible and always
// clears the stored credentials.
func (m *Manager) Logout(ctx context.Context) {
	refresh := m.tokens.RefreshToken(ctx)
	hasSession := refresh != "" || m.tokens.AccessToken(ctx) != ""

	defer func() {
		if err := m.tokens.Clear(ctx); err != nil {
			m.logger.Error("failed to clear credentials", "error", err)
		}
		m.mu.Lock()
		m.setAnonymous()
		m.mu.Unlock()
	}()

	if !hasSession {
		return
	}
	_, err := m.flight(ctx, m.key("logout", ""), func(ctx context.Context) (any, error) {
		return nil, m.api.Logout(ctx, refresh)
	})
	if err != nil {
		m.logger.Debug("backend logout failed", "visitor", m.visitor, "error", err)
	}
}

// Refresh exchanges the refresh token for a new pair. Any failure logs
// the visitor out.
func (m *Manager) Refresh(ctx context.Context) error {
	m.clearErrors()

	refresh := m.tokens.RefreshToken(ctx)
	if refresh == "" {
		m.Logout(ctx)
		return ErrNoRefreshToken
	}

	v, err := m.flight(ctx, m.key("refresh", ""), func(ctx context.Context) (any, error) {
		return m.api.Refresh(ctx, refresh)
	})
	if err == nil && v.(*backend.AuthResponse).AccessToken == "" {
		err = ErrEmptyTokenPair
	}
	if err != nil {
		m.Logout(ctx)
		m.setError(MsgSessionExpired, nil)
		return fmt.Errorf("refreshing tokens: %w", err)
	}

	resp := v.(*backend.AuthResponse)
	m.tokens.Set(ctx, resp.Tokens())
	if resp.User != nil {
		if err := m.tokens.SetUser(ctx, resp.User); err != nil {
			return fmt.Errorf("caching profile: %w", err)
		}
	}
	m.Restore(ctx)
	if m.State() == StateUnknown {
		m.fetchUser(ctx)
	}
	return nil
}

// UpdateProfile saves profile fields and refreshes the cached profile.
func (m *Manager) UpdateProfile(ctx context.Context, in backend.ProfileUpdate) (*model.User, error) {
	m.clearErrors()
	if !m.IsAuthenticated(ctx) {
		return nil, ErrNotAuthenticated
	}

	u, err := m.api.UpdateMe(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if err := m.tokens.SetUser(ctx, u); err != nil {
		return nil, fmt.Errorf("caching profile: %w", err)
	}

	m.mu.Lock()
	m.user = u
	m.mu.Unlock()
	return u, nil
}

// State returns the current state without checking storage.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated reports whether the session is authenticated. Credentials
// cleared by a rejected request make the session anonymous here.
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateAuthenticated && m.tokens.Get(ctx) == nil {
		m.setAnonymous()
	}
	return m.state == StateAuthenticated
}

// IsSuperUser reports whether the role gate admits the session user.
func (m *Manager) IsSuperUser(ctx context.Context) bool {
	authenticated := m.IsAuthenticated(ctx)
	return m.gate.IsSuperUser(authenticated, m.User())
}

// User returns the session user, nil when anonymous.
func (m *Manager) User() *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user
}

// Session returns a snapshot for rendering.
func (m *Manager) Session(ctx context.Context) Session {
	authenticated := m.IsAuthenticated(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	s := Session{
		State:           m.state,
		User:            m.user,
		IsAuthenticated: authenticated,
		IsSuperUser:     m.gate.IsSuperUser(authenticated, m.user),
		Error:           m.errMsg,
	}
	if len(m.fieldErrors) > 0 {
		s.FieldErrors = make(map[string]string, len(m.fieldErrors))
		for k, v := range m.fieldErrors {
			s.FieldErrors[k] = v
		}
	}
	return s
}

// setAnonymous requires m.mu.
func (m *Manager) setAnonymous() {
	m.state = StateAnonymous
	m.user = nil
}

func (m *Manager) clearErrors() {
	m.setError("", nil)
}

func (m *Manager) setError(msg string, fields map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errMsg = msg
	m.fieldErrors = fields
}

// key builds the in-flight key for an operation of this visitor.
func (m *Manager) key(op, subject string) string {
	return strings.Join([]string{op, m.visitor, subject}, "|")
}

// credential digests a submitted form so identical submissions share one
// in-flight call while differing ones never do.
func credential(fields ...string) string {
	h := sha256.New()
	for _, f := range fields {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// firstFieldMessage picks a stable form-level message from field errors.
func firstFieldMessage(fields map[string]string) string {
	for _, f := range []string{FieldUsername, FieldEmail, FieldConfirmPassword} {
		if msg, ok := fields[f]; ok {
			return msg
		}
	}
	return MsgRegistrationFailed
}
