// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strings"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/kv"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/util"
)

// OAuthCallbackPath is the front-end route the backend returns to after
// Google sign-in, with the token pair in the URL fragment.
const OAuthCallbackPath = "/oauth2/redirect"

// AuthResult is the body of login, register and refresh responses.
type AuthResult struct {
	Success bool         `json:"success"`
	Session auth.Session `json:"session"`
}

// BootstrapRequest carries the page URL the front end started on.
type BootstrapRequest struct {
	URL string `json:"url"`
}

// BootstrapResult is the session plus the URL with any OAuth fragment removed.
type BootstrapResult struct {
	Session auth.Session `json:"session"`
	URL     string       `json:"url"`
}

// LoginRequest is the login form.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// GetSession handles GET /api/session.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	m := manager(r)
	m.Verify(r.Context())
	WriteSuccess(w, m.Session(r.Context()), nil)
}

// Bootstrap handles POST /api/session/bootstrap.
func (h *Handler) Bootstrap(w http.ResponseWriter, r *http.Request) {
	var req BootstrapRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m := manager(r)
	clean, err := m.Bootstrap(r.Context(), req.URL)
	if err != nil {
		WriteBadRequest(w, "Invalid URL", map[string]string{"url": err.Error()})
		return
	}
	if clean != req.URL && m.IsAuthenticated(r.Context()) {
		h.renewSession(r)
		h.logEvent(r, model.EventLevelInfo, model.EventCategoryAuth, "User signed in with Google", map[string]any{"method": "oauth"})
	}
	WriteSuccess(w, BootstrapResult{Session: m.Session(r.Context()), URL: clean}, nil)
}

// Login handles POST /api/session/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		WriteValidationError(w, map[string]string{"username": "Username and password are required"})
		return
	}

	if h.LoginProtection != nil {
		if locked, remaining := h.LoginProtection.IsAccountLocked(req.Username); locked {
			h.Logger.Warn("login attempt on locked account", "username", req.Username, "ip", util.ClientIP(r))
			WriteError(w, http.StatusTooManyRequests, "account_locked", middleware.LockedMessage(remaining), nil)
			return
		}
	}

	m := manager(r)
	ok, err := m.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeBackendError(w, r, err, "login")
		return
	}

	if !ok {
		h.Logger.Warn("failed login attempt", "username", req.Username, "ip", util.ClientIP(r))
		h.logEvent(r, model.EventLevelWarning, model.EventCategoryAuth, "Failed login attempt",
			map[string]any{"username": req.Username})
		if h.LoginProtection != nil {
			if locked, d := h.LoginProtection.RecordFailedAttempt(req.Username); locked {
				h.logEvent(r, model.EventLevelWarning, model.EventCategoryAuth, "Account locked after failed logins",
					map[string]any{"username": req.Username, "duration": d.String()})
			}
		}
		WriteJSON(w, http.StatusUnauthorized, Response{Data: AuthResult{Session: m.Session(r.Context())}})
		return
	}

	if h.LoginProtection != nil {
		h.LoginProtection.RecordSuccessfulLogin(req.Username)
	}
	h.renewSession(r)
	h.Logger.Info("user logged in", "username", req.Username)
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryAuth, "User logged in", map[string]any{"method": "password"})
	WriteSuccess(w, AuthResult{Success: true, Session: m.Session(r.Context())}, nil)
}

// Register handles POST /api/session/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	if fields := validateRegistration(req); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	m := manager(r)
	ok, err := m.Register(r.Context(), req)
	if err != nil {
		h.writeBackendError(w, r, err, "register")
		return
	}
	if !ok {
		WriteJSON(w, http.StatusUnprocessableEntity, Response{Data: AuthResult{Session: m.Session(r.Context())}})
		return
	}

	h.renewSession(r)
	h.Logger.Info("user registered", "username", req.Username)
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryAuth, "User registered", nil)
	WriteCreated(w, AuthResult{Success: true, Session: m.Session(r.Context())})
}

// Logout handles POST /api/session/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	m := manager(r)
	name := username(r)
	m.Logout(r.Context())
	h.renewSession(r)
	if name != "" {
		h.Logger.Info("user logged out", "username", name)
		if h.Events != nil {
			_ = h.Events.LogAuthEvent(r.Context(), r, model.EventLevelInfo, "User logged out", name, nil)
		}
	}
	WriteSuccess(w, m.Session(r.Context()), nil)
}

// Refresh handles POST /api/session/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	m := manager(r)
	if err := m.Refresh(r.Context()); err != nil {
		h.Logger.Info("token refresh failed", "error", err)
		WriteJSON(w, http.StatusUnauthorized, Response{Data: AuthResult{Session: m.Session(r.Context())}})
		return
	}
	WriteSuccess(w, AuthResult{Success: true, Session: m.Session(r.Context())}, nil)
}

// renewSession reissues the visitor's session cookie whenever the
// credentials behind it change. Stored preferences are kept.
func (h *Handler) renewSession(r *http.Request) {
	renewer, ok := middleware.GetStorage(r).(kv.Renewer)
	if !ok {
		return
	}
	if err := renewer.Renew(r.Context()); err != nil {
		h.Logger.Error("failed to renew session token", "error", err)
	}
}

// GoogleStart handles GET /api/session/google by redirecting to the
// backend's Google authorization endpoint.
func (h *Handler) GoogleStart(w http.ResponseWriter, r *http.Request) {
	redirect := strings.TrimRight(h.PublicURL, "/") + OAuthCallbackPath
	http.Redirect(w, r, h.Provider.Client().GoogleAuthorizeURL(redirect), http.StatusFound)
}

// GetMe handles GET /api/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	u, err := h.visitorAPI(r).Me(r.Context())
	if err != nil {
		h.writeBackendError(w, r, err, "profile")
		return
	}
	WriteSuccess(w, u, nil)
}

// UpdateMe handles PUT /api/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req backend.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := validateProfile(req); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	u, err := manager(r).UpdateProfile(r.Context(), req)
	if err != nil {
		h.writeBackendError(w, r, err, "profile update")
		return
	}
	h.logEvent(r, model.EventLevelInfo, model.EventCategoryAuth, "Profile updated", nil)
	WriteSuccess(w, u, nil)
}
