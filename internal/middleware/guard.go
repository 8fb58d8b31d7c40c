// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/service"
	"github.com/olegiv/folio-go/internal/util"
)

// RequireAuthenticated creates middleware that admits only authenticated
// visitors. Others are sent to loginPath with a next parameter.
func RequireAuthenticated(loginPath string) func(http.Handler) http.Handler {
	return guard(auth.NeedAuthenticated, loginPath, true, nil)
}

// RequireSuperUser creates middleware that admits only super users.
// Others are sent to homePath. Denials are written to the event log when
// events is not nil.
func RequireSuperUser(homePath string, events *service.EventService) func(http.Handler) http.Handler {
	return guard(auth.NeedSuperUser, homePath, false, events)
}

func guard(req auth.Requirement, target string, withNext bool, events *service.EventService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := auth.FromContext(r.Context())
			if m == nil {
				slog.Error("route guard used without session middleware", "path", r.URL.Path)
				WriteAPIError(w, http.StatusInternalServerError, "internal_error", "Internal Server Error", nil)
				return
			}

			// A stored token without a cached profile is confirmed first.
			m.Verify(r.Context())
			decision := auth.Decide(req, m.Session(r.Context()), target)
			if decision.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			username := ""
			if u := m.User(); u != nil {
				username = u.Username
			}
			if decision.Status == http.StatusForbidden {
				slog.Warn("access denied",
					"status", decision.Status,
					"method", r.Method,
					"path", r.URL.Path,
					"username", username,
					"remote_addr", util.ClientIP(r),
				)
				if events != nil {
					_ = events.LogRequestEvent(r.Context(), r, model.EventLevelWarning, model.EventCategoryAuth,
						"Access denied: super user required", username, map[string]any{"method": r.Method})
				}
			}

			redirect := decision.RedirectTo
			if withNext && r.Method == http.MethodGet && !IsAPIRequest(r) {
				redirect += "?" + url.Values{"next": {r.URL.RequestURI()}}.Encode()
			}

			if IsAPIRequest(r) {
				code := "unauthorized"
				msg := "Authentication required"
				if decision.Status == http.StatusForbidden {
					code = "forbidden"
					msg = "Forbidden: insufficient permissions"
				}
				WriteAPIError(w, decision.Status, code, msg, map[string]string{"redirect": redirect})
				return
			}
			http.Redirect(w, r, redirect, http.StatusSeeOther)
		})
	}
}
