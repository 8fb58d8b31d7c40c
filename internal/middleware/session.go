// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/kv"
)

// Session creates middleware that exposes the visitor storage and a
// restored auth manager to handlers. It must run inside sm.LoadAndSave
// and after Language.
func Session(sm *scs.SessionManager, provider *auth.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storage := kv.NewSession(sm)
			ctx := context.WithValue(r.Context(), ContextKeyStorage, kv.Storage(storage))

			m := provider.Manager(ctx, storage, GetLanguage(r))
			ctx = auth.NewContext(ctx, m)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
