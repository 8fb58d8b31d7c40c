// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/olegiv/folio-go/internal/i18n"
)

// LanguageCookieName is the cookie name for language preference.
const LanguageCookieName = "folio_lang"

// Language creates middleware that detects and sets the current language.
// Priority order:
// 1. Query parameter ?lang=XX (explicit language switch, updates cookie)
// 2. Cookie preference
// 3. Accept-Language header
// 4. Default language
func Language(m *i18n.Matcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := ""

			if q := r.URL.Query().Get("lang"); q != "" && m.IsSupported(q) {
				lang = m.Match(q)
				SetLanguageCookie(w, lang)
			}
			if lang == "" {
				if c, err := r.Cookie(LanguageCookieName); err == nil && m.IsSupported(c.Value) {
					lang = m.Match(c.Value)
				}
			}
			if lang == "" {
				lang = m.Match(r.Header.Get("Accept-Language"))
			}

			ctx := context.WithValue(r.Context(), ContextKeyLanguage, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SetLanguageCookie stores the language preference for a year.
func SetLanguageCookie(w http.ResponseWriter, lang string) {
	http.SetCookie(w, &http.Cookie{
		Name:     LanguageCookieName,
		Value:    lang,
		Path:     "/",
		Expires:  time.Now().AddDate(1, 0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// GetLanguage returns the request language, "" if Language did not run.
func GetLanguage(r *http.Request) string {
	lang, _ := r.Context().Value(ContextKeyLanguage).(string)
	return lang
}
