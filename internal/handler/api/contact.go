// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"net/http"

	"github.com/olegiv/folio-go/internal/captcha"
	"github.com/olegiv/folio-go/internal/contact"
	"github.com/olegiv/folio-go/internal/middleware"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/util"
)

// ContactConfig tells the contact form what to render.
type ContactConfig struct {
	Enabled         bool   `json:"enabled"`
	CaptchaSiteKey  string `json:"captchaSiteKey,omitempty"`
	CaptchaRequired bool   `json:"captchaRequired"`
}

// GetContactConfig handles GET /api/contact.
func (h *Handler) GetContactConfig(w http.ResponseWriter, _ *http.Request) {
	WriteSuccess(w, ContactConfig{
		Enabled:         h.Contact != nil,
		CaptchaSiteKey:  h.Captcha.SiteKey(),
		CaptchaRequired: h.Captcha.Enabled(),
	}, nil)
}

// SubmitContact handles POST /api/contact. Messages are checked against
// the per-IP limit and the captcha before being relayed.
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if h.Contact == nil {
		WriteUnavailable(w, "The contact form is not configured")
		return
	}

	ip := util.ClientIP(r)
	if h.ContactLimiter != nil && !h.ContactLimiter.Allow(ip) {
		h.Logger.Warn("contact rate limit exceeded", "ip", ip)
		WriteError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many messages. Please wait a moment and try again.", nil)
		return
	}

	var msg contact.Message
	if !decodeJSON(w, r, &msg) {
		return
	}
	msg.Normalize()
	if fields := msg.Validate(); fields != nil {
		WriteValidationError(w, fields)
		return
	}

	if err := h.Captcha.Verify(r.Context(), msg.Captcha, ip); err != nil {
		if captcha.IsRejection(err) {
			WriteValidationError(w, map[string]string{"captcha": "Please complete the captcha"})
			return
		}
		h.Logger.Error("captcha verification unavailable", "error", err)
		WriteError(w, http.StatusBadGateway, "captcha_unavailable", "Captcha verification is unavailable. Please try again later.", nil)
		return
	}

	err := h.Contact.Send(r.Context(), msg, middleware.GetLanguage(r))
	var relayErr *contact.Error
	switch {
	case err == nil:
	case errors.As(err, &relayErr) && relayErr.Status < http.StatusInternalServerError:
		if len(relayErr.FieldErrors) > 0 {
			WriteValidationError(w, relayErr.FieldErrors)
			return
		}
		WriteError(w, http.StatusUnprocessableEntity, "rejected", relayErr.Message, nil)
		return
	case errors.Is(err, contact.ErrNotConfigured):
		WriteUnavailable(w, "The contact form is not configured")
		return
	default:
		h.Logger.Error("contact relay failed", "error", err)
		h.logEvent(r, model.EventLevelError, model.EventCategoryContact, "Contact message failed", map[string]any{"error": err.Error()})
		WriteError(w, http.StatusBadGateway, "relay_unavailable", "The message could not be sent. Please try again later.", nil)
		return
	}

	h.logEvent(r, model.EventLevelInfo, model.EventCategoryContact, "Contact message sent", map[string]any{
		"email":   msg.Email,
		"subject": msg.Subject,
	})
	WriteJSON(w, http.StatusAccepted, Response{Data: map[string]bool{"sent": true}})
}
