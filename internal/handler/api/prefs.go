// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/olegiv/folio-go/internal/prefs"
)

// streamHeartbeat keeps idle event streams from being cut by proxies.
const streamHeartbeat = 25 * time.Second

// PrefsUpdate changes any subset of the preferences.
type PrefsUpdate struct {
	Theme            *prefs.Theme `json:"theme,omitempty"`
	SidebarCollapsed *bool        `json:"sidebarCollapsed,omitempty"`
}

// GetPrefs handles GET /api/prefs.
func (h *Handler) GetPrefs(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, h.prefsStore(r).Snapshot(r.Context(), h.Window), nil)
}

// UpdatePrefs handles PUT /api/prefs.
func (h *Handler) UpdatePrefs(w http.ResponseWriter, r *http.Request) {
	var req PrefsUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	store := h.prefsStore(r)

	if req.Theme != nil {
		if err := store.SetTheme(r.Context(), *req.Theme); err != nil {
			if errors.Is(err, prefs.ErrInvalidTheme) {
				WriteValidationError(w, map[string]string{"theme": "Theme must be light or dark"})
				return
			}
			WriteInternalError(w, "Failed to save preferences")
			return
		}
	}
	if req.SidebarCollapsed != nil {
		if err := store.SetSidebarCollapsed(r.Context(), *req.SidebarCollapsed); err != nil {
			h.Logger.Error("failed to store sidebar state", "error", err)
			WriteInternalError(w, "Failed to save preferences")
			return
		}
	}

	WriteSuccess(w, store.Snapshot(r.Context(), h.Window), nil)
}

// PrefsEvents handles GET /api/prefs/events. It streams the current
// snapshot, then every preference change made by any of the visitor's
// tabs, as server-sent events.
func (h *Handler) PrefsEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	_ = rc.SetWriteDeadline(time.Time{})
	store := h.prefsStore(r)
	changes, cancel := store.Subscribe(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, "snapshot", store.Snapshot(r.Context(), h.Window)); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		h.Logger.Debug("event stream cannot flush", "error", err)
		return
	}

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case c, ok := <-changes:
			if !ok {
				return
			}
			if err := writeEvent(w, "change", c); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data)
	return err
}
