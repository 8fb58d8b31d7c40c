// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/testutil"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealth_AnonymousGetsStatusOnly(t *testing.T) {
	s := newSite(t)

	resp, body := s.do(http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got["status"] != StatusHealthy {
		t.Errorf("anonymous body = %v, want status only", got)
	}
}

func TestHealth_DetailByRole(t *testing.T) {
	tests := []struct {
		name       string
		role       model.Role
		wantChecks bool
	}{
		{"user", model.RoleUser, false},
		{"super user", model.RoleSuperUser, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSite(t)
			s.login("member", tt.role)

			_, body := s.do(http.MethodGet, "/health?verbose=true", "")
			var got HealthStatus
			if err := json.Unmarshal([]byte(body), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Uptime == "" || got.Version.Version == "" {
				t.Errorf("signed-in body missing uptime or version: %s", body)
			}
			if (got.Checks != nil) != tt.wantChecks {
				t.Errorf("checks present = %v, want %v", got.Checks != nil, tt.wantChecks)
			}
			if (got.System != nil) != tt.wantChecks {
				t.Errorf("system present = %v, want %v", got.System != nil, tt.wantChecks)
			}
			if tt.wantChecks {
				for _, name := range []string{"database", "backend", "disk"} {
					if got.Checks[name].Status != StatusHealthy {
						t.Errorf("check %s = %+v, want healthy", name, got.Checks[name])
					}
				}
			}
		})
	}
}

func TestHealth_BackendDownDegrades(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	h := NewHealthHandler(db, stubPinger{err: errors.New("connection refused")}, t.TempDir())
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got HealthStatusPublic
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Status != StatusDegraded {
		t.Errorf("status = %q, want %q", got.Status, StatusDegraded)
	}
}

func TestHealth_DatabaseDownIsUnhealthy(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	cleanup()

	h := NewHealthHandler(db, stubPinger{}, t.TempDir())
	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestLiveness(t *testing.T) {
	h := NewHealthHandler(nil, nil, "")
	w := httptest.NewRecorder()
	h.Liveness(w, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestReadiness(t *testing.T) {
	db, cleanup := testutil.TestDB(t)

	h := NewHealthHandler(db, stubPinger{err: errors.New("down")}, t.TempDir())
	w := httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Errorf("ready status = %d, want %d", w.Code, http.StatusOK)
	}

	cleanup()
	w = httptest.NewRecorder()
	h.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("closed database status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
}

func TestCheckDiskSpace_MissingDir(t *testing.T) {
	h := NewHealthHandler(nil, nil, t.TempDir()+"/missing")
	if c := h.checkDiskSpace(); c.Status != StatusHealthy {
		t.Errorf("status = %q, want %q", c.Status, StatusHealthy)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.00 KB"},
		{1536 * 1024, "1.50 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
