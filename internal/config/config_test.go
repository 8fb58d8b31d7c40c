// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"os"
	"testing"
	"time"
)

const testSecret = "test-secret-key-32-bytes-long!!!"

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("failed to set %s: %v", key, err)
	}
}

// setRequired sets the variables Load cannot work without.
func setRequired(t *testing.T) {
	t.Helper()
	setEnv(t, "FOLIO_SESSION_SECRET", testSecret)
	setEnv(t, "FOLIO_BACKEND_URL", "https://api.example.com/")
}

func TestLoad_Defaults(t *testing.T) {
	os.Clearenv()
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DBPath != "./data/folio.db" {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, "./data/folio.db")
	}
	if cfg.ServerPort != 8080 {
		t.Errorf("ServerPort = %d, want %d", cfg.ServerPort, 8080)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want %q", cfg.Env, "development")
	}
	if cfg.BackendURL != "https://api.example.com" {
		t.Errorf("BackendURL = %q, want trailing slash trimmed", cfg.BackendURL)
	}
	if cfg.BackendTimeout != 15*time.Second {
		t.Errorf("BackendTimeout = %v, want 15s", cfg.BackendTimeout)
	}
	if !cfg.LegacyAdminUsername {
		t.Error("LegacyAdminUsername = false, want true")
	}
	if cfg.DefaultLanguage() != "en" {
		t.Errorf("DefaultLanguage() = %q, want %q", cfg.DefaultLanguage(), "en")
	}
	if cfg.PageSize != 6 || cfg.PortfolioFirstPage != 12 || cfg.PortfolioBatch != 6 {
		t.Errorf("list sizes = %d/%d/%d, want 6/12/6", cfg.PageSize, cfg.PortfolioFirstPage, cfg.PortfolioBatch)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Clearenv()
	setRequired(t)
	setEnv(t, "FOLIO_SERVER_HOST", "0.0.0.0")
	setEnv(t, "FOLIO_SERVER_PORT", "3000")
	setEnv(t, "FOLIO_ENV", "production")
	setEnv(t, "FOLIO_LANGUAGES", "ko,en")
	setEnv(t, "FOLIO_LEGACY_ADMIN_USERNAME", "false")
	setEnv(t, "FOLIO_BACKEND_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ServerAddr() != "0.0.0.0:3000" {
		t.Errorf("ServerAddr() = %q, want %q", cfg.ServerAddr(), "0.0.0.0:3000")
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
	if cfg.DefaultLanguage() != "ko" {
		t.Errorf("DefaultLanguage() = %q, want %q", cfg.DefaultLanguage(), "ko")
	}
	if cfg.LegacyAdminUsername {
		t.Error("LegacyAdminUsername = true, want false")
	}
	if cfg.BackendTimeout != 3*time.Second {
		t.Errorf("BackendTimeout = %v, want 3s", cfg.BackendTimeout)
	}
}

func TestLoad_RequiredSessionSecret(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FOLIO_BACKEND_URL", "https://api.example.com")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail when FOLIO_SESSION_SECRET is not set")
	}
}

func TestLoad_SessionSecretTooShort(t *testing.T) {
	tests := []struct {
		name   string
		secret string
	}{
		{"short", "short"},
		{"31_bytes", "1234567890123456789012345678901"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "FOLIO_BACKEND_URL", "https://api.example.com")
			setEnv(t, "FOLIO_SESSION_SECRET", tt.secret)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail with %d-byte secret", len(tt.secret))
			}
		})
	}
}

func TestLoad_WeakSecretRejected(t *testing.T) {
	os.Clearenv()
	setEnv(t, "FOLIO_BACKEND_URL", "https://api.example.com")
	setEnv(t, "FOLIO_SESSION_SECRET", knownWeakSecrets[0])

	if _, err := Load(); err == nil {
		t.Fatal("Load() should reject a known default secret")
	}
}

func TestLoad_InvalidBackendURL(t *testing.T) {
	for _, raw := range []string{"not a url", "ftp://example.com", "/relative/path"} {
		t.Run(raw, func(t *testing.T) {
			os.Clearenv()
			setEnv(t, "FOLIO_SESSION_SECRET", testSecret)
			setEnv(t, "FOLIO_BACKEND_URL", raw)

			if _, err := Load(); err == nil {
				t.Fatalf("Load() should fail for backend URL %q", raw)
			}
		})
	}
}

func TestConfig_Integrations(t *testing.T) {
	cfg := Config{}
	if cfg.CloudinaryEnabled() || cfg.GeminiEnabled() || cfg.HCaptchaEnabled() || cfg.GeoIPEnabled() || cfg.UseRedisCache() {
		t.Fatal("zero Config should have every integration disabled")
	}

	cfg = Config{
		CloudinaryCloudName: "demo",
		CloudinaryAPIKey:    "key",
		CloudinaryAPISecret: "secret",
		GeminiAPIKey:        "gm",
		HCaptchaSiteKey:     "site",
		HCaptchaSecretKey:   "secret",
		GeoIPDBPath:         "/tmp/geo.mmdb",
		RedisURL:            "redis://localhost:6379/0",
	}
	if !cfg.CloudinaryEnabled() || !cfg.GeminiEnabled() || !cfg.HCaptchaEnabled() || !cfg.GeoIPEnabled() || !cfg.UseRedisCache() {
		t.Fatal("fully configured Config should have every integration enabled")
	}
}
