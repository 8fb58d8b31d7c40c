// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the site configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"FOLIO_DB_PATH" envDefault:"./data/folio.db"`
	SessionSecret string `env:"FOLIO_SESSION_SECRET,required"`
	ServerHost    string `env:"FOLIO_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"FOLIO_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"FOLIO_ENV" envDefault:"development"`
	LogLevel      string `env:"FOLIO_LOG_LEVEL" envDefault:"info"`
	PublicURL     string `env:"FOLIO_PUBLIC_URL" envDefault:"http://localhost:8080"`

	// REST backend holding posts, portfolio items, comments and accounts
	BackendURL     string        `env:"FOLIO_BACKEND_URL,required"`
	BackendTimeout time.Duration `env:"FOLIO_BACKEND_TIMEOUT" envDefault:"15s"`

	// Visitor storage
	SessionLifetime time.Duration `env:"FOLIO_SESSION_LIFETIME" envDefault:"720h"`

	// Languages offered to visitors; the first one is the default
	Languages []string `env:"FOLIO_LANGUAGES" envDefault:"en,ru" envSeparator:","`

	// Keeps the username "admin" as a super user regardless of role
	LegacyAdminUsername bool `env:"FOLIO_LEGACY_ADMIN_USERNAME" envDefault:"true"`

	// Content list defaults
	PageSize           int `env:"FOLIO_PAGE_SIZE" envDefault:"6"`
	PortfolioFirstPage int `env:"FOLIO_PORTFOLIO_FIRST_PAGE" envDefault:"12"`
	PortfolioBatch     int `env:"FOLIO_PORTFOLIO_BATCH" envDefault:"6"`

	// Cache configuration
	RedisURL     string `env:"FOLIO_REDIS_URL"`                         // Optional Redis URL for distributed caching
	CachePrefix  string `env:"FOLIO_CACHE_PREFIX" envDefault:"folio:"`  // Redis key prefix
	CacheTTL     int    `env:"FOLIO_CACHE_TTL" envDefault:"300"`        // Content cache TTL in seconds
	CacheMaxSize int    `env:"FOLIO_CACHE_MAX_SIZE" envDefault:"10000"` // Max memory cache entries

	// Cloudinary image hosting
	CloudinaryCloudName string `env:"FOLIO_CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"FOLIO_CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"FOLIO_CLOUDINARY_API_SECRET"`
	CloudinaryFolder    string `env:"FOLIO_CLOUDINARY_FOLDER" envDefault:"folio"`
	ImageMaxWidth       int    `env:"FOLIO_IMAGE_MAX_WIDTH" envDefault:"2048"`

	// Formspree contact relay
	FormspreeFormID string `env:"FOLIO_FORMSPREE_FORM_ID"`

	// Gemini content generation
	GeminiAPIKey  string `env:"FOLIO_GEMINI_API_KEY"`
	GeminiModel   string `env:"FOLIO_GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	GeminiBaseURL string `env:"FOLIO_GEMINI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`

	// hCaptcha configuration
	HCaptchaSiteKey   string `env:"FOLIO_HCAPTCHA_SITE_KEY"`
	HCaptchaSecretKey string `env:"FOLIO_HCAPTCHA_SECRET_KEY"`

	// GeoIP configuration
	GeoIPDBPath string `env:"FOLIO_GEOIP_DB_PATH"` // Path to GeoLite2-Country.mmdb file

	// Event log retention in days (0 keeps everything)
	EventRetentionDays int `env:"FOLIO_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// HCaptchaEnabled returns true if hCaptcha is configured.
func (c Config) HCaptchaEnabled() bool {
	return c.HCaptchaSiteKey != "" && c.HCaptchaSecretKey != ""
}

// GeoIPEnabled returns true if GeoIP database is configured.
func (c Config) GeoIPEnabled() bool {
	return c.GeoIPDBPath != ""
}

// CloudinaryEnabled returns true if image uploads are configured.
func (c Config) CloudinaryEnabled() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

// GeminiEnabled returns true if AI generation is configured.
func (c Config) GeminiEnabled() bool {
	return c.GeminiAPIKey != ""
}

// DefaultLanguage returns the first configured language.
func (c Config) DefaultLanguage() string {
	if len(c.Languages) == 0 {
		return "en"
	}
	return c.Languages[0]
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("FOLIO_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if cfg.SessionSecret == weak {
			return nil, fmt.Errorf("FOLIO_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(cfg.SessionSecret) {
		slog.Warn("FOLIO_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	u, err := url.Parse(cfg.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("FOLIO_BACKEND_URL must be an absolute http(s) URL, got %q", cfg.BackendURL)
	}
	cfg.BackendURL = strings.TrimRight(cfg.BackendURL, "/")

	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("FOLIO_PAGE_SIZE must be positive, got %d", cfg.PageSize)
	}
	if cfg.PortfolioFirstPage <= 0 || cfg.PortfolioBatch <= 0 {
		return nil, fmt.Errorf("FOLIO_PORTFOLIO_FIRST_PAGE and FOLIO_PORTFOLIO_BATCH must be positive")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
