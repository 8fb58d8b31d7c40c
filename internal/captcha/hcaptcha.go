// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package captcha verifies hCaptcha responses submitted with public forms.
package captcha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultVerifyURL is the hCaptcha verification endpoint.
	DefaultVerifyURL = "https://api.hcaptcha.com/siteverify"
	verifyTimeout    = 10 * time.Second
	// FormField is the form field the hCaptcha widget fills in.
	FormField = "h-captcha-response"
)

// Verification errors. ErrRequired and ErrInvalid are the visitor's
// fault; any other error means the check could not be made.
var (
	ErrRequired = errors.New("captcha response is required")
	ErrInvalid  = errors.New("captcha verification failed")
)

// VerifyResponse represents the hCaptcha API response.
type VerifyResponse struct {
	Success     bool      `json:"success"`
	ChallengeTS time.Time `json:"challenge_ts"`
	Hostname    string    `json:"hostname"`
	ErrorCodes  []string  `json:"error-codes"`
}

// Verifier checks captcha tokens. A Verifier without a secret accepts
// every request.
type Verifier struct {
	siteKey    string
	secret     string
	verifyURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a verifier.
func New(siteKey, secret string, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Verifier{
		siteKey:    siteKey,
		secret:     secret,
		verifyURL:  DefaultVerifyURL,
		httpClient: &http.Client{Timeout: verifyTimeout},
		logger:     logger,
	}
}

// WithVerifyURL points the verifier at another endpoint.
func (v *Verifier) WithVerifyURL(u string) *Verifier {
	v.verifyURL = u
	return v
}

// Enabled reports whether responses are checked.
func (v *Verifier) Enabled() bool {
	return v != nil && v.secret != ""
}

// SiteKey returns the public key the widget is rendered with.
func (v *Verifier) SiteKey() string {
	if v == nil {
		return ""
	}
	return v.siteKey
}

// Verify checks token for the visitor at remoteIP.
func (v *Verifier) Verify(ctx context.Context, token, remoteIP string) error {
	if !v.Enabled() {
		return nil
	}
	if strings.TrimSpace(token) == "" {
		return ErrRequired
	}

	data := url.Values{}
	data.Set("secret", v.secret)
	data.Set("response", token)
	if v.siteKey != "" {
		data.Set("sitekey", v.siteKey)
	}
	if remoteIP != "" {
		data.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.verifyURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("captcha verification request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("captcha verification returned status %d", resp.StatusCode)
	}

	var result VerifyResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&result); err != nil {
		return fmt.Errorf("failed to parse captcha response: %w", err)
	}
	if !result.Success {
		v.logger.Warn("captcha verification failed",
			"error_codes", result.ErrorCodes,
			"remote_addr", remoteIP,
		)
		return ErrInvalid
	}
	return nil
}

// IsRejection reports whether err means the visitor failed the captcha.
func IsRejection(err error) bool {
	return errors.Is(err, ErrRequired) || errors.Is(err, ErrInvalid)
}
