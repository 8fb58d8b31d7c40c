// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package backend is the HTTP client for the external REST backend that
// persists accounts, posts, portfolio items and comments.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// TokenStore is the credential source used for authenticated calls.
type TokenStore interface {
	AccessToken(ctx context.Context) string
	Clear(ctx context.Context) error
}

// Client holds the shared HTTP transport and backend location.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New creates a backend client. A zero timeout leaves the transport default.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// BaseURL returns the backend root URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Ping reports whether the backend answers HTTP at all. Any status below
// 500 counts as reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"/content/posts", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: http.MethodHead, Path: "/content/posts", Err: err}
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}

// GoogleAuthorizeURL returns the URL that starts the Google OAuth flow.
// The backend redirects to redirectURI with the token pair in the fragment.
func (c *Client) GoogleAuthorizeURL(redirectURI string) string {
	q := url.Values{}
	q.Set("redirect_uri", redirectURI)
	return c.baseURL + "/auth/oauth2/authorize/google?" + q.Encode()
}

// For returns an API bound to one visitor's credentials and language.
// tokens may be nil for anonymous use.
func (c *Client) For(tokens TokenStore, lang string) *API {
	return &API{client: c, tokens: tokens, lang: lang}
}

// API performs calls on behalf of one visitor.
type API struct {
	client *Client
	tokens TokenStore
	lang   string
}

// Language returns the Accept-Language value sent with each call.
func (a *API) Language() string {
	return a.lang
}

// request describes one backend call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	out    any
	// anonymous calls never carry the bearer credential
	anonymous bool
}

func (a *API) do(ctx context.Context, r request) error {
	u := a.client.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.lang != "" {
		req.Header.Set("Accept-Language", a.lang)
	}

	authenticated := false
	if !r.anonymous && a.tokens != nil {
		if token := a.tokens.AccessToken(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
			authenticated = true
		}
	}

	resp, err := a.client.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: r.method, Path: r.path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := readAPIError(resp)
		if resp.StatusCode == http.StatusUnauthorized && authenticated {
			// The credential is dead; drop it so the visitor becomes anonymous.
			if clearErr := a.tokens.Clear(ctx); clearErr != nil {
				a.client.logger.Error("failed to clear rejected tokens", "error", clearErr)
			}
			a.client.logger.Info("backend rejected access token, credentials cleared", "path", r.path)
		}
		return apiErr
	}

	if r.out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(r.out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &TransportError{Method: r.method, Path: r.path, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

// readAPIError builds an APIError from a failed response.
func readAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(data) == 0 {
		apiErr.Message = http.StatusText(resp.StatusCode)
		return apiErr
	}

	var payload map[string]any
	if json.Unmarshal(data, &payload) == nil {
		apiErr.Payload = payload
		apiErr.Message = messageFromPayload(payload)
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	return apiErr
}
