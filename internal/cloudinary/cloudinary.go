// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cloudinary uploads images to Cloudinary with signed requests.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultAPIBase is the Cloudinary upload API root.
const DefaultAPIBase = "https://api.cloudinary.com/v1_1"

// ErrNotConfigured is returned when credentials are missing.
var ErrNotConfigured = errors.New("cloudinary: not configured")

// Config holds the account credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	// APIBase overrides DefaultAPIBase in tests.
	APIBase string
}

// Upload is the part of Cloudinary's upload response the site keeps.
type Upload struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int64  `json:"bytes"`
}

// Error is a failure reported by Cloudinary.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("cloudinary: %d: %s", e.Status, e.Message)
}

// Client performs signed uploads.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// New creates a client. It returns ErrNotConfigured when a credential is empty.
func New(cfg Config, timeout time.Duration) (*Client, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}, nil
}

// Upload stores an image under publicID inside the configured folder.
func (c *Client) Upload(ctx context.Context, publicID, filename string, data []byte) (*Upload, error) {
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if c.cfg.Folder != "" {
		params["folder"] = c.cfg.Folder
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range c.signed(params) {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out Upload
	if err := c.post(ctx, "upload", mw.FormDataContentType(), &body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Destroy removes an uploaded image. The publicID includes the folder.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	params := c.signed(map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	})

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}

	var out struct {
		Result string `json:"result"`
	}
	if err := c.post(ctx, "destroy", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()), &out); err != nil {
		return err
	}
	if out.Result != "ok" && out.Result != "not found" {
		return &Error{Status: http.StatusOK, Message: "destroy result " + out.Result}
	}
	return nil
}

// signed returns params plus api_key and signature.
func (c *Client) signed(params map[string]string) map[string]string {
	out := make(map[string]string, len(params)+2)
	for k, v := range params {
		out[k] = v
	}
	out["signature"] = Sign(params, c.cfg.APISecret)
	out["api_key"] = c.cfg.APIKey
	return out
}

// Sign computes Cloudinary's request signature: the SHA-1 of the sorted
// key=value pairs joined by "&" followed by the API secret.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}

func (c *Client) post(ctx context.Context, action, contentType string, body io.Reader, out any) error {
	endpoint := c.cfg.APIBase + "/" + c.cfg.CloudName + "/image/" + action
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cloudinary %s: %w", action, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		var e struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
		msg := e.Error.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &Error{Status: resp.StatusCode, Message: msg}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("cloudinary %s: decoding response: %w", action, err)
	}
	return nil
}
