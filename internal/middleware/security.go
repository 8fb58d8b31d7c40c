// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// apiCSP applies to JSON and event-stream responses, which are never
// rendered as documents.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// Directive is one Content-Security-Policy directive with its sources.
type Directive struct {
	Name    string
	Sources []string
}

// HeaderPolicy describes the security headers sent with every response.
type HeaderPolicy struct {
	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds.
	// Zero disables the header.
	HSTSMaxAge int

	HSTSSubDomains   bool
	CSP              []Directive
	FrameOptions     string
	ReferrerPolicy   string
	DisabledFeatures []string
	APIPrefix        string
}

// SiteHeaderPolicy returns the policy for the portfolio front end.
// Images come from Cloudinary and Google avatars, the contact form
// embeds hCaptcha and posts to Formspree, and typefaces load from Google
// Fonts. Development adds the Vite dev server and drops HSTS.
func SiteHeaderPolicy(isDev bool) HeaderPolicy {
	hcaptcha := []string{"https://hcaptcha.com", "https://*.hcaptcha.com"}

	script := append([]string{"'self'"}, hcaptcha...)
	connect := append([]string{"'self'"}, hcaptcha...)
	if isDev {
		script = append(script, "'unsafe-inline'", "'unsafe-eval'", "http://localhost:5173")
		connect = append(connect, "http://localhost:5173", "ws://localhost:5173")
	}

	p := HeaderPolicy{
		FrameOptions:   "SAMEORIGIN",
		ReferrerPolicy: "strict-origin-when-cross-origin",
		APIPrefix:      "/api/",
		CSP: []Directive{
			{"default-src", []string{"'self'"}},
			{"script-src", script},
			{"style-src", append([]string{"'self'", "'unsafe-inline'", "https://fonts.googleapis.com"}, hcaptcha...)},
			{"img-src", []string{"'self'", "data:", "blob:", "https://res.cloudinary.com", "https://lh3.googleusercontent.com"}},
			{"font-src", []string{"'self'", "data:", "https://fonts.gstatic.com"}},
			{"connect-src", connect},
			{"frame-src", append([]string{"'self'"}, hcaptcha...)},
			{"object-src", []string{"'none'"}},
			{"base-uri", []string{"'self'"}},
			{"form-action", []string{"'self'", "https://formspree.io"}},
		},
		DisabledFeatures: []string{
			"accelerometer", "browsing-topics", "camera", "geolocation", "gyroscope",
			"interest-cohort", "magnetometer", "microphone", "payment", "usb",
		},
	}
	if !isDev {
		p.HSTSMaxAge = 31536000
		p.HSTSSubDomains = true
	}
	return p
}

// ContentSecurityPolicy renders the CSP directives in order.
func (p HeaderPolicy) ContentSecurityPolicy() string {
	parts := make([]string, 0, len(p.CSP))
	for _, d := range p.CSP {
		if len(d.Sources) == 0 {
			parts = append(parts, d.Name)
			continue
		}
		parts = append(parts, d.Name+" "+strings.Join(d.Sources, " "))
	}
	return strings.Join(parts, "; ")
}

// PermissionsPolicy renders every disabled feature as an empty allowlist,
// sorted by name.
func (p HeaderPolicy) PermissionsPolicy() string {
	features := slices.Clone(p.DisabledFeatures)
	slices.Sort(features)
	parts := make([]string, len(features))
	for i, f := range features {
		parts[i] = f + "=()"
	}
	return strings.Join(parts, ", ")
}

func (p HeaderPolicy) header() http.Header {
	h := http.Header{}
	h.Set("X-Content-Type-Options", "nosniff")
	if csp := p.ContentSecurityPolicy(); csp != "" {
		h.Set("Content-Security-Policy", csp)
	}
	if p.HSTSMaxAge > 0 {
		v := "max-age=" + strconv.Itoa(p.HSTSMaxAge)
		if p.HSTSSubDomains {
			v += "; includeSubDomains"
		}
		h.Set("Strict-Transport-Security", v)
	}
	if p.FrameOptions != "" {
		h.Set("X-Frame-Options", p.FrameOptions)
	}
	if p.ReferrerPolicy != "" {
		h.Set("Referrer-Policy", p.ReferrerPolicy)
	}
	if pp := p.PermissionsPolicy(); pp != "" {
		h.Set("Permissions-Policy", pp)
	}
	return h
}

// SecurityHeaders sets the policy's headers on every response. Requests
// under APIPrefix get a CSP that forbids loading anything.
func SecurityHeaders(p HeaderPolicy) func(http.Handler) http.Handler {
	page := p.header()
	api := page.Clone()
	api.Set("Content-Security-Policy", apiCSP)
	api.Set("X-Frame-Options", "DENY")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			src := page
			if p.APIPrefix != "" && strings.HasPrefix(r.URL.Path, p.APIPrefix) {
				src = api
			}
			dst := w.Header()
			for k, v := range src {
				dst[k] = v
			}
			next.ServeHTTP(w, r)
		})
	}
}
