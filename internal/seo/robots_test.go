// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package seo

import (
	"strings"
	"testing"
)

func TestBuildRobots_Default(t *testing.T) {
	content := BuildRobots(RobotsConfig{SiteURL: "https://example.com/"})

	if !strings.HasPrefix(content, "User-agent: *\n") {
		t.Error("robots.txt should start with 'User-agent: *'")
	}
	for _, path := range []string{"/admin", "/api/", "/profile", "/login", "/register", "/oauth2/"} {
		if !strings.Contains(content, "Disallow: "+path+"\n") {
			t.Errorf("robots.txt should disallow %q", path)
		}
	}
	if !strings.Contains(content, "Allow: /\n") {
		t.Error("robots.txt should allow the rest of the site")
	}
	if !strings.Contains(content, "Sitemap: https://example.com/sitemap.xml") {
		t.Errorf("robots.txt should reference the sitemap:\n%s", content)
	}
}

func TestBuildRobots_DisallowAll(t *testing.T) {
	content := BuildRobots(RobotsConfig{SiteURL: "https://example.com", DisallowAll: true})

	if content != "User-agent: *\nDisallow: /\n" {
		t.Errorf("content = %q", content)
	}
}

func TestBuildRobots_ExtraPaths(t *testing.T) {
	content := BuildRobots(RobotsConfig{DisallowPaths: []string{"/drafts"}})

	if !strings.Contains(content, "Disallow: /drafts\n") {
		t.Error("extra path not disallowed")
	}
	if strings.Contains(content, "Sitemap:") {
		t.Error("no sitemap line without a site URL")
	}
}

func TestBuildRobots_DoesNotMutateDefaults(t *testing.T) {
	before := len(defaultDisallow)
	_ = BuildRobots(RobotsConfig{DisallowPaths: []string{"/a", "/b"}})
	if len(defaultDisallow) != before {
		t.Error("BuildRobots changed the default list")
	}
}
