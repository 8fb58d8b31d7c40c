// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/mail"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/olegiv/folio-go/internal/auth"
	"github.com/olegiv/folio-go/internal/backend"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/util"
)

// Field limits.
const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
	maxTitleLength    = 200
	maxCommentLength  = 2000
)

// fieldErrors collects validation messages keyed by field.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) orNil() map[string]string {
	if len(f) == 0 {
		return nil
	}
	return f
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

func validHTTPURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// validateRegistration checks the form before it reaches the session
// manager. Password confirmation is left to the manager.
func validateRegistration(in auth.RegisterInput) map[string]string {
	errs := fieldErrors{}
	n := utf8.RuneCountInString(in.Username)
	switch {
	case n == 0:
		errs.add(auth.FieldUsername, "Username is required")
	case n < minUsernameLength || n > maxUsernameLength:
		errs.add(auth.FieldUsername, "Username must be between 3 and 50 characters")
	}
	switch {
	case in.Email == "":
		errs.add(auth.FieldEmail, "Email is required")
	case !validEmail(in.Email):
		errs.add(auth.FieldEmail, "Invalid email address")
	}
	if utf8.RuneCountInString(in.Password) < minPasswordLength {
		errs.add("password", "Password must be at least 6 characters")
	}
	return errs.orNil()
}

func validateProfile(in backend.ProfileUpdate) map[string]string {
	errs := fieldErrors{}
	if in.Email != "" && !validEmail(in.Email) {
		errs.add("email", "Invalid email address")
	}
	if in.AvatarURL != "" && !validHTTPURL(in.AvatarURL) {
		errs.add("avatarUrl", "Avatar must be an http(s) URL")
	}
	if in.Birthday != "" {
		if _, err := time.Parse(time.DateOnly, in.Birthday); err != nil {
			errs.add("birthday", "Birthday must be a date (YYYY-MM-DD)")
		}
	}
	return errs.orNil()
}

// normalizePostInput trims the input, derives a slug from the title when
// none is given and dates undated posts now.
func normalizePostInput(in *model.PostInput) map[string]string {
	in.Title = strings.TrimSpace(in.Title)
	in.TitleLocalized = strings.TrimSpace(in.TitleLocalized)
	in.CategoryKey = strings.TrimSpace(in.CategoryKey)
	in.Slug = strings.TrimSpace(in.Slug)
	if in.Slug == "" {
		in.Slug = util.Slugify(in.Title)
	}
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	errs := fieldErrors{}
	switch {
	case in.Title == "":
		errs.add("title", "Title is required")
	case utf8.RuneCountInString(in.Title) > maxTitleLength:
		errs.add("title", "Title must be at most 200 characters")
	}
	if strings.TrimSpace(in.Content) == "" {
		errs.add("content", "Content is required")
	}
	if in.Slug != "" && !util.IsValidSlug(in.Slug) {
		errs.add("slug", "Invalid slug format (use lowercase letters, numbers, and hyphens)")
	}
	if in.ImageURL != "" && !validHTTPURL(in.ImageURL) {
		errs.add("imageUrl", "Image must be an http(s) URL")
	}
	return errs.orNil()
}

func normalizePortfolioInput(in *model.PortfolioInput) map[string]string {
	in.Title = strings.TrimSpace(in.Title)
	in.TitleLocalized = strings.TrimSpace(in.TitleLocalized)
	in.CategoryKey = strings.TrimSpace(in.CategoryKey)
	if in.Date.IsZero() {
		in.Date = time.Now().UTC()
	}

	errs := fieldErrors{}
	switch {
	case in.Title == "":
		errs.add("title", "Title is required")
	case utf8.RuneCountInString(in.Title) > maxTitleLength:
		errs.add("title", "Title must be at most 200 characters")
	}
	switch {
	case in.ImageURL == "":
		errs.add("imageUrl", "Image is required")
	case !validHTTPURL(in.ImageURL):
		errs.add("imageUrl", "Image must be an http(s) URL")
	}
	return errs.orNil()
}

func validateComment(text string) map[string]string {
	errs := fieldErrors{}
	switch n := utf8.RuneCountInString(strings.TrimSpace(text)); {
	case n == 0:
		errs.add("content", "Comment cannot be empty")
	case n > maxCommentLength:
		errs.add("content", "Comment must be at most 2000 characters")
	}
	return errs.orNil()
}
