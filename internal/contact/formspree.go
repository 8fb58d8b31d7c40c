// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package contact validates contact form submissions and relays them to
// Formspree.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultEndpoint is the Formspree submission root.
const DefaultEndpoint = "https://formspree.io/f/"

// Field limits in runes.
const (
	MaxNameLength    = 100
	MaxSubjectLength = 200
	MaxMessageLength = 5000
)

// ErrNotConfigured is returned when no form ID is set.
var ErrNotConfigured = errors.New("contact form is not configured")

// Message is one contact form submission.
type Message struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
	// Captcha is the hCaptcha token; it is checked before relaying and not forwarded.
	Captcha string `json:"captcha,omitempty"`
}

// Normalize trims every field.
func (m *Message) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.Email = strings.TrimSpace(m.Email)
	m.Subject = strings.TrimSpace(m.Subject)
	m.Message = strings.TrimSpace(m.Message)
}

// Validate returns field errors keyed by field name, nil when valid.
func (m Message) Validate() map[string]string {
	errs := make(map[string]string)

	switch {
	case m.Name == "":
		errs["name"] = "Name is required"
	case utf8.RuneCountInString(m.Name) > MaxNameLength:
		errs["name"] = fmt.Sprintf("Name must be at most %d characters", MaxNameLength)
	}

	if m.Email == "" {
		errs["email"] = "Email is required"
	} else if addr, err := mail.ParseAddress(m.Email); err != nil || addr.Address != m.Email {
		errs["email"] = "Invalid email address"
	}

	if utf8.RuneCountInString(m.Subject) > MaxSubjectLength {
		errs["subject"] = fmt.Sprintf("Subject must be at most %d characters", MaxSubjectLength)
	}

	switch {
	case m.Message == "":
		errs["message"] = "Message is required"
	case utf8.RuneCountInString(m.Message) > MaxMessageLength:
		errs["message"] = fmt.Sprintf("Message must be at most %d characters", MaxMessageLength)
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Error is a submission rejected by Formspree.
type Error struct {
	Status      int
	Message     string
	FieldErrors map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("formspree: %d: %s", e.Status, e.Message)
}

// Relay posts messages to one Formspree form.
type Relay struct {
	endpoint   string
	httpClient *http.Client
}

// NewRelay creates a relay for formID. It returns ErrNotConfigured when
// formID is empty.
func NewRelay(formID string, timeout time.Duration) (*Relay, error) {
	if strings.TrimSpace(formID) == "" {
		return nil, ErrNotConfigured
	}
	return &Relay{
		endpoint:   DefaultEndpoint + formID,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// WithEndpoint replaces the submission URL.
func (r *Relay) WithEndpoint(u string) *Relay {
	r.endpoint = u
	return r
}

type submission struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	ReplyTo  string `json:"_replyto"`
	Subject  string `json:"_subject,omitempty"`
	Message  string `json:"message"`
	Language string `json:"language,omitempty"`
}

// Send relays m. lang is recorded with the submission.
func (r *Relay) Send(ctx context.Context, m Message, lang string) error {
	body, err := json.Marshal(submission{
		Name:     m.Name,
		Email:    m.Email,
		ReplyTo:  m.Email,
		Subject:  m.Subject,
		Message:  m.Message,
		Language: lang,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("formspree request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return readError(resp)
}

func readError(resp *http.Response) error {
	var payload struct {
		Error  string `json:"error"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&payload)

	e := &Error{Status: resp.StatusCode, Message: payload.Error}
	for _, fe := range payload.Errors {
		if fe.Field != "" {
			if e.FieldErrors == nil {
				e.FieldErrors = make(map[string]string)
			}
			e.FieldErrors[fe.Field] = fe.Message
		}
		if e.Message == "" {
			e.Message = fe.Message
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}
