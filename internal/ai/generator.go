// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ai drafts post titles and bodies with Google Gemini through its
// OpenAI-compatible chat completions endpoint.
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Defaults for the Gemini endpoint.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultModel   = "gemini-2.0-flash"
	requestTimeout = 60 * time.Second
)

// Input limits.
const (
	MaxSourceRunes = 20000
	MaxTitleRunes  = 120
)

// Errors returned by Generator.
var (
	ErrNotConfigured = errors.New("ai: no API key configured")
	ErrEmptyInput    = errors.New("ai: input is empty")
	ErrEmptyResponse = errors.New("ai: model returned no text")
)

// Config configures the generator.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	// MaxRetries is passed to the client; negative keeps the library default.
	MaxRetries int
}

// Generator produces draft text for the content editor.
type Generator struct {
	client openai.Client
	model  string
}

// New creates a generator. It returns ErrNotConfigured without an API key.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithRequestTimeout(requestTimeout),
	}
	if cfg.MaxRetries >= 0 {
		opts = append(opts, option.WithMaxRetries(cfg.MaxRetries))
	}

	return &Generator{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// GenerateTitle suggests a title for a post body.
func (g *Generator) GenerateTitle(ctx context.Context, body, lang string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", ErrEmptyInput
	}

	out, err := g.complete(ctx, titleSystemPrompt(languageName(lang)), truncate(body, MaxSourceRunes), 64, 0.7)
	if err != nil {
		return "", err
	}
	return cleanTitle(out), nil
}

// GenerateContent drafts a Markdown post body for a title.
func (g *Generator) GenerateContent(ctx context.Context, title, lang string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrEmptyInput
	}

	out, err := g.complete(ctx, contentSystemPrompt(languageName(lang)), "Title: "+truncate(title, MaxTitleRunes), 2048, 0.8)
	if err != nil {
		return "", err
	}
	return stripFences(out), nil
}

func (g *Generator) complete(ctx context.Context, system, user string, maxTokens int64, temperature float64) (string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		MaxTokens:   openai.Int(maxTokens),
		Temperature: openai.Float(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("ai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func titleSystemPrompt(lang string) string {
	return fmt.Sprintf(`You write titles for a personal photography and travel blog.
Reply with one title in %s, at most 10 words.
No quotes, no trailing punctuation, no explanations.`, lang)
}

func contentSystemPrompt(lang string) string {
	return fmt.Sprintf(`You write posts for a personal photography and travel blog.
Write the post in %s using Markdown: short paragraphs, at most two "##" headings, no "#" heading.
Between 250 and 500 words. Reply with the post body only.`, lang)
}

// languageName returns the English name of a language code, "English"
// when the code is unknown.
func languageName(code string) string {
	tag, err := language.Parse(code)
	if err != nil || code == "" {
		return "English"
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return "English"
}

// cleanTitle keeps the first line and drops quotes and trailing dots.
func cleanTitle(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(strings.TrimPrefix(s, "Title:"))
	s = strings.Trim(s, "\"'“”«»*# ")
	s = strings.TrimRight(s, ".")
	return truncate(s, MaxTitleRunes)
}

// stripFences removes a Markdown code fence wrapped around the reply.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	return string([]rune(s)[:maxRunes])
}
