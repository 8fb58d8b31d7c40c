// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// Post is a blog post stored by the backend.
type Post struct {
	ID               int64     `json:"id"`
	Title            string    `json:"title"`
	TitleLocalized   string    `json:"titleLocalized,omitempty"`
	Content          string    `json:"content"`
	ContentLocalized string    `json:"contentLocalized,omitempty"`
	Excerpt          string    `json:"excerpt,omitempty"`
	ExcerptLocalized string    `json:"excerptLocalized,omitempty"`
	Slug             string    `json:"slug,omitempty"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	CategoryKey      string    `json:"categoryKey"`
	Views            int       `json:"views"`
	Date             time.Time `json:"date"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// PostInput is the payload for creating or updating a post.
type PostInput struct {
	Title            string    `json:"title"`
	TitleLocalized   string    `json:"titleLocalized,omitempty"`
	Content          string    `json:"content"`
	ContentLocalized string    `json:"contentLocalized,omitempty"`
	Excerpt          string    `json:"excerpt,omitempty"`
	ExcerptLocalized string    `json:"excerptLocalized,omitempty"`
	Slug             string    `json:"slug,omitempty"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	CategoryKey      string    `json:"categoryKey"`
	Date             time.Time `json:"date"`
}

// PortfolioItem is a photo in the portfolio.
type PortfolioItem struct {
	ID                   int64     `json:"id"`
	Title                string    `json:"title"`
	TitleLocalized       string    `json:"titleLocalized,omitempty"`
	Description          string    `json:"description,omitempty"`
	DescriptionLocalized string    `json:"descriptionLocalized,omitempty"`
	ImageURL             string    `json:"imageUrl"`
	Width                int       `json:"width,omitempty"`
	Height               int       `json:"height,omitempty"`
	CategoryKey          string    `json:"categoryKey"`
	Views                int       `json:"views"`
	Date                 time.Time `json:"date"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// PortfolioInput is the payload for creating or updating a portfolio item.
type PortfolioInput struct {
	Title                string    `json:"title"`
	TitleLocalized       string    `json:"titleLocalized,omitempty"`
	Description          string    `json:"description,omitempty"`
	DescriptionLocalized string    `json:"descriptionLocalized,omitempty"`
	ImageURL             string    `json:"imageUrl"`
	Width                int       `json:"width,omitempty"`
	Height               int       `json:"height,omitempty"`
	CategoryKey          string    `json:"categoryKey"`
	Date                 time.Time `json:"date"`
}

// Comment is a reader comment on a post.
type Comment struct {
	ID        int64     `json:"id"`
	PostID    int64     `json:"postId"`
	UserID    int64     `json:"userId"`
	Username  string    `json:"username"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommentInput is the payload for creating a comment.
type CommentInput struct {
	PostID  int64  `json:"postId"`
	Content string `json:"content"`
}
