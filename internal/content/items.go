// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package content

import (
	"time"

	"github.com/olegiv/folio-go/internal/model"
)

// PostAccessor reads pipeline fields from posts.
type PostAccessor struct{}

func (PostAccessor) Date(p model.Post) time.Time { return p.Date }
func (PostAccessor) Title(p model.Post) string { return p.Title }
func (PostAccessor) LocalizedTitle(p model.Post) string { return p.TitleLocalized }
func (PostAccessor) Views(p model.Post) int { return p.Views }
func (PostAccessor) Category(p model.Post) string { return p.CategoryKey }

func (PostAccessor) SearchFields(p model.Post) []string {
	return []string{p.Title, p.TitleLocalized, p.Content, p.ContentLocalized, p.Excerpt, p.ExcerptLocalized}
}

// PortfolioAccessor reads pipeline fields from portfolio items.
type PortfolioAccessor struct{}

func (PortfolioAccessor) Date(p model.PortfolioItem) time.Time { return p.Date }
func (PortfolioAccessor) Title(p model.PortfolioItem) string { return p.Title }
func (PortfolioAccessor) LocalizedTitle(p model.PortfolioItem) string { return p.TitleLocalized }
func (PortfolioAccessor) Views(p model.PortfolioItem) int { return p.Views }
func (PortfolioAccessor) Category(p model.PortfolioItem) string { return p.CategoryKey }

func (PortfolioAccessor) SearchFields(p model.PortfolioItem) []string {
	return []string{p.Title, p.TitleLocalized, p.Description, p.DescriptionLocalized}
}

var (
	_ Accessor[model.Post]          = PostAccessor{}
	_ Accessor[model.PortfolioItem] = PortfolioAccessor{}
)
