// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth    = "auth"
	EventCategoryContent = "content"
	EventCategoryMedia   = "media"
	EventCategoryContact = "contact"
	EventCategorySystem  = "system"
	EventCategoryCache   = "cache"
)

// Event represents an audit log entry.
type Event struct {
	ID          int64     `json:"id"`
	Level       string    `json:"level"`
	Category    string    `json:"category"`
	Message     string    `json:"message"`
	Username    string    `json:"username,omitempty"`
	IPAddress   string    `json:"ipAddress,omitempty"`
	Country     string    `json:"country,omitempty"`
	CountryName string    `json:"countryName,omitempty"`
	Metadata    string    `json:"metadata"` // JSON object
	CreatedAt   time.Time `json:"createdAt"`
}
