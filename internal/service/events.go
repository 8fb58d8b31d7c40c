// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the site's application services: the audit event
// log and the cached content reads that sit between handlers and the
// backend.
package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/folio-go/internal/content"
	"github.com/olegiv/folio-go/internal/geoip"
	"github.com/olegiv/folio-go/internal/model"
	"github.com/olegiv/folio-go/internal/store"
	"github.com/olegiv/folio-go/internal/util"
)

// Event list bounds.
const (
	DefaultEventsPerPage = 50
	MaxEventsPerPage     = 200
)

// EventService provides event logging functionality.
type EventService struct {
	queries *store.Queries
	geo     *geoip.Lookup
	now     func() time.Time
}

// NewEventService creates a new EventService. geo may be nil.
func NewEventService(db *sql.DB, geo *geoip.Lookup) *EventService {
	return &EventService{
		queries: store.New(db),
		geo:     geo,
		now:     time.Now,
	}
}

// LogEvent creates a new event log entry.
func (s *EventService) LogEvent(ctx context.Context, level, category, message, username, ipAddress string, metadata map[string]any) error {
	metadataJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(b)
		}
	}

	country := ""
	if s.geo != nil && ipAddress != "" {
		country = s.geo.Country(ipAddress)
	}

	_, err := s.queries.CreateEvent(ctx, store.CreateEventParams{
		Level:     level,
		Category:  category,
		Message:   message,
		Username:  username,
		IpAddress: ipAddress,
		Country:   country,
		Metadata:  metadataJSON,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		// Info level keeps this out of the event log handler.
		slog.Info("failed to log event", "error", err, "message", message)
		return err
	}

	return nil
}

// LogRequestEvent logs an event for the request's client, adding the path
// and the browser parsed from the User-Agent header to the metadata.
func (s *EventService) LogRequestEvent(ctx context.Context, r *http.Request, level, category, message, username string, metadata map[string]any) error {
	meta := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		meta[k] = v
	}
	meta["path"] = r.URL.Path
	if browser := describeUserAgent(r.UserAgent()); browser != "" {
		meta["browser"] = browser
	}

	return s.LogEvent(ctx, level, category, message, username, util.ClientIP(r), meta)
}

// LogAuthEvent logs an authentication-related event for a request.
func (s *EventService) LogAuthEvent(ctx context.Context, r *http.Request, level, message, username string, metadata map[string]any) error {
	return s.LogRequestEvent(ctx, r, level, model.EventCategoryAuth, message, username, metadata)
}

// LogContentEvent logs a content change made by a super user.
func (s *EventService) LogContentEvent(ctx context.Context, r *http.Request, message, username string, metadata map[string]any) error {
	return s.LogRequestEvent(ctx, r, model.EventLevelInfo, model.EventCategoryContent, message, username, metadata)
}

// LogSystemEvent logs an event raised by the site itself.
func (s *EventService) LogSystemEvent(ctx context.Context, level, message string, metadata map[string]any) error {
	return s.LogEvent(ctx, level, model.EventCategorySystem, message, "", "", metadata)
}

// EventFilter selects a page of events. Empty fields match everything.
type EventFilter struct {
	Category string
	Level    string
	Page     int
	PerPage  int
}

// EventPage is one page of the event log, newest first.
type EventPage struct {
	Events     []model.Event `json:"events"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PerPage    int           `json:"perPage"`
	TotalPages int           `json:"totalPages"`
}

// ListEvents returns a page of events matching f.
func (s *EventService) ListEvents(ctx context.Context, f EventFilter) (EventPage, error) {
	if f.PerPage <= 0 {
		f.PerPage = DefaultEventsPerPage
	}
	f.PerPage = min(f.PerPage, MaxEventsPerPage)
	f.Page = max(f.Page, 1)

	total, err := s.queries.CountEvents(ctx, store.CountEventsParams{Category: f.Category, Level: f.Level})
	if err != nil {
		return EventPage{}, err
	}

	rows, err := s.queries.ListEvents(ctx, store.ListEventsParams{
		Category: f.Category,
		Level:    f.Level,
		Limit:    int64(f.PerPage),
		Offset:   int64((f.Page - 1) * f.PerPage),
	})
	if err != nil {
		return EventPage{}, err
	}

	events := make([]model.Event, 0, len(rows))
	for _, row := range rows {
		e := model.Event{
			ID:        row.ID,
			Level:     row.Level,
			Category:  row.Category,
			Message:   row.Message,
			Username:  row.Username,
			IPAddress: row.IpAddress,
			Country:   row.Country,
			Metadata:  row.Metadata,
			CreatedAt: row.CreatedAt,
		}
		if e.Country != "" {
			e.CountryName = geoip.CountryName(e.Country)
		}
		events = append(events, e)
	}

	return EventPage{
		Events:     events,
		Total:      int(total),
		Page:       f.Page,
		PerPage:    f.PerPage,
		TotalPages: content.TotalPages(int(total), f.PerPage),
	}, nil
}

// DeleteOldEvents removes events older than the specified duration and
// returns how many were removed.
func (s *EventService) DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-olderThan)
	return s.queries.DeleteOldEvents(ctx, cutoff)
}

// describeUserAgent renders "Browser Version on OS", or "bot" for crawlers.
func describeUserAgent(raw string) string {
	if raw == "" {
		return ""
	}
	ua := useragent.Parse(raw)
	if ua.Bot {
		return "bot"
	}
	if ua.Name == "" {
		return ""
	}

	desc := ua.Name
	if ua.VersionNo.Major > 0 {
		desc += " " + ua.Version
	}
	if ua.OS != "" {
		desc += " on " + ua.OS
	}
	return desc
}
