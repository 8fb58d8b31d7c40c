// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Default schedules.
const (
	ScheduleCacheWarm    = "*/10 * * * *"
	ScheduleGeoIPReload  = "@daily"
	ScheduleEventPrune   = "30 3 * * *"
	ScheduleLoginCleanup = "*/15 * * * *"
)

// ContentWarmer reloads cached content lists.
type ContentWarmer interface {
	Warm(ctx context.Context, langs []string) error
}

// GeoIPReloader reopens the GeoIP database file.
type GeoIPReloader interface {
	Reload() (bool, error)
}

// EventPruner removes old audit events.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Cleaner drops expired in-memory state.
type Cleaner interface {
	Cleanup()
}

// CacheWarmJob keeps the post and portfolio lists warm for every language.
func CacheWarmJob(w ContentWarmer, langs []string) Job {
	return Job{
		Name:        "cache_warm",
		Description: "Reload post and portfolio lists into the content cache",
		Schedule:    ScheduleCacheWarm,
		Run: func(ctx context.Context) error {
			return w.Warm(ctx, langs)
		},
	}
}

// GeoIPReloadJob picks up a replaced GeoIP database file.
func GeoIPReloadJob(g GeoIPReloader, logger *slog.Logger) Job {
	return Job{
		Name:        "geoip_reload",
		Description: "Reopen the GeoIP country database",
		Schedule:    ScheduleGeoIPReload,
		Run: func(context.Context) error {
			reloaded, err := g.Reload()
			if err != nil {
				return err
			}
			if reloaded {
				logger.Info("GeoIP database reloaded")
			}
			return nil
		},
	}
}

// EventPruneJob deletes audit events older than retentionDays.
func EventPruneJob(p EventPruner, retentionDays int, logger *slog.Logger) Job {
	return Job{
		Name:        "event_prune",
		Description: "Delete audit events past the retention period",
		Schedule:    ScheduleEventPrune,
		Run: func(ctx context.Context) error {
			n, err := p.DeleteOldEvents(ctx, time.Duration(retentionDays)*24*time.Hour)
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("pruned old events", "count", n, "retention_days", retentionDays)
			}
			return nil
		},
	}
}

// LoginCleanupJob drops expired login attempt records.
func LoginCleanupJob(c Cleaner) Job {
	return Job{
		Name:        "login_cleanup",
		Description: "Forget expired failed login attempts and lockouts",
		Schedule:    ScheduleLoginCleanup,
		Run: func(context.Context) error {
			c.Cleanup()
			return nil
		},
	}
}
