// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/folio-go/internal/testutil"
)

type fakeWarmer struct{ langs []string }

func (f *fakeWarmer) Warm(_ context.Context, langs []string) error {
	f.langs = langs
	return nil
}

type fakeReloader struct {
	reloaded bool
	err      error
}

func (f fakeReloader) Reload() (bool, error) { return f.reloaded, f.err }

type fakePruner struct{ olderThan time.Duration }

func (f *fakePruner) DeleteOldEvents(_ context.Context, olderThan time.Duration) (int64, error) {
	f.olderThan = olderThan
	return 3, nil
}

type fakeCleaner struct{ calls int }

func (f *fakeCleaner) Cleanup() { f.calls++ }

func TestJobs(t *testing.T) {
	ctx := context.Background()
	logger := testutil.TestLoggerSilent()

	w := &fakeWarmer{}
	job := CacheWarmJob(w, []string{"en", "ru"})
	assert.NoError(t, job.Run(ctx))
	assert.Equal(t, []string{"en", "ru"}, w.langs)

	assert.NoError(t, GeoIPReloadJob(fakeReloader{reloaded: true}, logger).Run(ctx))
	assert.Error(t, GeoIPReloadJob(fakeReloader{err: errors.New("missing")}, logger).Run(ctx))

	p := &fakePruner{}
	assert.NoError(t, EventPruneJob(p, 90, logger).Run(ctx))
	assert.Equal(t, 90*24*time.Hour, p.olderThan)

	c := &fakeCleaner{}
	assert.NoError(t, LoginCleanupJob(c).Run(ctx))
	assert.Equal(t, 1, c.calls)
}

func TestJobs_SchedulesParse(t *testing.T) {
	for _, schedule := range []string{ScheduleCacheWarm, ScheduleGeoIPReload, ScheduleEventPrune, ScheduleLoginCleanup} {
		_, err := parser.Parse(schedule)
		assert.NoError(t, err, schedule)
	}
}
