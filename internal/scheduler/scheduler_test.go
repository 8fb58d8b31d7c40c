// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/folio-go/internal/testutil"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s := New(testutil.TestLoggerSilent())
	s.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		s.Stop(ctx)
	})
	return s
}

func TestScheduler_AddAndList(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.Add(Job{Name: "b_job", Schedule: "@hourly", Run: noop}))
	require.NoError(t, s.Add(Job{Name: "a_job", Description: "first", Schedule: "*/5 * * * *", Run: noop}))

	jobs := s.Registry().List()
	require.Len(t, jobs, 2)
	assert.Equal(t, "a_job", jobs[0].Name)
	assert.Equal(t, "first", jobs[0].Description)
	assert.False(t, jobs[0].NextRun.IsZero(), "started scheduler should know the next run")
	assert.True(t, jobs[0].LastRun.IsZero())
}

func TestScheduler_AddRejectsBadJobs(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	noop := func(context.Context) error { return nil }

	assert.Error(t, s.Add(Job{Name: "bad", Schedule: "every minute", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "", Schedule: "@daily", Run: noop}))
	assert.Error(t, s.Add(Job{Name: "norun", Schedule: "@daily"}))

	require.NoError(t, s.Add(Job{Name: "dup", Schedule: "@daily", Run: noop}))
	assert.ErrorIs(t, s.Add(Job{Name: "dup", Schedule: "@daily", Run: noop}), ErrJobExists)
}

func TestRegistry_TriggerNow(t *testing.T) {
	s := newTestScheduler(t)
	var runs atomic.Int32
	boom := errors.New("boom")
	fail := true

	require.NoError(t, s.Add(Job{Name: "job", Schedule: "@yearly", Run: func(context.Context) error {
		runs.Add(1)
		if fail {
			return boom
		}
		return nil
	}}))

	err := s.Registry().TriggerNow(context.Background(), "job")
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, runs.Load())

	info := s.Registry().List()[0]
	assert.Equal(t, "boom", info.LastError)
	assert.False(t, info.LastRun.IsZero())

	fail = false
	assert.ErrorIs(t, s.Registry().TriggerNow(context.Background(), "job"), ErrTriggerLimit)
	assert.EqualValues(t, 1, runs.Load(), "rate limited trigger must not run")
}

func TestRegistry_TriggerUnknown(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	assert.ErrorIs(t, s.Registry().TriggerNow(context.Background(), "missing"), ErrJobNotFound)
}

func TestRegistry_NoOverlap(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	started := make(chan struct{})
	release := make(chan struct{})

	require.NoError(t, s.Add(Job{Name: "slow", Schedule: "@yearly", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))

	done := make(chan error, 1)
	go func() { done <- s.Registry().TriggerNow(context.Background(), "slow") }()
	<-started

	rj := s.Registry().jobs["slow"]
	assert.ErrorIs(t, s.Registry().run(context.Background(), rj), ErrJobRunning)
	assert.True(t, s.Registry().List()[0].Running)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, s.Registry().List()[0].Running)
}

func TestRegistry_RunTimesOut(t *testing.T) {
	s := New(testutil.TestLoggerSilent())
	s.timeout = 10 * time.Millisecond

	require.NoError(t, s.Add(Job{Name: "hang", Schedule: "@yearly", Run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}))

	err := s.Registry().TriggerNow(context.Background(), "hang")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
