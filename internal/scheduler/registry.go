// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

// Registry errors.
var (
	ErrJobNotFound  = errors.New("job not found")
	ErrJobExists    = errors.New("job already registered")
	ErrTriggerLimit = errors.New("job was triggered too recently")
	ErrJobRunning   = errors.New("job is already running")
)

// manualTriggerInterval is the minimum gap between manual runs of one job.
const manualTriggerInterval = 30 * time.Second

// Job is one periodic task.
type Job struct {
	Name        string
	Description string
	Schedule    string // standard 5-field cron expression or descriptor
	Run         func(ctx context.Context) error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"lastRun,omitzero"`
	LastError   string    `json:"lastError,omitempty"`
	NextRun     time.Time `json:"nextRun,omitzero"`
	Running     bool      `json:"running"`
}

type registeredJob struct {
	job     Job
	cron    *cron.Cron
	entryID cron.EntryID
	limiter *rate.Limiter
	timeout time.Duration

	mu      sync.Mutex
	running bool
	lastRun time.Time
	lastErr string
}

// Registry tracks registered jobs and their last outcome.
type Registry struct {
	logger *slog.Logger
	mu     sync.RWMutex
	jobs   map[string]*registeredJob
}

func newRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		jobs:   make(map[string]*registeredJob),
	}
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func (r *Registry) add(c *cron.Cron, job Job, timeout time.Duration) error {
	if job.Name == "" || job.Run == nil {
		return errors.New("job needs a name and a run function")
	}
	sched, err := parser.Parse(job.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", job.Schedule, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.Name]; ok {
		return fmt.Errorf("%w: %s", ErrJobExists, job.Name)
	}

	rj := &registeredJob{
		job:     job,
		cron:    c,
		limiter: rate.NewLimiter(rate.Every(manualTriggerInterval), 1),
		timeout: timeout,
	}
	rj.entryID = c.Schedule(sched, cron.FuncJob(func() {
		_ = r.run(context.Background(), rj)
	}))
	r.jobs[job.Name] = rj

	r.logger.Debug("registered scheduled job", "name", job.Name, "schedule", job.Schedule)
	return nil
}

// run executes rj once, recording the outcome. It refuses to overlap a
// run already in progress.
func (r *Registry) run(ctx context.Context, rj *registeredJob) error {
	rj.mu.Lock()
	if rj.running {
		rj.mu.Unlock()
		return ErrJobRunning
	}
	rj.running = true
	rj.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, rj.timeout)
	defer cancel()

	start := time.Now()
	err := rj.job.Run(ctx)

	rj.mu.Lock()
	rj.running = false
	rj.lastRun = start
	rj.lastErr = ""
	if err != nil {
		rj.lastErr = err.Error()
	}
	rj.mu.Unlock()

	if err != nil {
		r.logger.Error("scheduled job failed", "name", rj.job.Name, "duration", time.Since(start), "error", err)
		return err
	}
	r.logger.Debug("scheduled job finished", "name", rj.job.Name, "duration", time.Since(start))
	return nil
}

// List returns every job sorted by name.
func (r *Registry) List() []JobInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]JobInfo, 0, len(r.jobs))
	for _, rj := range r.jobs {
		rj.mu.Lock()
		info := JobInfo{
			Name:        rj.job.Name,
			Description: rj.job.Description,
			Schedule:    rj.job.Schedule,
			LastRun:     rj.lastRun,
			LastError:   rj.lastErr,
			Running:     rj.running,
		}
		rj.mu.Unlock()
		info.NextRun = rj.cron.Entry(rj.entryID).Next
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

// TriggerNow runs a job immediately and waits for it. Manual runs of one
// job are rate limited.
func (r *Registry) TriggerNow(ctx context.Context, name string) error {
	r.mu.RLock()
	rj, ok := r.jobs[name]
	r.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}
	if !rj.limiter.Allow() {
		return ErrTriggerLimit
	}

	r.logger.Info("manually triggering job", "name", name)
	return r.run(ctx, rj)
}
