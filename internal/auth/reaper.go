// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Curio Contributors

package auth

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/curioweb/curio/pkg/errutil"
)

// DefaultReapInterval is how often expired sessions are purged.
const DefaultReapInterval = 10 * time.Minute

// Reaper periodically deletes expired sessions so session storage stays
// bounded by the number of logins within one TTL.
type Reaper struct {
	sessions SessionRepository
	interval time.Duration
	observe  func(removed int64)
	timeout  time.Duration
	logger   *slog.Logger
	clock    func() time.Time

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ReaperOption configures a Reaper.
type ReaperOption func(*Reaper)

// WithReaperLogger sets the reaper's logger.
func WithReaperLogger(logger *slog.Logger) ReaperOption {
	return func(r *Reaper) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithReaperTimeout bounds each purge cycle's repository call.
func WithReaperTimeout(d time.Duration) ReaperOption {
	return func(r *Reaper) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithReaperClock replaces time.Now, for tests.
func WithReaperClock(now func() time.Time) ReaperOption {
	return func(r *Reaper) {
		r.clock = now
	}
}

// NewReaper creates a Reaper. observe, if non-nil, is called with the
// number of sessions removed by each successful cycle.
func NewReaper(sessions SessionRepository, interval time.Duration, observe func(removed int64), opts ...ReaperOption) *Reaper {
	if interval <= 0 {
		interval = DefaultReapInterval
	}
	r := &Reaper{
		sessions: sessions,
		interval: interval,
		observe:  observe,
		timeout:  DefaultStoreTimeout,
		logger:   slog.Default(),
		clock:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce executes a single purge cycle.
func (r *Reaper) RunOnce(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	removed, err := r.sessions.DeleteExpired(ctx, r.clock().UTC())
	if err != nil {
		return 0, err
	}
	if r.observe != nil {
		r.observe(removed)
	}
	if removed > 0 {
		r.logger.Info("reaped expired sessions", "count", removed)
	}
	return removed, nil
}

// Start begins periodic purging in a background goroutine.
func (r *Reaper) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.run(ctx)
}

// Stop stops the reaper and waits for the current cycle to finish.
func (r *Reaper) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				errutil.LogErrorContext(ctx, r.logger, "session reap cycle failed", err)
			}
		}
	}
}
