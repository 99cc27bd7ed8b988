// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recompute

import (
	"context"
	"log/slog"
	"sync"

	"github.com/danielhkuo/anonvote/models"
)

// Runner is one full recompute.
type Runner interface {
	Run(ctx context.Context) (models.TallyResult, error)
}

// Scheduler runs at most one recompute at a time. A trigger that lands
// while a run is in flight queues exactly one follow-up run, however many
// triggers arrive; the in-flight run is never interrupted.
type Scheduler struct {
	ctx    context.Context
	runner Runner
	logger *slog.Logger

	mu        sync.Mutex
	running   bool
	pending   bool
	requested uint64 // triggers accepted
	completed uint64 // highest trigger covered by a finished run
	runs      int
	last      models.TallyResult
	lastErr   error
	changed   chan struct{}
}

// NewScheduler binds runs to ctx; cancelling it fails later runs fast.
func NewScheduler(ctx context.Context, runner Runner, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ctx:     ctx,
		runner:  runner,
		logger:  resolveLogger(logger),
		changed: make(chan struct{}),
	}
}

// Trigger requests a recompute and returns immediately. reason is only
// logged.
func (s *Scheduler) Trigger(reason string) {
	s.trigger(reason)
}

func (s *Scheduler) trigger(reason string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requested++
	gen := s.requested
	if s.running {
		s.pending = true
		s.logger.Debug("recompute queued", "reason", reason)
		return gen
	}
	s.running = true
	s.logger.Debug("recompute started", "reason", reason)
	go s.loop()
	return gen
}

func (s *Scheduler) loop() {
	for {
		s.mu.Lock()
		s.pending = false
		covers := s.requested
		s.mu.Unlock()

		res, err := s.runner.Run(s.ctx)
		if err != nil {
			s.logger.Error("recompute failed", "error", err)
		}

		s.mu.Lock()
		s.runs++
		s.completed = covers
		s.last, s.lastErr = res, err
		close(s.changed)
		s.changed = make(chan struct{})
		if !s.pending {
			s.running = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}
}

// RunNow triggers a recompute and waits for a run that started after the
// call, returning its outcome.
func (s *Scheduler) RunNow(ctx context.Context, reason string) (models.TallyResult, error) {
	gen := s.trigger(reason)
	if err := s.await(ctx, gen); err != nil {
		return models.TallyResult{}, err
	}
	return s.Last()
}

// Wait blocks until every trigger accepted so far has been covered by a
// finished run.
func (s *Scheduler) Wait(ctx context.Context) error {
	s.mu.Lock()
	gen := s.requested
	s.mu.Unlock()
	return s.await(ctx, gen)
}

func (s *Scheduler) await(ctx context.Context, gen uint64) error {
	for {
		s.mu.Lock()
		if s.completed >= gen {
			s.mu.Unlock()
			return nil
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Last returns the outcome of the most recent finished run.
func (s *Scheduler) Last() (models.TallyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

// Runs counts finished runs.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}
