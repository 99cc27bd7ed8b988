// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package recompute

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/anonvote/models"
)

// gatedRunner blocks each run until release is signalled.
type gatedRunner struct {
	started  chan struct{}
	release  chan struct{}
	calls    atomic.Int32
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func newGatedRunner() *gatedRunner {
	return &gatedRunner{started: make(chan struct{}, 16), release: make(chan struct{})}
}

func (g *gatedRunner) Run(ctx context.Context) (models.TallyResult, error) {
	if g.inFlight.Add(1) > 1 {
		g.overlap.Store(true)
	}
	defer g.inFlight.Add(-1)

	n := g.calls.Add(1)
	g.started <- struct{}{}
	<-g.release
	return models.TallyResult{RunID: string(rune('0' + n))}, nil
}

func waitStarted(t *testing.T, g *gatedRunner) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("run did not start")
	}
}

func TestSchedulerCoalescesTriggers(t *testing.T) {
	g := newGatedRunner()
	s := NewScheduler(context.Background(), g, nil)

	s.Trigger("submission")
	waitStarted(t, g)

	// Everything that lands during the run collapses into one follow-up.
	for i := 0; i < 10; i++ {
		s.Trigger("submission")
	}
	g.release <- struct{}{}

	waitStarted(t, g)
	g.release <- struct{}{}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}

	if got := g.calls.Load(); got != 2 {
		t.Errorf("runner called %d times, want 2", got)
	}
	if s.Runs() != 2 {
		t.Errorf("Runs() = %d, want 2", s.Runs())
	}
	if g.overlap.Load() {
		t.Error("runs overlapped")
	}
}

func TestSchedulerIdleTriggerRunsOnce(t *testing.T) {
	g := newGatedRunner()
	close(g.release)
	s := NewScheduler(context.Background(), g, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	res, err := s.RunNow(ctx, "registry")
	if err != nil {
		t.Fatalf("RunNow() error = %v", err)
	}
	if res.RunID != "1" {
		t.Errorf("RunNow() = %+v", res)
	}
	if g.calls.Load() != 1 {
		t.Errorf("runner called %d times, want 1", g.calls.Load())
	}
}

func TestSchedulerRunNowWaitsForFreshRun(t *testing.T) {
	g := newGatedRunner()
	s := NewScheduler(context.Background(), g, nil)

	s.Trigger("submission")
	waitStarted(t, g)

	var wg sync.WaitGroup
	var res models.TallyResult
	wg.Add(1)
	go func() {
		defer wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		res, _ = s.RunNow(ctx, "registry")
	}()

	// RunNow cannot be satisfied by the run that was already in flight.
	time.Sleep(20 * time.Millisecond)
	g.release <- struct{}{}
	waitStarted(t, g)
	g.release <- struct{}{}
	wg.Wait()

	if res.RunID != "2" {
		t.Errorf("RunNow() returned run %q, want the follow-up run", res.RunID)
	}
}

func TestSchedulerWaitHonorsContext(t *testing.T) {
	g := newGatedRunner()
	s := NewScheduler(context.Background(), g, nil)
	s.Trigger("submission")
	waitStarted(t, g)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := s.Wait(ctx); err == nil {
		t.Error("Wait() returned before the run finished")
	}
	g.release <- struct{}{}
}
