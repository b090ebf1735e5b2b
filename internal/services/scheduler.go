package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	applog "courtwatch/internal/log"
)

type Refresher interface {
	Refresh(ctx context.Context) (int, error)
}

type Checker interface {
	Seed(ctx context.Context) error
	Check(ctx context.Context) (Change, error)
}

// Scheduler drives the refresh loop and the monitor loop independently.
type Scheduler struct {
	refresher    Refresher
	checker      Checker
	refreshEvery func() time.Duration
	monitorEvery func() time.Duration
}

// NewScheduler takes interval getters so a changed polling interval applies from the next sleep.
func NewScheduler(refresher Refresher, checker Checker, refreshEvery, monitorEvery func() time.Duration) *Scheduler {
	return &Scheduler{
		refresher:    refresher,
		checker:      checker,
		refreshEvery: refreshEvery,
		monitorEvery: monitorEvery,
	}
}

// Run blocks until ctx is cancelled and both loops have drained, then returns ctx.Err().
// The refresh loop runs a cycle straight away; the monitor loop seeds its cache first and
// compares after every interval. A cycle already in progress when ctx is cancelled runs to
// completion; only the sleeps are interrupted.
func (s *Scheduler) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.loop(ctx, "refresh", s.refreshEvery, true, func(ctx context.Context) error {
			_, err := s.refresher.Refresh(ctx)
			return err
		})
	}()
	go func() {
		defer wg.Done()
		if err := s.checker.Seed(context.WithoutCancel(ctx)); err != nil {
			applog.Error(nil, "monitor.seed.fail", err, nil)
		}
		s.loop(ctx, "monitor", s.monitorEvery, false, func(ctx context.Context) error {
			_, err := s.checker.Check(ctx)
			return err
		})
	}()
	wg.Wait()
	return ctx.Err()
}

func (s *Scheduler) loop(ctx context.Context, name string, every func() time.Duration, immediate bool, cycle func(context.Context) error) {
	if immediate && ctx.Err() == nil {
		s.runCycle(ctx, name, cycle)
	}
	for {
		wait := every()
		applog.Debug(nil, name+".sleep", map[string]any{"seconds": wait.Seconds()})
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			applog.Info(nil, name+".stopped", map[string]any{"reason": ctx.Err().Error()})
			return
		case <-timer.C:
		}
		if ctx.Err() != nil {
			applog.Info(nil, name+".stopped", map[string]any{"reason": ctx.Err().Error()})
			return
		}
		s.runCycle(ctx, name, cycle)
	}
}

// runCycle detaches the cycle from cancellation so a shutdown never interrupts a
// half-written batch. Errors are logged; the loop always continues.
func (s *Scheduler) runCycle(ctx context.Context, name string, cycle func(context.Context) error) {
	id := uuid.NewString()
	start := time.Now()
	err := cycle(context.WithoutCancel(ctx))
	fields := map[string]any{"cycle_id": id, "duration_ms": time.Since(start).Milliseconds()}
	if err != nil {
		applog.Error(nil, name+".fail", err, fields)
		return
	}
	applog.Debug(nil, name+".ok", fields)
}
