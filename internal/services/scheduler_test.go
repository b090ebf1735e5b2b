package services_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"courtwatch/internal/services"
)

type countingRefresher struct {
	calls   int64
	started chan struct{}
	release chan struct{}
	seenErr chan error
}

func (r *countingRefresher) Refresh(ctx context.Context) (int, error) {
	if atomic.AddInt64(&r.calls, 1) == 1 && r.started != nil {
		close(r.started)
		<-r.release
		r.seenErr <- ctx.Err()
	}
	return 0, nil
}

type countingChecker struct {
	seeds  int64
	checks int64
}

func (c *countingChecker) Seed(context.Context) error {
	atomic.AddInt64(&c.seeds, 1)
	return nil
}

func (c *countingChecker) Check(context.Context) (services.Change, error) {
	atomic.AddInt64(&c.checks, 1)
	return services.Change{}, errors.New("query failed")
}

func every(d time.Duration) func() time.Duration { return func() time.Duration { return d } }

func TestScheduler_RunsBothLoopsUntilCancelled(t *testing.T) {
	ref := &countingRefresher{}
	chk := &countingChecker{}
	s := services.NewScheduler(ref, chk, every(5*time.Millisecond), every(5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt64(&ref.calls) < 2 || atomic.LoadInt64(&chk.checks) < 2 {
		select {
		case <-deadline:
			t.Fatalf("loops did not cycle: refresh=%d checks=%d", atomic.LoadInt64(&ref.calls), atomic.LoadInt64(&chk.checks))
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if got := atomic.LoadInt64(&chk.seeds); got != 1 {
		t.Fatalf("seeds = %d, want 1", got)
	}
}

func TestScheduler_CancelDuringSleepReturnsPromptly(t *testing.T) {
	s := services.NewScheduler(&countingRefresher{}, &countingChecker{}, every(time.Hour), every(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("sleeping loops ignored cancellation")
	}
}

func TestScheduler_InFlightCycleFinishes(t *testing.T) {
	ref := &countingRefresher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		seenErr: make(chan error, 1),
	}
	s := services.NewScheduler(ref, &countingChecker{}, every(time.Hour), every(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	<-ref.started
	cancel()
	close(ref.release)

	if err := <-ref.seenErr; err != nil {
		t.Fatalf("cycle context was cancelled mid-cycle: %v", err)
	}
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}
