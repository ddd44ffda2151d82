package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunDue_IntervalAdvance(t *testing.T) {
	s := New(time.Second, nil)

	runs := 0
	s.Add(Task{Name: "counter", Interval: 10 * time.Second, Run: func(context.Context) error {
		runs++
		return nil
	}})

	t0 := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.runDue(ctx, t0)
	if runs != 1 {
		t.Fatalf("Expected first pass to run the task, got %d runs", runs)
	}
	s.runDue(ctx, t0.Add(5*time.Second))
	if runs != 1 {
		t.Errorf("Task ran before its interval elapsed: %d runs", runs)
	}
	s.runDue(ctx, t0.Add(10*time.Second))
	if runs != 2 {
		t.Errorf("Expected second run at the interval, got %d runs", runs)
	}
}

func TestRunDue_GatedTaskSkipped(t *testing.T) {
	open := false
	s := New(time.Second, func() bool { return open })

	gatedRuns, freeRuns := 0, 0
	s.Add(Task{Name: "gated", Interval: 10 * time.Second, Gated: true, Run: func(context.Context) error {
		gatedRuns++
		return nil
	}})
	s.Add(Task{Name: "free", Interval: 10 * time.Second, Run: func(context.Context) error {
		freeRuns++
		return nil
	}})

	t0 := time.Date(2024, 1, 8, 3, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.runDue(ctx, t0)
	if gatedRuns != 0 {
		t.Error("Gated task ran while the market was closed")
	}
	if freeRuns != 1 {
		t.Error("Ungated task must run regardless of market state")
	}

	open = true
	s.runDue(ctx, t0.Add(10*time.Second))
	if gatedRuns != 1 {
		t.Errorf("Gated task should run once the market opens, got %d runs", gatedRuns)
	}
}

func TestRunDue_PanicIsolation(t *testing.T) {
	s := New(time.Second, nil)

	var failures []string
	s.NotifyFailures(func(name string, _ error) {
		failures = append(failures, name)
	}, nil)

	laterRuns := 0
	s.Add(Task{Name: "broken", Interval: time.Second, Run: func(context.Context) error {
		panic("boom")
	}})
	s.Add(Task{Name: "healthy", Interval: time.Second, Run: func(context.Context) error {
		laterRuns++
		return nil
	}})

	t0 := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.runDue(ctx, t0)
	if laterRuns != 1 {
		t.Error("A panicking task must not prevent later tasks from running")
	}
	if len(failures) != 1 || failures[0] != "broken" {
		t.Errorf("Expected one failure notification for the panicking task, got %v", failures)
	}

	// Consecutive failures notify only once
	s.runDue(ctx, t0.Add(time.Second))
	if len(failures) != 1 {
		t.Errorf("Expected no repeat notification for consecutive failures, got %v", failures)
	}
}

func TestRunDue_FailureAndRecovery(t *testing.T) {
	s := New(time.Second, nil)

	var notifiedErr error
	recovered := -1
	s.NotifyFailures(
		func(_ string, err error) { notifiedErr = err },
		func(_ string, failures int) { recovered = failures },
	)

	calls := 0
	s.Add(Task{Name: "flaky", Interval: time.Second, Run: func(context.Context) error {
		calls++
		if calls <= 2 {
			return errors.New("transient")
		}
		return nil
	}})

	t0 := time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()

	s.runDue(ctx, t0)
	s.runDue(ctx, t0.Add(time.Second))
	s.runDue(ctx, t0.Add(2*time.Second))

	if notifiedErr == nil {
		t.Error("Expected a failure notification")
	}
	if recovered != 2 {
		t.Errorf("Expected recovery after 2 consecutive failures, got %d", recovered)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := New(time.Second, nil)
	s.Add(Task{Name: "noop", Interval: time.Hour, Run: func(context.Context) error { return nil }})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Scheduler did not stop after context cancellation")
	}
}
