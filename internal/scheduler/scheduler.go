// Package scheduler runs independent periodic tasks from an explicit task
// table advanced by a single ticking loop. Tasks are isolated: a panic or
// error in one task never stops the loop or the other tasks.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/ziamudasar52-stack/deep-Bot/internal/logger"
)

// Task is one periodic unit of work. Gated tasks only run while the gate
// reports the market open.
type Task struct {
	Name     string
	Interval time.Duration
	Gated    bool
	Run      func(ctx context.Context) error
}

type taskState struct {
	Task
	nextDue             time.Time
	consecutiveFailures int
}

// Scheduler advances a table of (interval, next-due, task) tuples on a
// fixed tick. Tasks run in registration order; every due task runs each
// tick even when an earlier one fails.
type Scheduler struct {
	tick  time.Duration
	gate  func() bool
	tasks []*taskState

	onFailure  func(name string, err error)
	onRecovery func(name string, failures int)

	now func() time.Time
}

// New creates a scheduler with the given tick resolution and market gate.
// gate may be nil, in which case gated tasks always run.
func New(tick time.Duration, gate func() bool) *Scheduler {
	if tick <= 0 {
		tick = time.Second
	}
	return &Scheduler{
		tick: tick,
		gate: gate,
		now:  time.Now,
	}
}

// NotifyFailures installs best-effort callbacks: onFailure fires on the
// first failure of a consecutive sequence per task, onRecovery when a
// previously failing task succeeds again. Either may be nil.
func (s *Scheduler) NotifyFailures(onFailure func(name string, err error), onRecovery func(name string, failures int)) {
	s.onFailure = onFailure
	s.onRecovery = onRecovery
}

// Add registers a task. A zero next-due time makes every task due on the
// first pass.
func (s *Scheduler) Add(t Task) {
	s.tasks = append(s.tasks, &taskState{Task: t})
}

// Run executes the loop until ctx is cancelled. All registered tasks get
// an immediate first pass before the ticker takes over.
func (s *Scheduler) Run(ctx context.Context) {
	s.runDue(ctx, s.now())

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.runDue(ctx, s.now())
		}
	}
}

// runDue runs every task whose deadline has passed. The deadline advances
// whether or not the task runs, so a gated task skipped while the market
// is closed does not burst when it reopens.
func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	for _, st := range s.tasks {
		if now.Before(st.nextDue) {
			continue
		}
		st.nextDue = now.Add(st.Interval)

		if st.Gated && s.gate != nil && !s.gate() {
			logger.Debug("Task %s skipped: market closed", st.Name)
			continue
		}
		s.runTask(ctx, st)
	}
}

// runTask executes one task body with panic isolation.
func (s *Scheduler) runTask(ctx context.Context, st *taskState) {
	defer func() {
		if r := recover(); r != nil {
			s.taskFailed(st, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := st.Run(ctx); err != nil {
		s.taskFailed(st, err)
		return
	}

	if st.consecutiveFailures > 0 {
		logger.Info("Task %s recovered after %d consecutive failure(s)", st.Name, st.consecutiveFailures)
		if s.onRecovery != nil {
			s.onRecovery(st.Name, st.consecutiveFailures)
		}
		st.consecutiveFailures = 0
	}
}

func (s *Scheduler) taskFailed(st *taskState, err error) {
	st.consecutiveFailures++
	logger.Error("Task %s failed: %v", st.Name, err)
	if st.consecutiveFailures == 1 && s.onFailure != nil {
		s.onFailure(st.Name, err)
	}
}
