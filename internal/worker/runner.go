package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrBusy is returned by Start while another task is running.
var ErrBusy = errors.New("a task is already running")

// RunnerConfig holds configuration for the runner.
type RunnerConfig struct {
	// Logger receives task lifecycle logs. Defaults to slog.Default().
	Logger *slog.Logger

	// ActivityFn is called for lifecycle messages (start, end, failure).
	ActivityFn func(level, msg string)
}

// Runner runs at most one task at a time.
type Runner struct {
	config RunnerConfig
	log    *slog.Logger

	mu      sync.Mutex
	current *Task
}

// NewRunner creates a new task runner.
func NewRunner(config RunnerConfig) *Runner {
	log := config.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Runner{config: config, log: log}
}

// Start launches fn in the background. The task context derives from ctx.
func (r *Runner) Start(ctx context.Context, name string, fn TaskFunc) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current != nil && r.current.Running() {
		return nil, fmt.Errorf("%w: %s", ErrBusy, r.current.Name)
	}

	taskCtx, cancel := context.WithCancel(ctx)
	task := &Task{
		ID:        uuid.New().String(),
		Name:      name,
		StartedAt: time.Now(),
		events:    make(chan Event, eventBuffer),
		done:      make(chan struct{}),
		cancel:    cancel,
	}
	r.current = task

	go r.run(taskCtx, task, fn)
	return task, nil
}

func (r *Runner) run(ctx context.Context, task *Task, fn TaskFunc) {
	log := r.log.With("task", task.Name, "task_id", task.ID)
	w := &taskWriter{task: task, activity: r.config.ActivityFn}

	defer func() {
		task.cancel()
		close(task.events)
		r.mu.Lock()
		if r.current == task {
			r.current = nil
		}
		r.mu.Unlock()
		close(task.done)
	}()

	log.Debug("task started")
	w.WriteStart(task.Name + " started")

	err := runSafely(ctx, fn, w)
	elapsed := time.Since(task.StartedAt).Round(time.Millisecond)

	task.mu.Lock()
	task.err = err
	task.mu.Unlock()

	if err != nil {
		cancelled := errors.Is(err, context.Canceled)
		if cancelled {
			log.Warn("task cancelled", "elapsed", elapsed)
		} else {
			log.Error("task failed", "elapsed", elapsed, "error", err)
		}
		w.WriteError(err, cancelled)
		return
	}

	log.Info("task completed", "elapsed", elapsed)
	w.WriteEnd(fmt.Sprintf("%s completed (%v)", task.Name, elapsed))
}

// runSafely turns a panicking task into a failed one.
func runSafely(ctx context.Context, fn TaskFunc, w EventWriter) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("task panicked: %v", p)
		}
	}()
	return fn(ctx, w)
}

// Current returns the running task, or nil when idle.
func (r *Runner) Current() *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Busy reports whether a task is running.
func (r *Runner) Busy() bool {
	return r.Current() != nil
}

// Cancel requests cancellation of the running task and reports whether there was one.
func (r *Runner) Cancel() bool {
	task := r.Current()
	if task == nil {
		return false
	}
	task.Cancel()
	return true
}
