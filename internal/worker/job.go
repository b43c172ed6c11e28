// Package worker runs long generation tasks in the background, one at a time.
//
// The interactive shell and the one-shot commands share this runner so a
// second run can never start while a first is still provisioning:
//
//	Runner.Start -> Task (future) -> Events (progress) -> Wait
package worker

import (
	"context"
	"sync"
	"time"
)

// EventKind identifies a task lifecycle event.
type EventKind int

const (
	EventStarted EventKind = iota
	EventProgress
	EventFinished
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStarted:
		return "started"
	case EventProgress:
		return "progress"
	case EventFinished:
		return "finished"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is published on a task's event channel.
type Event struct {
	TaskID  string
	Kind    EventKind
	Done    int
	Total   int
	Message string

	// Err is set on EventFailed.
	Err error

	// Cancelled marks an EventFailed caused by cancellation.
	Cancelled bool
	At        time.Time
}

// eventBuffer sizes the task event channel. Progress events are dropped
// when a slow reader lets it fill; lifecycle events are never dropped.
const eventBuffer = 256

// Task is a handle on a background run.
type Task struct {
	ID        string
	Name      string
	StartedAt time.Time

	events chan Event
	done   chan struct{}
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

// Events streams task events. The channel is closed after the final
// EventFinished or EventFailed.
func (t *Task) Events() <-chan Event {
	return t.events
}

// Done is closed when the task has finished.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its error.
func (t *Task) Wait() error {
	<-t.done
	return t.Err()
}

// Err returns the task error, or nil while running or after success.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Cancel requests cooperative cancellation. It does not wait.
func (t *Task) Cancel() {
	t.cancel()
}

// Running reports whether the task has not finished yet.
func (t *Task) Running() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}
