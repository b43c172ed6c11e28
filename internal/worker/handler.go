package worker

import (
	"context"
	"time"
)

// TaskFunc is the body of a background task. It reports through w and
// must return promptly once ctx is cancelled.
type TaskFunc func(ctx context.Context, w EventWriter) error

// EventWriter lets a task report its progress.
type EventWriter interface {
	// WriteStart signals the beginning of processing.
	WriteStart(message string) error

	// WriteProgress reports done out of total units.
	WriteProgress(done, total int, message string) error

	// WriteEnd signals successful completion.
	WriteEnd(message string) error

	// WriteError signals failure.
	WriteError(err error, cancelled bool) error
}

// NoOpEventWriter is an EventWriter that does nothing.
// Used when a task body runs outside a Runner.
type NoOpEventWriter struct{}

func (n *NoOpEventWriter) WriteStart(message string) error                     { return nil }
func (n *NoOpEventWriter) WriteProgress(done, total int, message string) error { return nil }
func (n *NoOpEventWriter) WriteEnd(message string) error                       { return nil }
func (n *NoOpEventWriter) WriteError(err error, cancelled bool) error          { return nil }

// Ensure NoOpEventWriter implements EventWriter
var _ EventWriter = (*NoOpEventWriter)(nil)

// taskWriter publishes events on the task channel. Only the task goroutine
// writes, so the length check below cannot race with another sender.
type taskWriter struct {
	task     *Task
	activity func(level, msg string)
}

func (w *taskWriter) publish(ev Event, lifecycle bool) {
	ev.TaskID = w.task.ID
	ev.At = time.Now()
	if !lifecycle && len(w.task.events) >= cap(w.task.events)-1 {
		return
	}
	select {
	case w.task.events <- ev:
	default:
	}
}

func (w *taskWriter) WriteStart(message string) error {
	w.publish(Event{Kind: EventStarted, Message: message}, true)
	w.report("info", message)
	return nil
}

func (w *taskWriter) WriteProgress(done, total int, message string) error {
	w.publish(Event{Kind: EventProgress, Done: done, Total: total, Message: message}, false)
	return nil
}

func (w *taskWriter) WriteEnd(message string) error {
	w.publish(Event{Kind: EventFinished, Message: message}, true)
	w.report("success", message)
	return nil
}

func (w *taskWriter) WriteError(err error, cancelled bool) error {
	msg := "task failed"
	if err != nil {
		msg = err.Error()
	}
	w.publish(Event{Kind: EventFailed, Err: err, Cancelled: cancelled, Message: msg}, true)
	if cancelled {
		w.report("warning", msg)
	} else {
		w.report("error", msg)
	}
	return nil
}

func (w *taskWriter) report(level, msg string) {
	if w.activity != nil && msg != "" {
		w.activity(level, msg)
	}
}
