// Package service coordinates the queue, the generation engine and the
// background runner, and keeps the result of the last run.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chpines/hotspot-tickets/internal/device"
	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
	"github.com/chpines/hotspot-tickets/internal/queue"
	"github.com/chpines/hotspot-tickets/internal/ticket"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

// ErrEmptyQueue is returned when processing is requested with nothing queued.
var ErrEmptyQueue = apperrors.NewValidationError("queue is empty")

// ErrNoResult is returned when an operation needs a previous run.
var ErrNoResult = apperrors.NewValidationError("no tickets generated yet")

// GenerationResult is the outcome of the most recent run.
type GenerationResult struct {
	RunID      string
	Records    []ticket.Record
	Summary    ticket.Summary
	StartedAt  time.Time
	FinishedAt time.Time

	// Err is set when the run stopped early (cancellation or a batch error).
	// Records produced before it are kept.
	Err error
}

// AdHocRequest describes a single generation outside the queue.
type AdHocRequest struct {
	Prefix      string
	Quantity    int
	Profile     string
	DurationRaw string
}

// Service owns the queue and the last result. It is safe for concurrent use.
type Service struct {
	queue  *queue.Queue
	engine *ticket.Engine
	runner *worker.Runner
	log    *slog.Logger

	mu     sync.RWMutex
	result *GenerationResult
}

// New wires a service around its collaborators.
func New(q *queue.Queue, engine *ticket.Engine, runner *worker.Runner, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{queue: q, engine: engine, runner: runner, log: log}
}

// Enqueue adds a batch and returns the queued ticket total.
func (s *Service) Enqueue(b queue.Batch) (int, error) {
	total, err := s.queue.Enqueue(b)
	if err != nil {
		return total, err
	}
	s.log.Info("batch queued", "prefix", b.Prefix, "quantity", b.Quantity, "queued_total", total)
	return total, nil
}

// LoadPlan enqueues every batch of a plan file.
func (s *Service) LoadPlan(path string) (int, error) {
	return queue.LoadPlan(path, s.queue)
}

// Queue returns a snapshot of pending batches.
func (s *Service) Queue() []queue.Batch {
	return s.queue.Snapshot()
}

// QueuedTotal returns the number of tickets pending in the queue.
func (s *Service) QueuedTotal() int {
	return s.queue.Total()
}

// ClearQueue drops every pending batch.
func (s *Service) ClearQueue() {
	s.queue.Clear()
}

// Runner exposes the background runner for cancellation and status.
func (s *Service) Runner() *worker.Runner {
	return s.runner
}

// ProcessQueue drains the queue in the background and generates every batch
// in order, provisioning through sess when it is not nil. When the run stops
// early, the work it did not do goes back to the head of the queue: the rest
// of the interrupted batch and every batch after it.
func (s *Service) ProcessQueue(ctx context.Context, sess device.Session) (*worker.Task, error) {
	if s.queue.Len() == 0 {
		return nil, ErrEmptyQueue
	}

	return s.runner.Start(ctx, "process queue", func(ctx context.Context, w worker.EventWriter) error {
		batches := s.queue.Drain()
		if len(batches) == 0 {
			return ErrEmptyQueue
		}
		_, unfinished, err := s.generate(ctx, batches, sess, w)
		if len(unfinished) > 0 {
			s.queue.Restore(unfinished)
			s.log.Warn("run stopped early, unfinished batches restored", "batches", len(unfinished))
		}
		return err
	})
}

// GenerateAdHoc generates one batch in the background without touching the queue.
func (s *Service) GenerateAdHoc(ctx context.Context, req AdHocRequest, sess device.Session) (*worker.Task, error) {
	profile := req.Profile
	if profile == "" {
		profile = device.DefaultProfile
	}
	b := queue.Batch{
		Prefix:      req.Prefix,
		Quantity:    req.Quantity,
		Profile:     profile,
		DurationRaw: req.DurationRaw,
		TicketType:  queue.DefaultTicketType,
		EnqueuedAt:  time.Now(),
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	return s.runner.Start(ctx, "generate "+b.Prefix, func(ctx context.Context, w worker.EventWriter) error {
		_, _, err := s.generate(ctx, []queue.Batch{b}, sess, w)
		return err
	})
}

// generate runs batches in order. On an early stop it also returns the work
// left undone: the interrupted batch reduced to its missing tickets, followed
// by the batches never started.
func (s *Service) generate(ctx context.Context, batches []queue.Batch, sess device.Session, w worker.EventWriter) ([]ticket.Record, []queue.Batch, error) {
	result := &GenerationResult{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
	log := s.log.With("run_id", result.RunID)

	total := 0
	for _, b := range batches {
		total += b.Quantity
	}

	run := s.engine.NewRun()
	var records []ticket.Record
	var unfinished []queue.Batch
	var runErr error
	for i, b := range batches {
		base := len(records)
		batchRecords, err := run.Batch(ctx, b, sess, func(done, _ int, rec ticket.Record) {
			w.WriteProgress(base+done, total, rec.Username)
		})
		records = append(records, batchRecords...)
		if err != nil {
			runErr = fmt.Errorf("batch %s: %w", b.Label(), err)
			unfinished = remainder(b, len(batchRecords), batches[i+1:])
			break
		}
	}

	result.Records = records
	result.Summary = ticket.Summarize(records)
	result.FinishedAt = time.Now()
	result.Err = runErr

	// An empty run keeps the previous result.
	if len(records) > 0 {
		s.mu.Lock()
		s.result = result
		s.mu.Unlock()
	}

	log.Info("run finished", "summary", result.Summary.String(), "elapsed", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond))
	return records, unfinished, runErr
}

// remainder is b without its produced tickets, followed by rest.
func remainder(b queue.Batch, produced int, rest []queue.Batch) []queue.Batch {
	out := make([]queue.Batch, 0, len(rest)+1)
	if left := b.Quantity - produced; left > 0 {
		b.Quantity = left
		out = append(out, b)
	}
	return append(out, rest...)
}

// Result returns a copy of the last result, or ErrNoResult.
func (s *Service) Result() (GenerationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.result == nil {
		return GenerationResult{}, ErrNoResult
	}
	out := *s.result
	out.Records = make([]ticket.Record, len(s.result.Records))
	copy(out.Records, s.result.Records)
	return out, nil
}

// HasResult reports whether a run has produced records.
func (s *Service) HasResult() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result != nil
}

// Cancelled reports whether err comes from a cancelled run.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}
