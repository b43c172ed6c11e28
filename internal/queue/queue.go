// Package queue buffers pending voucher batches until they are processed.
package queue

import (
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
)

// MaxQuantity bounds a single batch.
const MaxQuantity = 10000

// DefaultTicketType is the only ticket type the device flow supports:
// username-only vouchers with an empty password.
const DefaultTicketType = "user_only"

// Batch is one request to generate Quantity vouchers sharing prefix, profile and duration.
type Batch struct {
	Prefix      string    `yaml:"prefix"`
	Quantity    int       `yaml:"quantity"`
	Profile     string    `yaml:"profile"`
	DurationRaw string    `yaml:"duration"`
	TicketType  string    `yaml:"type"`
	EnqueuedAt  time.Time `yaml:"-"`
}

// Label identifies the batch in logs and exported listings.
func (b Batch) Label() string {
	if b.EnqueuedAt.IsZero() {
		return b.Prefix
	}
	return b.Prefix + " (" + b.EnqueuedAt.Format("15:04:05") + ")"
}

// Validate checks the batch invariants.
func (b Batch) Validate() error {
	if strings.TrimSpace(b.Prefix) == "" {
		return apperrors.NewValidationError("prefix cannot be empty")
	}
	if b.Quantity <= 0 {
		return apperrors.NewValidationError("quantity must be greater than 0", "got "+strconv.Itoa(b.Quantity))
	}
	if b.Quantity > MaxQuantity {
		return apperrors.NewValidationError("quantity exceeds limit", "max "+strconv.Itoa(MaxQuantity)+", got "+strconv.Itoa(b.Quantity))
	}
	if strings.TrimSpace(b.DurationRaw) == "" {
		return apperrors.NewValidationError("duration is required")
	}
	return nil
}

// Queue is an ordered list of batches; insertion order is processing order.
// It is safe for concurrent use: the interactive surface reads snapshots while a
// single worker drains it.
type Queue struct {
	mu      sync.Mutex
	batches []Batch
	total   int
	now     func() time.Time
}

// New returns an empty queue.
func New() *Queue {
	return &Queue{now: time.Now}
}

// Enqueue validates and appends b, returning the running ticket total.
func (q *Queue) Enqueue(b Batch) (int, error) {
	b.Prefix = strings.TrimSpace(b.Prefix)
	b.DurationRaw = strings.TrimSpace(b.DurationRaw)
	if err := b.Validate(); err != nil {
		return q.Total(), err
	}
	if b.Profile == "" {
		b.Profile = "default"
	}
	if b.TicketType == "" {
		b.TicketType = DefaultTicketType
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if b.EnqueuedAt.IsZero() {
		b.EnqueuedAt = q.now()
	}
	q.batches = append(q.batches, b)
	q.total += b.Quantity
	return q.total, nil
}

// Snapshot returns a copy of the queued batches.
func (q *Queue) Snapshot() []Batch {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Batch, len(q.batches))
	copy(out, q.batches)
	return out
}

// Len returns the number of queued batches.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.batches)
}

// Total returns the number of tickets across all queued batches.
func (q *Queue) Total() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.total
}

// Clear empties the queue. Clearing an empty queue is a no-op.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.batches = nil
	q.total = 0
}

// Drain returns every queued batch and empties the queue in one step.
// Draining an empty queue returns an empty slice and changes nothing.
func (q *Queue) Drain() []Batch {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.batches
	if out == nil {
		out = []Batch{}
	}
	q.batches = nil
	q.total = 0
	return out
}

// Restore puts previously drained batches back at the head of the queue,
// ahead of anything enqueued since the drain.
func (q *Queue) Restore(batches []Batch) {
	if len(batches) == 0 {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	restored := make([]Batch, 0, len(batches)+len(q.batches))
	restored = append(restored, batches...)
	restored = append(restored, q.batches...)
	q.batches = restored
	for _, b := range batches {
		q.total += b.Quantity
	}
}
