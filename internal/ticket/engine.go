package ticket

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/chpines/hotspot-tickets/internal/credential"
	"github.com/chpines/hotspot-tickets/internal/device"
	"github.com/chpines/hotspot-tickets/internal/duration"
	"github.com/chpines/hotspot-tickets/internal/queue"
)

// MaxMessageLen caps error messages stored on a record.
const MaxMessageLen = 200

// maxRerolls bounds username re-rolls when the prefix space is crowded.
const maxRerolls = 64

// ProgressFunc is called after every record with the batch position.
type ProgressFunc func(done, total int, rec Record)

// Engine turns batches into records, provisioning each on a device when a
// session is supplied.
type Engine struct {
	gen      *credential.Generator
	unique   bool
	throttle *device.Throttle
	log      *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithGenerator replaces the crypto-seeded username generator.
func WithGenerator(g *credential.Generator) Option {
	return func(e *Engine) { e.gen = g }
}

// WithUniqueUsernames controls re-rolling of usernames already produced in the same run.
func WithUniqueUsernames(unique bool) Option {
	return func(e *Engine) { e.unique = unique }
}

// WithThrottle paces provisioning commands.
func WithThrottle(t *device.Throttle) Option {
	return func(e *Engine) { e.throttle = t }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine returns an engine with unique usernames enabled and no throttle.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{unique: true}
	for _, opt := range opts {
		opt(e)
	}
	if e.gen == nil {
		e.gen = credential.NewGenerator(0)
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// Run is one generation pass over possibly several batches. Usernames and
// sequence numbers are shared by every batch of the run.
type Run struct {
	e    *Engine
	seen map[string]struct{}
	seq  int
}

// NewRun starts a run.
func (e *Engine) NewRun() *Run {
	return &Run{e: e, seen: make(map[string]struct{})}
}

// GenerateBatch generates b in a fresh run.
func (e *Engine) GenerateBatch(ctx context.Context, b queue.Batch, sess device.Session, progress ProgressFunc) ([]Record, error) {
	return e.NewRun().Batch(ctx, b, sess, progress)
}

// GenerateAdHoc generates quantity records without going through a queue.
// Inputs are validated the same way the queue validates batches.
func (e *Engine) GenerateAdHoc(ctx context.Context, prefix string, quantity int, profile, durationRaw string, sess device.Session, progress ProgressFunc) ([]Record, error) {
	b := queue.Batch{
		Prefix:      strings.TrimSpace(prefix),
		Quantity:    quantity,
		Profile:     strings.TrimSpace(profile),
		DurationRaw: strings.TrimSpace(durationRaw),
		TicketType:  queue.DefaultTicketType,
		EnqueuedAt:  time.Now(),
	}
	if b.Profile == "" {
		b.Profile = device.DefaultProfile
	}
	return e.GenerateBatch(ctx, b, sess, progress)
}

// Batch generates every record of b. With a nil session records are local only.
// Provisioning failures are recorded per record and never stop the batch.
// When ctx is cancelled the records produced so far are returned with ctx.Err().
func (r *Run) Batch(ctx context.Context, b queue.Batch, sess device.Session, progress ProgressFunc) ([]Record, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	e := r.e
	tag := duration.Normalize(b.DurationRaw)
	uptime := duration.ToRouterOS(b.DurationRaw)
	log := e.log.With("batch", b.Label(), "tag", tag)
	log.Info("generating batch", "quantity", b.Quantity, "profile", b.Profile, "remote", sess != nil)

	records := make([]Record, 0, b.Quantity)
	for i := 1; i <= b.Quantity; i++ {
		if err := ctx.Err(); err != nil {
			log.Warn("batch cancelled", "done", len(records))
			return records, err
		}

		r.seq++
		rec := Record{
			Sequence:    r.seq,
			Username:    r.username(b.Prefix),
			Profile:     b.Profile,
			DurationRaw: b.DurationRaw,
			DurationTag: tag,
			TicketType:  b.TicketType,
			Batch:       b.Label(),
			Status:      Pending(),
		}

		if sess == nil {
			rec.settle(LocalOnly())
		} else {
			if err := e.throttle.Wait(ctx); err != nil {
				log.Warn("batch cancelled", "done", len(records))
				return records, err
			}
			rec.settle(e.provision(ctx, sess, rec, uptime))
			if rec.Status.Kind == StatusError {
				log.Warn("provisioning failed", "username", rec.Username, "error", rec.Status.Message)
			}
		}

		records = append(records, rec)
		if progress != nil {
			progress(i, b.Quantity, rec)
		}
	}

	log.Info("batch complete", "summary", Summarize(records).String())
	return records, nil
}

func (r *Run) username(prefix string) string {
	name := r.e.gen.Generate(prefix)
	if !r.e.unique {
		return name
	}
	for attempt := 0; attempt < maxRerolls; attempt++ {
		if _, dup := r.seen[name]; !dup {
			break
		}
		name = r.e.gen.Generate(prefix)
	}
	if _, dup := r.seen[name]; dup {
		r.e.log.Warn("username space exhausted, keeping duplicate", "username", name)
	}
	r.seen[name] = struct{}{}
	return name
}

func (e *Engine) provision(ctx context.Context, sess device.Session, rec Record, uptime string) Status {
	cmd := device.UserAddCommand(rec.Username, rec.Password, rec.Profile, uptime)
	e.log.Debug("provisioning", "command", cmd)

	_, stderr, err := sess.Run(ctx, cmd)
	if err != nil {
		return Failed(truncate(err.Error()))
	}
	msg := strings.TrimSpace(stderr)
	switch {
	case msg == "":
		return CreatedRemotely()
	case device.IsDuplicateUser(msg):
		return CreatedRemotely()
	default:
		return Failed(truncate(fmt.Sprintf("device: %s", msg)))
	}
}

func truncate(msg string) string {
	if utf8.RuneCountInString(msg) <= MaxMessageLen {
		return msg
	}
	runes := []rune(msg)
	return string(runes[:MaxMessageLen])
}
