package queue

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
)

func batch(prefix string, qty int) Batch {
	return Batch{Prefix: prefix, Quantity: qty, Profile: "default", DurationRaw: "1h"}
}

func TestEnqueueValidation(t *testing.T) {
	tests := []struct {
		name  string
		batch Batch
	}{
		{"zero quantity", batch("H", 0)},
		{"negative quantity", batch("H", -3)},
		{"over limit", batch("H", MaxQuantity+1)},
		{"empty prefix", batch("", 10)},
		{"blank prefix", batch("   ", 10)},
		{"missing duration", Batch{Prefix: "H", Quantity: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := New()
			total, err := q.Enqueue(tt.batch)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
			assert.Equal(t, 0, total)
			assert.Equal(t, 0, q.Len(), "rejected batch must not be queued")
		})
	}
}

func TestEnqueueRunningTotal(t *testing.T) {
	q := New()

	for i, qty := range []int{10, 20, 30} {
		total, err := q.Enqueue(batch("H", qty))
		require.NoError(t, err)
		assert.Equal(t, []int{10, 30, 60}[i], total)
	}

	assert.Len(t, q.Snapshot(), 3)
	assert.Equal(t, 60, q.Total())
}

func TestEnqueueDefaults(t *testing.T) {
	q := New()
	fixed := time.Date(2026, 10, 19, 14, 30, 5, 0, time.UTC)
	q.now = func() time.Time { return fixed }

	_, err := q.Enqueue(Batch{Prefix: " H ", Quantity: 1, DurationRaw: " 1d "})
	require.NoError(t, err)

	b := q.Snapshot()[0]
	assert.Equal(t, "H", b.Prefix)
	assert.Equal(t, "1d", b.DurationRaw)
	assert.Equal(t, "default", b.Profile)
	assert.Equal(t, DefaultTicketType, b.TicketType)
	assert.Equal(t, fixed, b.EnqueuedAt)
	assert.Equal(t, "H (14:30:05)", b.Label())
}

func TestDrainReturnsInsertionOrder(t *testing.T) {
	q := New()
	for _, p := range []string{"A", "B", "C"} {
		_, err := q.Enqueue(batch(p, 10*len(p)))
		require.NoError(t, err)
	}

	drained := q.Drain()
	require.Len(t, drained, 3)
	assert.Equal(t, "A", drained[0].Prefix)
	assert.Equal(t, "B", drained[1].Prefix)
	assert.Equal(t, "C", drained[2].Prefix)
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Total())

	again := q.Drain()
	assert.NotNil(t, again)
	assert.Empty(t, again)
}

func TestSnapshotIsACopy(t *testing.T) {
	q := New()
	_, err := q.Enqueue(batch("H", 5))
	require.NoError(t, err)

	snap := q.Snapshot()
	snap[0].Prefix = "mutated"

	assert.Equal(t, "H", q.Snapshot()[0].Prefix)
}

func TestClearIsIdempotent(t *testing.T) {
	q := New()
	_, err := q.Enqueue(batch("H", 5))
	require.NoError(t, err)

	q.Clear()
	q.Clear()

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, 0, q.Total())
}

func TestRestorePutsBatchesAtHead(t *testing.T) {
	q := New()
	_, _ = q.Enqueue(batch("A", 1))
	_, _ = q.Enqueue(batch("B", 2))
	drained := q.Drain()

	_, _ = q.Enqueue(batch("C", 3))
	q.Restore(drained)

	snap := q.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{snap[0].Prefix, snap[1].Prefix, snap[2].Prefix})
	assert.Equal(t, 6, q.Total())
}

func TestConcurrentEnqueue(t *testing.T) {
	q := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = q.Enqueue(batch("H", 2))
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, q.Len())
	assert.Equal(t, 100, q.Total())
}

func TestReadPlan(t *testing.T) {
	doc := `
batches:
  - prefix: H
    quantity: 200
    profile: default
    duration: "01:00:00"
  - prefix: D
    quantity: 40
    duration: 1d
    type: user_only
`
	plan, err := ReadPlan(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, plan.Batches, 2)
	assert.Equal(t, "01:00:00", plan.Batches[0].DurationRaw)
	assert.Equal(t, 40, plan.Batches[1].Quantity)
	assert.Equal(t, "user_only", plan.Batches[1].TicketType)
}

func TestReadPlanRejectsUnknownKeys(t *testing.T) {
	_, err := ReadPlan(strings.NewReader("batches:\n  - prefix: H\n    quantiy: 3\n"))
	require.Error(t, err)
}

func TestReadPlanEmpty(t *testing.T) {
	plan, err := ReadPlan(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, plan.Batches)
}

func TestLoadPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	doc := "batches:\n  - {prefix: H, quantity: 3, duration: 1h}\n  - {prefix: M, quantity: 0, duration: 30d}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	q := New()
	loaded, err := LoadPlan(path, q)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 2")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Equal(t, 0, loaded)
	assert.Equal(t, 0, q.Len(), "an invalid plan must not queue anything")
	assert.Equal(t, 0, q.Total())
}

func TestLoadPlanEnqueuesValidPlan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.yaml")
	doc := "batches:\n  - {prefix: H, quantity: 3, duration: 1h}\n  - {prefix: M, quantity: 2, duration: 30d}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	q := New()
	loaded, err := LoadPlan(path, q)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)
	assert.Equal(t, 5, q.Total())
}

func TestLoadPlanMissingFile(t *testing.T) {
	_, err := LoadPlan(filepath.Join(t.TempDir(), "nope.yaml"), New())
	require.Error(t, err)
}
