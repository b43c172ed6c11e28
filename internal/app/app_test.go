package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chpines/hotspot-tickets/internal/credential"
	"github.com/chpines/hotspot-tickets/internal/device"
	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
	"github.com/chpines/hotspot-tickets/internal/export"
	"github.com/chpines/hotspot-tickets/internal/layout"
	"github.com/chpines/hotspot-tickets/internal/queue"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/ticket"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

type recordingExporter struct {
	cells []export.Cell
	sheet layout.Sheet
}

func (r *recordingExporter) Write(_ context.Context, _, outPath string, cells []export.Cell, sheet layout.Sheet) error {
	r.cells = cells
	r.sheet = sheet
	return os.WriteFile(outPath, []byte("xlsx"), 0o644)
}

type stubConverter struct{ err error }

func (s stubConverter) Convert(_ context.Context, _, pdfPath string) error {
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(pdfPath, []byte("%PDF"), 0o644)
}

type fixture struct {
	app       *App
	router    *device.MockRouter
	exporter  *recordingExporter
	clipboard string
}

func newFixture(t *testing.T, conv export.PDFConverter) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := ticket.NewEngine(ticket.WithLogger(log), ticket.WithGenerator(credential.NewGenerator(7)))
	svc := service.New(queue.New(), engine, worker.NewRunner(worker.RunnerConfig{Logger: log}), log)

	f := &fixture{router: device.NewMockRouter("hAP"), exporter: &recordingExporter{}}
	f.app = New(svc, Options{
		Dialer:    f.router,
		Exporter:  f.exporter,
		Converter: conv,
		KeepXLSX:  true,
		Clipboard: func(text string) error { f.clipboard = text; return nil },
		Log:       log,
	})
	t.Cleanup(func() { f.app.Close() })
	return f
}

func runQueue(t *testing.T, a *App, batches ...queue.Batch) {
	t.Helper()
	for _, b := range batches {
		_, err := a.Service().Enqueue(b)
		require.NoError(t, err)
	}
	task, err := a.Process(context.Background())
	require.NoError(t, err)
	require.NoError(t, task.Wait())
}

func TestConnectAndProvision(t *testing.T) {
	f := newFixture(t, stubConverter{})

	dev, err := f.app.Connect(context.Background(), device.Target{Host: "192.168.88.1"})
	require.NoError(t, err)
	assert.Equal(t, "hAP", dev.Name)
	assert.Same(t, dev, f.app.Device())

	runQueue(t, f.app, queue.Batch{Prefix: "H", Quantity: 3, DurationRaw: "1h"})

	res, err := f.app.Service().Result()
	require.NoError(t, err)
	assert.Equal(t, 3, res.Summary.Created)
	assert.Equal(t, 3, f.router.UserCount())
}

func TestProcessWithoutDeviceIsLocalOnly(t *testing.T) {
	f := newFixture(t, stubConverter{})
	runQueue(t, f.app, queue.Batch{Prefix: "H", Quantity: 2, DurationRaw: "1h"})

	res, err := f.app.Service().Result()
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.LocalOnly)
	assert.Zero(t, f.router.UserCount())
}

func TestDisconnect(t *testing.T) {
	f := newFixture(t, stubConverter{})
	require.NoError(t, f.app.Disconnect(), "disconnecting while offline is a no-op")

	_, err := f.app.Connect(context.Background(), device.Target{Host: "h"})
	require.NoError(t, err)
	require.NoError(t, f.app.Disconnect())
	assert.Nil(t, f.app.Device())
}

func TestProfiles(t *testing.T) {
	f := newFixture(t, stubConverter{})

	profiles, err := f.app.Profiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, profiles)

	err = f.app.CreateProfile(context.Background(), device.ProfileSpec{Name: "1h-2M", RateLimit: "2M/2M"})
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = f.app.Connect(context.Background(), device.Target{Host: "h"})
	require.NoError(t, err)
	require.NoError(t, f.app.CreateProfile(context.Background(), device.ProfileSpec{Name: "1h-2M", RateLimit: "2M/2M"}))

	profiles, err = f.app.Profiles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"default", "1h-2M"}, profiles)
}

func TestExportNeedsResult(t *testing.T) {
	f := newFixture(t, stubConverter{})
	_, err := f.app.Export(context.Background(), filepath.Join(t.TempDir(), "t.xlsx"))
	assert.ErrorIs(t, err, service.ErrNoResult)
}

func TestExportFormats(t *testing.T) {
	f := newFixture(t, stubConverter{})
	runQueue(t, f.app,
		queue.Batch{Prefix: "H", Quantity: 5, DurationRaw: "1h"},
		queue.Batch{Prefix: "M", Quantity: 2, DurationRaw: "30d"},
	)
	dir := t.TempDir()

	_, err := f.app.Export(context.Background(), filepath.Join(dir, "t.xlsx"))
	require.NoError(t, err)
	assert.Len(t, f.exporter.cells, 14)
	assert.Equal(t, 7, f.exporter.sheet.RowsUsed, "two 1H rows, a 4 row gap and one MES row")

	kept, err := f.app.Export(context.Background(), filepath.Join(dir, "t.pdf"))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "t.pdf"))
	assert.Equal(t, filepath.Join(dir, "t.xlsx"), kept)

	_, err = f.app.Export(context.Background(), filepath.Join(dir, "t.csv"))
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(dir, "t.csv"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 8)

	_, err = f.app.Export(context.Background(), filepath.Join(dir, "t.doc"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestExportPDFUnavailable(t *testing.T) {
	f := newFixture(t, stubConverter{err: apperrors.Unavailable("no office")})
	runQueue(t, f.app, queue.Batch{Prefix: "H", Quantity: 1, DurationRaw: "1h"})

	_, err := f.app.ExportPDF(context.Background(), filepath.Join(t.TempDir(), "t.pdf"))
	assert.True(t, errors.Is(err, apperrors.ErrFeatureUnavailable))
}

func TestCopyText(t *testing.T) {
	f := newFixture(t, stubConverter{})
	runQueue(t, f.app, queue.Batch{Prefix: "H", Quantity: 3, DurationRaw: "1h"})

	text, err := f.app.CopyText(CopyUsernames)
	require.NoError(t, err)
	assert.Equal(t, text, f.clipboard)
	assert.Len(t, strings.Split(text, "\n"), 3)

	text, err = f.app.CopyText(CopyPrint)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(text, "HOTSPOT USERS REPORT"))

	_, err = f.app.CopyText("pdf")
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestConnectRejectedDuringRun(t *testing.T) {
	f := newFixture(t, stubConverter{})
	_, err := f.app.Connect(context.Background(), device.Target{Host: "h"})
	require.NoError(t, err)

	release := make(chan struct{})
	f.router.Hook = func(cmd string) (string, string, error, bool) {
		if strings.HasPrefix(cmd, "/ip hotspot user add") {
			<-release
		}
		return "", "", nil, false
	}

	_, err = f.app.Service().Enqueue(queue.Batch{Prefix: "H", Quantity: 2, DurationRaw: "1h"})
	require.NoError(t, err)
	task, err := f.app.Process(context.Background())
	require.NoError(t, err)

	_, err = f.app.Connect(context.Background(), device.Target{Host: "other"})
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.ErrorIs(t, f.app.Disconnect(), ErrRunInProgress)

	close(release)
	require.NoError(t, task.Wait())
}

func TestWriteAtomicallyLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tickets.csv")
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o644))

	err := writeAtomically(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "#,username\n1,H0")
		return errors.New("disk full")
	})
	require.Error(t, err)

	data, rerr := os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, "previous\n", string(data), "a failed write must not touch the target")
	entries, rerr := os.ReadDir(dir)
	require.NoError(t, rerr)
	assert.Len(t, entries, 1, "temp file must be removed")

	require.NoError(t, writeAtomically(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "new\n")
		return err
	}))
	data, rerr = os.ReadFile(path)
	require.NoError(t, rerr)
	assert.Equal(t, "new\n", string(data))
}
