// Package app ties the device connection, the generation service and the
// exporters together for the command line and the REPL.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/chpines/hotspot-tickets/internal/device"
	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
	"github.com/chpines/hotspot-tickets/internal/export"
	"github.com/chpines/hotspot-tickets/internal/layout"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/ticket"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

// ErrNotConnected is returned by operations that need a device.
var ErrNotConnected = apperrors.NewConnectionError("not connected to a device", nil)

// ErrRunInProgress is returned when the connection is changed mid-run.
var ErrRunInProgress = apperrors.NewValidationError("generation in progress")

// Copy formats accepted by CopyText.
const (
	CopyPrint     = "print"
	CopyUsernames = "users"
	CopyTable     = "table"
)

// Options configures an App.
type Options struct {
	Dialer       device.Dialer
	Geometry     layout.Geometry
	TemplatePath string
	KeepXLSX     bool

	Exporter  export.Exporter
	Converter export.PDFConverter
	Clipboard func(text string) error
	Log       *slog.Logger
}

// App is the shared state of one program run.
type App struct {
	opts Options
	svc  *service.Service
	log  *slog.Logger

	mu  sync.Mutex
	dev *device.Device
}

// New returns an App around svc. Missing options get working defaults.
func New(svc *service.Service, opts Options) *App {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Dialer == nil {
		opts.Dialer = device.NewSSHDialer()
	}
	if opts.Exporter == nil {
		opts.Exporter = export.NewXLSX(opts.Log)
	}
	if opts.Converter == nil {
		opts.Converter = export.NewOffice("", opts.Log)
	}
	opts.Geometry = opts.Geometry.Normalize()
	return &App{opts: opts, svc: svc, log: opts.Log}
}

// Service exposes the queue and result operations.
func (a *App) Service() *service.Service {
	return a.svc
}

// Connect dials target, replacing any previous connection.
func (a *App) Connect(ctx context.Context, target device.Target) (*device.Device, error) {
	if a.svc.Runner().Busy() {
		return nil, ErrRunInProgress
	}
	dev, err := device.Connect(ctx, a.opts.Dialer, target)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	prev := a.dev
	a.dev = dev
	a.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	a.log.Info("connected", "device", dev.Name, "addr", target.Addr())
	return dev, nil
}

// Disconnect closes the current connection, if any.
func (a *App) Disconnect() error {
	if a.svc.Runner().Busy() {
		return ErrRunInProgress
	}
	a.mu.Lock()
	dev := a.dev
	a.dev = nil
	a.mu.Unlock()

	if dev == nil {
		return nil
	}
	a.log.Info("disconnected", "device", dev.Name)
	return dev.Close()
}

// Device returns the connected device, or nil.
func (a *App) Device() *device.Device {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dev
}

func (a *App) session() device.Session {
	if dev := a.Device(); dev != nil {
		return dev
	}
	return nil
}

// Process runs the queue, provisioning when connected.
func (a *App) Process(ctx context.Context) (*worker.Task, error) {
	return a.svc.ProcessQueue(ctx, a.session())
}

// Generate runs one ad-hoc batch, provisioning when connected.
func (a *App) Generate(ctx context.Context, req service.AdHocRequest) (*worker.Task, error) {
	return a.svc.GenerateAdHoc(ctx, req, a.session())
}

// Profiles lists device profiles. Without a connection only the default
// profile is offered.
func (a *App) Profiles(ctx context.Context) ([]string, error) {
	dev := a.Device()
	if dev == nil {
		return []string{device.DefaultProfile}, nil
	}
	return dev.Profiles(ctx)
}

// CreateProfile adds a hotspot user profile on the connected device.
func (a *App) CreateProfile(ctx context.Context, spec device.ProfileSpec) error {
	dev := a.Device()
	if dev == nil {
		return ErrNotConnected
	}
	if a.svc.Runner().Busy() {
		return ErrRunInProgress
	}
	return dev.CreateProfile(ctx, spec)
}

// Layout packs the last result.
func (a *App) Layout() ([]layout.Placement, layout.Sheet, error) {
	res, err := a.svc.Result()
	if err != nil {
		return nil, layout.Sheet{}, err
	}
	placements := layout.Pack(res.Records, a.opts.Geometry)
	return placements, layout.Summarize(placements, a.opts.Geometry), nil
}

// Export writes the last result to path. The extension picks the format:
// .xlsx, .pdf or .csv. It returns the path of an extra workbook kept next to
// a PDF, if any.
func (a *App) Export(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return "", a.ExportXLSX(ctx, path)
	case ".pdf":
		return a.ExportPDF(ctx, path)
	case ".csv":
		return "", a.ExportCSV(path)
	default:
		return "", apperrors.NewValidationError("unsupported export format", "use .xlsx, .pdf or .csv: "+path)
	}
}

// ExportXLSX writes the last result onto the template.
func (a *App) ExportXLSX(ctx context.Context, path string) error {
	placements, sheet, err := a.Layout()
	if err != nil {
		return err
	}
	return a.opts.Exporter.Write(ctx, a.opts.TemplatePath, path, export.Cells(placements, a.opts.Geometry), sheet)
}

// ExportPDF renders the last result as PDF.
func (a *App) ExportPDF(ctx context.Context, path string) (string, error) {
	placements, sheet, err := a.Layout()
	if err != nil {
		return "", err
	}
	return export.ToPDF(ctx, a.opts.Exporter, a.opts.Converter, export.Cells(placements, a.opts.Geometry), sheet, export.PDFOptions{
		TemplatePath: a.opts.TemplatePath,
		PDFPath:      path,
		KeepXLSX:     a.opts.KeepXLSX,
	})
}

// ExportCSV writes a flat listing of the last result.
func (a *App) ExportCSV(path string) error {
	res, err := a.svc.Result()
	if err != nil {
		return err
	}
	return writeAtomically(path, func(w io.Writer) error {
		return export.WriteCSV(w, res.Records)
	})
}

// writeAtomically writes through a temp file next to path and renames it
// into place. A failed write leaves nothing at path.
func writeAtomically(path string, write func(w io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tickets-*"+filepath.Ext(path))
	if err != nil {
		return apperrors.NewExportError("create "+path, err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return apperrors.NewExportError("write "+path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return apperrors.NewExportError("write "+path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return apperrors.NewExportError("write "+path, err)
	}
	return nil
}

// Text renders the last result in one of the copy formats.
func (a *App) Text(format string) (string, error) {
	res, err := a.svc.Result()
	if err != nil {
		return "", err
	}
	return renderText(format, res.Records)
}

// CopyText puts the last result on the clipboard and returns the copied text.
func (a *App) CopyText(format string) (string, error) {
	text, err := a.Text(format)
	if err != nil {
		return "", err
	}
	if a.opts.Clipboard == nil {
		return "", apperrors.Unavailable("clipboard")
	}
	if err := a.opts.Clipboard(text); err != nil {
		return "", err
	}
	return text, nil
}

func renderText(format string, records []ticket.Record) (string, error) {
	switch format {
	case CopyPrint, "":
		return export.PrintText(records), nil
	case CopyUsernames:
		return export.UsernamesColumn(records), nil
	case CopyTable:
		return export.TabTable(records), nil
	default:
		return "", apperrors.NewValidationError(fmt.Sprintf("unknown copy format %q", format), "use print, users or table")
	}
}

// Close cancels a running task and drops the connection.
func (a *App) Close() error {
	if t := a.svc.Runner().Current(); t != nil {
		t.Cancel()
		<-t.Done()
	}
	a.mu.Lock()
	dev := a.dev
	a.dev = nil
	a.mu.Unlock()
	if dev != nil {
		return dev.Close()
	}
	return nil
}
