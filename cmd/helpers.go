// cmd/helpers.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/chpines/hotspot-tickets/internal/app"
	"github.com/chpines/hotspot-tickets/internal/device"
	apperrors "github.com/chpines/hotspot-tickets/internal/errors"
	"github.com/chpines/hotspot-tickets/internal/export"
	"github.com/chpines/hotspot-tickets/internal/logger"
	"github.com/chpines/hotspot-tickets/internal/platform"
	"github.com/chpines/hotspot-tickets/internal/queue"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/ticket"
	"github.com/chpines/hotspot-tickets/internal/tui"
	"github.com/chpines/hotspot-tickets/internal/ui"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	goodColor   = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	badColor    = color.New(color.FgRed)
	labelColor  = color.New(color.Bold)
)

// simulatedIdentity names the in-memory router used by --simulate.
const simulatedIdentity = "simulated"

// newApp wires the queue, engine, runner and exporters from the loaded config.
func newApp() *app.App {
	engine := ticket.NewEngine(
		ticket.WithUniqueUsernames(cfg.Generation.UniqueUsernames),
		ticket.WithThrottle(device.NewThrottle(cfg.Device.CommandsPerSecond)),
		ticket.WithLogger(logger.WithComponent("engine")),
	)
	runner := worker.NewRunner(worker.RunnerConfig{Logger: logger.WithComponent("worker")})
	svc := service.New(queue.New(), engine, runner, logger.WithComponent("service"))

	var dialer device.Dialer = device.NewSSHDialer()
	if simulate {
		dialer = device.NewMockRouter(simulatedIdentity)
	}

	log := logger.WithComponent("export")
	return app.New(svc, app.Options{
		Dialer:       dialer,
		Geometry:     cfg.Layout.Geometry(),
		TemplatePath: cfg.Export.Template,
		KeepXLSX:     cfg.Export.KeepXLSX,
		Exporter:     export.NewXLSX(log),
		Converter:    export.NewOffice(cfg.Export.OfficeBinary, log),
		Clipboard:    platform.CopyToClipboard,
		Log:          logger.WithComponent("app"),
	})
}

// connectDevice dials the configured device, prompting for the password
// when askPassword is set and a terminal is attached.
func connectDevice(ctx context.Context, a *app.App, askPassword bool) error {
	target := cfg.Device.Target()
	if askPassword && !simulate && tui.IsTTY() {
		pw, err := ui.AskPassword(fmt.Sprintf("Password for %s@%s", target.Username, target.Host))
		if err != nil {
			return err
		}
		target.Password = pw
	}

	var dev *device.Device
	err := ui.RunWithSpinner("Connecting to "+target.Addr(), func() error {
		var err error
		dev, err = a.Connect(ctx, target)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s Connected to %s\n", goodColor.Sprint("✓"), dev)
	return nil
}

// waitTask renders task progress until it ends and returns its error.
func waitTask(task *worker.Task, total int) error {
	bar := ui.NewProgressBar(total, task.Name)
	bar.SetWriter(os.Stderr)
	for ev := range task.Events() {
		if ev.Kind == worker.EventProgress {
			bar.Update(ev.Done, ev.Total)
		}
	}
	bar.Finish()
	return task.Err()
}

// printSummary reports the outcome of the last run.
func printSummary(a *app.App) error {
	res, err := a.Service().Result()
	if err != nil {
		return err
	}
	s := res.Summary
	headerColor.Println("--- Generation Summary ---")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  %s\t%d\n", labelColor.Sprint("Tickets:"), s.Total)
	fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprint("Created:"), goodColor.Sprint(s.Created))
	fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprint("Local only:"), warnColor.Sprint(s.LocalOnly))
	failed := fmt.Sprint(s.Failed)
	if s.Failed > 0 {
		failed = badColor.Sprint(s.Failed)
	}
	fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprint("Failed:"), failed)
	fmt.Fprintf(w, "  %s\t%s\n", labelColor.Sprint("Run:"), res.RunID)
	w.Flush()

	if s.Failed > 0 {
		printFailures(res.Records)
	}
	return nil
}

// maxListedFailures bounds the failure listing.
const maxListedFailures = 10

func printFailures(records []ticket.Record) {
	listed := 0
	for _, r := range records {
		if r.Status.Kind != ticket.StatusError {
			continue
		}
		if listed == maxListedFailures {
			warnColor.Println("  ... more failures omitted")
			return
		}
		fmt.Printf("  %s %s: %s\n", badColor.Sprint("✗"), r.Username, r.Status.Message)
		listed++
	}
}

// outputOptions are the artifacts requested after a run.
type outputOptions struct {
	Paths []string
	Copy  string
}

// writeOutputs exports the last result to every requested path and copies
// text to the clipboard. A missing PDF converter is reported, not fatal.
func writeOutputs(ctx context.Context, a *app.App, out outputOptions) error {
	status := ui.NewStatusLine(os.Stdout)
	for _, path := range out.Paths {
		kept, err := a.Export(ctx, path)
		if err != nil {
			if service.Cancelled(err) {
				return err
			}
			status.Fail("%s: %v", path, err)
			if isUnavailable(err) {
				continue
			}
			return err
		}
		status.Success("Wrote %s", ui.FileLink(path))
		if kept != "" {
			status.Info("Kept workbook %s", ui.FileLink(kept))
		}
	}

	if out.Copy != "" {
		if _, err := a.CopyText(out.Copy); err != nil {
			status.Warning("Copy to clipboard failed: %v", err)
		} else {
			status.Success("Copied %s to clipboard", out.Copy)
		}
	}
	return nil
}

func isUnavailable(err error) bool {
	return errors.Is(err, apperrors.ErrFeatureUnavailable)
}
