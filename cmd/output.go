// cmd/output.go
package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/chpines/hotspot-tickets/internal/app"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

// runFlags are shared by the commands that generate tickets.
type runFlags struct {
	connect     bool
	askPassword bool
	out         []string
	csv         string
	copy        string
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().BoolVarP(&f.connect, "connect", "c", false, "Create the tickets on the device (default is local only)")
	cmd.Flags().BoolVarP(&f.askPassword, "ask-password", "W", false, "Prompt for the SSH password")
	cmd.Flags().StringSliceVarP(&f.out, "out", "o", nil, "Write the sheet to a .xlsx or .pdf file (repeatable)")
	cmd.Flags().StringVar(&f.csv, "csv", "", "Write a flat CSV listing")
	cmd.Flags().StringVar(&f.copy, "copy", "", "Copy tickets to the clipboard: print, users or table")
	cmd.Flags().Lookup("copy").NoOptDefVal = app.CopyPrint

	cmd.Flags().String("template", "", "Spreadsheet template (default Plantilla.xlsx)")
	cmd.Flags().Bool("keep-xlsx", true, "Keep the intermediate workbook next to a PDF")
	cmd.Flags().String("office", "", "LibreOffice binary used for PDF conversion")
	cmd.Flags().Bool("unique", true, "Never reuse a username within a run")
}

func (f *runFlags) outputs() outputOptions {
	paths := append([]string(nil), f.out...)
	if f.csv != "" {
		paths = append(paths, f.csv)
	}
	return outputOptions{Paths: paths, Copy: f.copy}
}

// startFunc starts a run on a and returns it with its ticket count.
type startFunc func(a *app.App) (*worker.Task, int, error)

// startRun connects when asked, starts the task built by start and reports it.
func startRun(ctx context.Context, f *runFlags, start startFunc) error {
	a := newApp()
	defer a.Close()

	if f.connect || simulate {
		if err := connectDevice(ctx, a, f.askPassword); err != nil {
			return err
		}
	} else {
		warnColor.Println("Local only: tickets will not be created on a device (use --connect)")
	}

	task, total, err := start(a)
	if err != nil {
		return err
	}
	return report(ctx, a, task, total, f.outputs())
}

// report waits for task, prints the summary and writes the outputs. A
// cancelled run keeps its partial tickets but writes nothing.
func report(ctx context.Context, a *app.App, task *worker.Task, total int, out outputOptions) error {
	runErr := waitTask(task, total)
	if a.Service().HasResult() {
		if err := printSummary(a); err != nil {
			return err
		}
	}
	if runErr != nil {
		if service.Cancelled(runErr) {
			warnColor.Println("Cancelled: tickets already created on the device stay there")
		}
		return runErr
	}
	return writeOutputs(ctx, a, out)
}
