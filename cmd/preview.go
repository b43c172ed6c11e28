// cmd/preview.go
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/chpines/hotspot-tickets/internal/layout"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/tui"
	"github.com/chpines/hotspot-tickets/internal/tui/preview"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

var previewCmd = &cobra.Command{
	Use:   "preview [PLAN]",
	Short: "Preview the printed sheet without touching the device",
	Long: `Generates tickets locally, from a plan file or from the generation flags,
and shows how they will be laid out on the printed pages. Nothing is created
on the device and nothing is written.`,
	Example: `  tickets preview semana.yaml
  tickets preview -p H -n 300 -d 1h`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := newApp()
		defer a.Close()

		var err error
		if len(args) == 1 {
			if _, err = a.Service().LoadPlan(args[0]); err != nil {
				return err
			}
			err = waitFor(a.Process(ctx))
		} else {
			g := cfg.Generation
			err = waitFor(a.Generate(ctx, service.AdHocRequest{
				Prefix:      g.Prefix,
				Quantity:    g.Quantity,
				Profile:     g.Profile,
				DurationRaw: g.Duration,
			}))
		}
		if err != nil {
			return err
		}

		placements, sheet, err := a.Layout()
		if err != nil {
			return err
		}
		if !tui.IsTTY() {
			printSheet(sheet)
			return nil
		}
		title := "Preview"
		if len(args) == 1 {
			title += " " + args[0]
		}
		return preview.Run(title, placements, sheet.Geometry)
	},
}

func waitFor(task *worker.Task, err error) error {
	if err != nil {
		return err
	}
	return task.Wait()
}

// printSheet describes the layout when no terminal is available for the viewer.
func printSheet(sheet layout.Sheet) {
	headerColor.Println("--- Sheet ---")
	fmt.Printf("  %s %d rows, %d pages, print area %s\n",
		labelColor.Sprint("Layout:"), sheet.RowsUsed, sheet.Pages, sheet.PrintArea)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  TAG\tTICKETS\tROWS")
	for _, g := range sheet.Groups {
		fmt.Fprintf(w, "  %s\t%d\t%d-%d\n", g.Tag, g.Count, g.FirstRow, g.LastRow)
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringP("prefix", "p", "", "Username prefix (default H)")
	previewCmd.Flags().IntP("quantity", "n", 0, "Number of tickets (default 1000)")
	previewCmd.Flags().String("profile", "", "Hotspot user profile")
	previewCmd.Flags().StringP("duration", "d", "", "Validity, e.g. 1h, 1d, 7d, 30d")
}
