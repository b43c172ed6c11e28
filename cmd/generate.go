// cmd/generate.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chpines/hotspot-tickets/internal/app"
	"github.com/chpines/hotspot-tickets/internal/service"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

var generateFlags runFlags

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"gen", "g"},
	Short:   "Generate one batch of tickets",
	Long: `Generates a batch of tickets sharing a prefix, profile and duration.

With --connect every ticket is created as a hotspot user on the device;
otherwise the tickets exist only in the generated documents.`,
	Example: `  # 200 one-hour tickets on the device, printed to PDF
  tickets generate --connect -p H -n 200 -d 1h -o hoy.pdf

  # Local monthly tickets, copied to the clipboard
  tickets generate -p M -n 20 -d 30d --copy`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		g := cfg.Generation
		req := service.AdHocRequest{
			Prefix:      g.Prefix,
			Quantity:    g.Quantity,
			Profile:     g.Profile,
			DurationRaw: g.Duration,
		}
		return startRun(cmd.Context(), &generateFlags, func(a *app.App) (*worker.Task, int, error) {
			task, err := a.Generate(cmd.Context(), req)
			return task, req.Quantity, err
		})
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringP("prefix", "p", "", "Username prefix (default H)")
	generateCmd.Flags().IntP("quantity", "n", 0, "Number of tickets (default 1000)")
	generateCmd.Flags().String("profile", "", "Hotspot user profile (default \"default\")")
	generateCmd.Flags().StringP("duration", "d", "", "Validity, e.g. 1h, 1d, 7d, 30d or 01:00:00 (default 1h)")
	addRunFlags(generateCmd, &generateFlags)
}
