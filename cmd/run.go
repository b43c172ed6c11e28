// cmd/run.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chpines/hotspot-tickets/internal/app"
	"github.com/chpines/hotspot-tickets/internal/worker"
)

var runPlanFlags runFlags

var runCmd = &cobra.Command{
	Use:   "run PLAN",
	Short: "Queue every batch of a plan file and process them in one run",
	Long: `Loads a YAML plan, queues its batches and processes the queue. Usernames
are unique across the whole run and the sheet groups tickets by duration.

Plan format:

  batches:
    - prefix: H
      quantity: 200
      duration: "01:00:00"
    - prefix: M
      quantity: 20
      profile: mensual
      duration: 30d`,
	Example: `  tickets run semana.yaml --connect -o semana.pdf`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return startRun(ctx, &runPlanFlags, func(a *app.App) (*worker.Task, int, error) {
			n, err := a.Service().LoadPlan(args[0])
			if err != nil {
				return nil, 0, err
			}
			total := a.Service().QueuedTotal()
			fmt.Printf("Queued %d batches, %d tickets\n", n, total)
			task, err := a.Process(ctx)
			return task, total, err
		})
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addRunFlags(runCmd, &runPlanFlags)
}
