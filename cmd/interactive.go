// cmd/interactive.go
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/chpines/hotspot-tickets/internal/config"
	"github.com/chpines/hotspot-tickets/internal/logger"
	"github.com/chpines/hotspot-tickets/internal/platform"
	"github.com/chpines/hotspot-tickets/internal/tui"
	"github.com/chpines/hotspot-tickets/internal/tui/repl"
)

var (
	interactiveConnect     bool
	interactiveAskPassword bool
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Aliases: []string{"i", "shell"},
	Short:   "Start interactive mode with slash commands",
	Long: `Starts an interactive shell for queueing batches, processing them on the
device and exporting the result.

Available commands:
  /connect   - Connect to the device
  /add       - Queue a batch: /add PREFIX QTY [PROFILE] [DURATION]
  /queue     - Show the queued batches
  /process   - Generate every queued batch in one run
  /generate  - Generate one batch without the queue
  /export    - Write the last result to .xlsx, .pdf or .csv
  /copy      - Copy the last result to the clipboard
  /cancel    - Stop the running generation
  /help      - Show available commands
  /quit      - Exit interactive mode`,
	Example: `  # Start interactive mode
  tickets interactive

  # Or use the short alias, connected from the start
  tickets i --connect`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !tui.IsTTY() {
			return fmt.Errorf("interactive mode requires a terminal (TTY)")
		}
		if err := redirectLogs(); err != nil {
			return err
		}

		ctx := cmd.Context()
		a := newApp()
		defer a.Close()

		if interactiveConnect {
			if err := connectDevice(ctx, a, interactiveAskPassword); err != nil {
				return err
			}
		}

		g := cfg.Generation
		return repl.Run(ctx, repl.Config{
			Version: Version,
			App:     a,
			Target:  cfg.Device.Target(),
			Defaults: repl.Defaults{
				Prefix:   g.Prefix,
				Quantity: g.Quantity,
				Profile:  g.Profile,
				Duration: g.Duration,
			},
		})
	},
}

// redirectLogs moves console logging to ~/.hotspot-tickets/logs so it does
// not draw over the shell. A configured log file is kept.
func redirectLogs() error {
	switch strings.ToLower(cfg.Logger.OutputPath) {
	case "", "stderr", "stdout":
	default:
		return nil
	}
	dir, err := platform.AppDir()
	if err != nil {
		return err
	}
	logDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return err
	}
	return logger.Init(config.LoggerConfig{
		Level:      cfg.Logger.Level,
		Format:     "json",
		OutputPath: filepath.Join(logDir, "interactive.log"),
	})
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
	interactiveCmd.Flags().BoolVarP(&interactiveConnect, "connect", "c", false, "Connect to the device before starting")
	interactiveCmd.Flags().BoolVarP(&interactiveAskPassword, "ask-password", "W", false, "Prompt for the SSH password")
}
