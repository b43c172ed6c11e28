// cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/chpines/hotspot-tickets/internal/config"
	"github.com/chpines/hotspot-tickets/internal/logger"
)

var (
	cfgFile   string
	debugMode bool
	noColor   bool
	simulate  bool

	// v collects defaults, the config file, TICKETS_* variables and bound flags.
	v   = config.New()
	cfg *config.Config
)

// flagKeys maps flags onto config keys. Keys whose flag the running command
// does not define are skipped.
var flagKeys = map[string]string{
	"device.host":                "host",
	"device.username":            "user",
	"device.password":            "password",
	"device.port":                "port",
	"device.timeout":             "timeout",
	"device.known_hosts":         "known-hosts",
	"device.commands_per_second": "rate",

	"generation.prefix":           "prefix",
	"generation.quantity":         "quantity",
	"generation.profile":          "profile",
	"generation.duration":         "duration",
	"generation.unique_usernames": "unique",

	"export.template":      "template",
	"export.keep_xlsx":     "keep-xlsx",
	"export.office_binary": "office",
}

func boundKeys(flags *pflag.FlagSet) map[string]string {
	keys := make(map[string]string)
	for key, name := range flagKeys {
		if flags.Lookup(name) != nil {
			keys[key] = name
		}
	}
	return keys
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Generate MikroTik hotspot vouchers and printable sheets",
	Long: `Generates hotspot vouchers, creates them as users on a MikroTik RouterOS
device over SSH, and lays them out on printable spreadsheet or PDF sheets.

Without a device connection vouchers are generated locally only.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if noColor {
			color.NoColor = true
		}
		if err := config.Bind(v, cmd.Flags(), boundKeys(cmd.Flags())); err != nil {
			return err
		}
		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		if debugMode {
			cfg.Logger.Level = "debug"
		}
		if err := logger.Init(cfg.Logger); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if debugMode {
			slog.Debug("command", "line", commandLine(cmd, args))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Close()
	},
}

// commandLine reconstructs the invocation without secrets.
func commandLine(cmd *cobra.Command, args []string) string {
	full := cmd.CommandPath()
	cmd.Flags().Visit(func(f *pflag.Flag) {
		switch {
		case f.Name == "debug":
			return
		case f.Name == "password":
			full += " --password=***"
		case f.Value.Type() == "bool":
			full += " --" + f.Name
		default:
			full += " --" + f.Name + "=" + f.Value.String()
		}
	})
	if len(args) > 0 {
		full += " " + strings.Join(args, " ")
	}
	return full
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", badColor.Sprint("Error:"), err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.hotspot-tickets/config.yaml)")
	pf.BoolVar(&debugMode, "debug", false, "Enable debug output")
	pf.BoolVar(&noColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&simulate, "simulate", false, "Use an in-memory router instead of SSH")

	pf.String("host", "", "RouterOS device address")
	pf.String("user", "", "SSH username")
	pf.String("password", "", "SSH password (prompted when empty)")
	pf.Int("port", 0, "SSH port")
	pf.Duration("timeout", 0, "Connect and command timeout")
	pf.String("known-hosts", "", "known_hosts file for host key checks")
	pf.Float64("rate", 0, "Maximum device commands per second (0 is unlimited)")
}
