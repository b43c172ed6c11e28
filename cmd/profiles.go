// cmd/profiles.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chpines/hotspot-tickets/internal/device"
)

var (
	profilesAskPassword bool
	profileRateLimit    string
	profileKeepalive    string
)

var profilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "List the hotspot user profiles on the device",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := newApp()
		defer a.Close()

		if err := connectDevice(ctx, a, profilesAskPassword); err != nil {
			return err
		}
		names, err := a.Profiles(ctx)
		if err != nil {
			return err
		}
		headerColor.Println("--- Hotspot Profiles ---")
		for _, name := range names {
			marker := " "
			if name == device.DefaultProfile {
				marker = goodColor.Sprint("*")
			}
			fmt.Printf("  %s %s\n", marker, name)
		}
		return nil
	},
}

var profilesAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a hotspot user profile",
	Example: `  tickets profiles add mensual --rate-limit 2M/2M
  tickets profiles add rapido --rate-limit 10M/10M --keepalive 00:15:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a := newApp()
		defer a.Close()

		if err := connectDevice(ctx, a, profilesAskPassword); err != nil {
			return err
		}
		spec := device.ProfileSpec{
			Name:             args[0],
			RateLimit:        profileRateLimit,
			KeepaliveTimeout: profileKeepalive,
		}
		if err := a.CreateProfile(ctx, spec); err != nil {
			return err
		}
		fmt.Printf("%s Created profile %s\n", goodColor.Sprint("✓"), labelColor.Sprint(spec.Name))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd)
	profilesCmd.AddCommand(profilesAddCmd)
	profilesCmd.PersistentFlags().BoolVarP(&profilesAskPassword, "ask-password", "W", false, "Prompt for the SSH password")
	profilesAddCmd.Flags().StringVar(&profileRateLimit, "rate-limit", "", "Rate limit, e.g. 2M/2M")
	profilesAddCmd.Flags().StringVar(&profileKeepalive, "keepalive", "", "Keepalive timeout, e.g. 00:15:00")
}
