package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newStateCmd(cfg *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset stored conversation state",
	}

	cmd.AddCommand(newStateShowCmd(cfg), newStateResetCmd(cfg))
	return cmd
}

func newStateShowCmd(cfg *viper.Viper) *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored state of a profile as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd.Context(), cfg, wireOptions{Offline: true})
			if err != nil {
				return err
			}

			state, err := app.chat.State(cmd.Context(), strings.TrimSpace(profile))
			if err != nil {
				return fmt.Errorf("load state: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(state.ToMap())
		},
	}

	cmd.Flags().StringVar(&profile, "profile", defaultProfileID, "Profile whose state is shown")
	return cmd
}

func newStateResetCmd(cfg *viper.Viper) *cobra.Command {
	var profile string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Forget the pending task and query memory of a profile",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := wireApp(cmd.Context(), cfg, wireOptions{Offline: true})
			if err != nil {
				return err
			}

			profileID := strings.TrimSpace(profile)
			if err := app.chat.Reset(cmd.Context(), profileID); err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "State reset for profile %s\n", profileID)
			return err
		},
	}

	cmd.Flags().StringVar(&profile, "profile", defaultProfileID, "Profile whose state is reset")
	return cmd
}
