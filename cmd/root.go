package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "finchat",
		Short:         "finchat: personal-finance chat assistant",
		Long:          "finchat turns French chat messages about your bank statements, categories, bank accounts and profile into backend tool calls, asking for clarification or confirmation when needed.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cfg, err := loadConfig()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newChatCmd(cfg),
		newServeCmd(cfg),
		newStateCmd(cfg),
	)

	return rootCmd
}
