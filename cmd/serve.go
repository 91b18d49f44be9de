package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/bnema/finchat/internal/adapters/httpapi"
)

func newServeCmd(cfg *viper.Viper) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat engine over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			app, err := wireApp(ctx, cfg, wireOptions{Offline: offline})
			if err != nil {
				return err
			}
			defer func() { _ = app.logger.Sync() }()

			addr := cfg.GetString(keyServeAddr)
			app.logger.Info("starting http api", zap.String("addr", addr), zap.Bool("offline", app.offline))
			return httpapi.NewServer(addr, app.chat, app.logger).Run(ctx)
		},
	}

	cmd.Flags().String("addr", httpapi.DefaultAddr, "Listen address")
	_ = cfg.BindPFlag(keyServeAddr, cmd.Flags().Lookup("addr"))
	cmd.Flags().BoolVar(&offline, "offline", false, "Answer from the built-in sample ledger instead of the backend")

	return cmd
}
