package main

import (
	"os"
	"os/signal"

	"github.com/sandevgo/storedash/pkg/log"
	"github.com/sandevgo/storedash/pkg/srv"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the dashboard and the enabled shells",
	Long:  `Loads the reference catalog, connects to the model service and runs the terminal dashboard, the Telegram bot and the ops server as configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		ctx, cfg, flushLog, err := bootstrap(ctx, logDashboard)
		if err != nil {
			return err
		}
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Str("api", cfg.GetAPIURL()).Msg("starting storedash")

		c, err := newComponents(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize")
		}

		services, err := NewServices(ctx, c)
		if err != nil {
			_ = c.Close()
			return err
		}

		if err := srv.Run(ctx, services); err != nil {
			return err
		}
		logger.Info().Msg("storedash has been shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
}
