package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/storedash/internal/config"
	pkgenv "github.com/sandevgo/storedash/pkg/env"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration in .env form",
	Long:  `Prints the configuration after defaults, the runtime .env file and the environment are applied. Secrets are masked.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, flushLog, err := bootstrap(cmd.Context(), logStderr)
		if err != nil {
			return err
		}
		defer flushLog()

		out, err := pkgenv.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)

		if cfg.IsTelegramSelected() {
			tg := &config.TelegramConfig{}
			if err := env.Parse(tg); err != nil {
				return fmt.Errorf("failed to parse Telegram config: %w", err)
			}
			out, err := pkgenv.Marshal(tg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
