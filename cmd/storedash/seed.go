package main

import (
	"fmt"

	"github.com/sandevgo/storedash/internal/catalog"
	"github.com/sandevgo/storedash/internal/storage/sqlite"
	"github.com/sandevgo/storedash/pkg/log"
	"github.com/spf13/cobra"
)

var seedFile string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace the reference catalog",
	Long:  `Validates a YAML catalog (products and keyword rules) and installs it as the reference catalog used offline. Without --file the built-in catalog is restored.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, flushLog, err := bootstrap(cmd.Context(), logStderr)
		if err != nil {
			return err
		}
		defer flushLog()

		logger := log.FromCtx(ctx)

		var seed *catalog.Seed
		if seedFile != "" {
			seed, err = catalog.ReadSeedFile(seedFile)
		} else {
			seed, err = catalog.DefaultSeed()
		}
		if err != nil {
			return err
		}

		db, err := sqlite.NewDB(ctx, cfg.GetDatabasePath())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := catalog.Install(ctx, sqlite.NewCatalogRepo(db), seed); err != nil {
			return err
		}

		logger.Info().Str("db", cfg.GetDatabasePath()).Msg("reference catalog replaced")
		fmt.Fprintf(cmd.OutOrStdout(), "installed %d products and %d rules\n", len(seed.Products), len(seed.Rules))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "YAML catalog to install")
	rootCmd.AddCommand(seedCmd)
}
