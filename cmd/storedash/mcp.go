package main

import (
	"os"
	"os/signal"

	"github.com/sandevgo/storedash/internal/transport/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve catalog and prediction tools over MCP stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		// stdout carries the protocol
		ctx, cfg, flushLog, err := bootstrap(ctx, logStderr)
		if err != nil {
			return err
		}
		defer flushLog()

		c, err := newComponents(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		s := mcp.NewServer(c.recommender, c.browser, c.client, cfg.GetTopK(), cfg.GetPageSize())
		return s.Serve(ctx, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
