package main

import (
	"fmt"
	"strconv"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/sandevgo/storedash/internal/service/cart"
	"github.com/spf13/cobra"
)

var predictFlags struct {
	topK int
	json bool
}

var predictCmd = &cobra.Command{
	Use:   "predict <product-id>...",
	Short: "Suggest the next purchases for a cart",
	Long:  `Builds a cart from the given product identifiers (repeat an id to raise its quantity) and prints the most likely next purchases.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cfg, flushLog, err := bootstrap(cmd.Context(), logStderr)
		if err != nil {
			return err
		}
		defer flushLog()

		c, err := newComponents(ctx, cfg)
		if err != nil {
			return err
		}
		defer c.Close()

		basket := cart.New()
		for _, id := range args {
			p, ok := c.store.Lookup(id)
			if !ok {
				p = core.Product{ID: id}
			}
			basket.Add(p)
		}

		topK := predictFlags.topK
		if topK <= 0 {
			topK = cfg.GetTopK()
		}

		res := c.recommender.GetPredictions(ctx, basket.Lines(), topK)

		out := cmd.OutOrStdout()
		if predictFlags.json {
			return printJSON(out, res)
		}

		rows := make([][]string, 0, len(res.Candidates))
		for i, cand := range res.Candidates {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				cand.ProductID,
				cand.DisplayName(),
				cand.Aisle,
				fmt.Sprintf("%.3f", cand.Probability),
			})
		}
		printTable(out, []string{"#", "ID", "PRODUCT", "AISLE", "SCORE"}, rows)
		if res.Fallback {
			printFallback(out, res.Reason)
		}
		return nil
	},
}

func init() {
	predictCmd.Flags().IntVarP(&predictFlags.topK, "top-k", "k", 0, "number of suggestions (default STOREDASH_TOP_K)")
	predictCmd.Flags().BoolVar(&predictFlags.json, "json", false, "print the result as JSON")
	rootCmd.AddCommand(predictCmd)
}
