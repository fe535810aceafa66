package main

import (
	"fmt"

	"github.com/sandevgo/storedash/internal/core"
	"github.com/spf13/cobra"
)

var catalogFlags struct {
	filter   core.Filter
	page     int
	pageSize int
	json     bool
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print one page of the product catalog",
	Args:  cobra.NoArgs,
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

		pageSize := catalogFlags.pageSize
		if pageSize <= 0 {
			pageSize = cfg.GetPageSize()
		}
		page := max(catalogFlags.page, 1)

		res := c.browser.GetCatalogPage(ctx, catalogFlags.filter, page, pageSize)

		out := cmd.OutOrStdout()
		if catalogFlags.json {
			return printJSON(out, res)
		}

		rows := make([][]string, 0, len(res.Page.Products))
		for _, p := range res.Page.Products {
			rows = append(rows, []string{p.ID, p.Name, p.Department, p.Aisle})
		}
		printTable(out, []string{"ID", "PRODUCT", "DEPARTMENT", "AISLE"}, rows)

		fmt.Fprintf(out, "Showing %d of %d products", len(res.Page.Products), res.Page.Total)
		if res.Page.HasMore {
			fmt.Fprintf(out, " (next: --page %d)\n", page+1)
		} else {
			fmt.Fprintln(out, ", no more products")
		}
		if res.Fallback {
			printFallback(out, res.Reason)
		}
		return nil
	},
}

func init() {
	f := catalogCmd.Flags()
	f.StringVarP(&catalogFlags.filter.Search, "search", "s", "", "case-insensitive text in name, aisle or department")
	f.StringVar(&catalogFlags.filter.Department, "department", "", "exact department")
	f.StringVar(&catalogFlags.filter.Aisle, "aisle", "", "exact aisle")
	f.IntVarP(&catalogFlags.page, "page", "p", 1, "1-based page number")
	f.IntVar(&catalogFlags.pageSize, "page-size", 0, "products per page (default STOREDASH_PAGE_SIZE)")
	f.BoolVar(&catalogFlags.json, "json", false, "print the result as JSON")
	rootCmd.AddCommand(catalogCmd)
}
