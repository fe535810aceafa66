package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/sandevgo/storedash/internal/service/ui"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(ui.DescStyle).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

// printFallback notes that the data above came from local estimates.
func printFallback(w io.Writer, reason string) {
	fmt.Fprintln(w, ui.FailStyle.Render("using offline estimates"))
	if reason != "" {
		fmt.Fprintln(w, ui.DescStyle.Render(reason))
	}
}
