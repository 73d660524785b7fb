package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts outputOptions

	rootCmd := &cobra.Command{
		Use:   "creditdash",
		Short: "Credit risk dataset dashboard and inspection tools",
		Long: `creditdash serves the credit-risk dashboard and offers the same views
(raw rows, filters, summary statistics, correlations) from the terminal.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "table", "Output format: table, json, markdown, csv")

	rootCmd.AddCommand(
		newServeCmd(),
		newRawCmd(&opts),
		newSummaryCmd(&opts),
		newFilterCmd(&opts),
		newCorrCmd(&opts),
	)
	return rootCmd
}
