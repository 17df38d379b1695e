// Package cmd implements the CLI commands for TablePipe using Cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tablepipe",
	Short: "TablePipe — extract tables and document links from a web page",
	Long: `TablePipe fetches a web page, extracts its tables and document links,
and saves the results to disk: CSV files for tables, downloaded files for
documents.

Usage:
  tablepipe scrape <url> [flags]`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
