// Package cmd — scrape command.
// It assembles the run configuration from flags, wires up logging, runs the
// pipeline, and reports the run summary. The process exits non-zero only
// when the configuration is invalid or the initial fetch fails; partial
// per-item failures in later stages are reported but not fatal.
package cmd

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/gaurav-prasanna/tablepipe/core"
	"github.com/gaurav-prasanna/tablepipe/core/pipeline"
	"github.com/gaurav-prasanna/tablepipe/logging"
)

// Flag variables.
var (
	flagOutput            string
	flagFindLinks         bool
	flagDownloadTables    bool
	flagDownloadDocuments bool
	flagMarkdownSnapshot  bool
	flagExtensions        []string
	flagLogToConsole      bool
	flagTimeout           time.Duration
	flagConcurrency       int
	flagRPS               float64
	flagMaxBytes          int64
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "Scrape tables and document links from a web page",
	Long: `Scrape fetches a single web page, extracts its tables and document links,
and saves the requested outputs under the output directory.

Examples:
  tablepipe scrape https://example.com --download-tables
  tablepipe scrape https://example.com --find-download-links --extensions pdf,docx
  tablepipe scrape https://example.com --download-documents --output ./out`,
	Args: cobra.ExactArgs(1),
	RunE: runScrape,
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().StringVar(&flagOutput, "output", core.DefaultOutputDir, "Directory to save scraped data")
	scrapeCmd.Flags().BoolVar(&flagFindLinks, "find-download-links", false, "Find and print download links for documents")
	scrapeCmd.Flags().BoolVar(&flagDownloadTables, "download-tables", false, "Extract and save tables as CSV files")
	scrapeCmd.Flags().BoolVar(&flagDownloadDocuments, "download-documents", false, "Download the found document links to the output directory")
	scrapeCmd.Flags().BoolVar(&flagMarkdownSnapshot, "markdown-snapshot", false, "Also save the fetched page as Markdown")
	scrapeCmd.Flags().StringSliceVar(&flagExtensions, "extensions", []string{"pdf"}, "Document extensions to match")
	scrapeCmd.Flags().BoolVar(&flagLogToConsole, "log-to-console", false, "Also log to the console in addition to the log file")
	scrapeCmd.Flags().DurationVar(&flagTimeout, "timeout", core.DefaultTimeout, "Timeout per HTTP request")
	scrapeCmd.Flags().IntVar(&flagConcurrency, "concurrency", core.DefaultConcurrency, "Concurrent document downloads")
	scrapeCmd.Flags().Float64Var(&flagRPS, "requests-per-second", core.DefaultRequestsPerSecond, "Download request pacing (0 disables)")
	scrapeCmd.Flags().Int64Var(&flagMaxBytes, "max-download-bytes", 0, "Per-document size cap in bytes (0 disables)")
}

func runScrape(cmd *cobra.Command, args []string) error {
	rawURL := args[0]

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid URL: %s (must include scheme, e.g. https://example.com)", rawURL)
	}

	cfg := core.Config{
		URL:               rawURL,
		OutputDir:         flagOutput,
		FindLinks:         flagFindLinks,
		DownloadTables:    flagDownloadTables,
		DownloadDocuments: flagDownloadDocuments,
		MarkdownSnapshot:  flagMarkdownSnapshot,
		Extensions:        flagExtensions,
		LogToConsole:      flagLogToConsole,
		Timeout:           flagTimeout,
		Concurrency:       flagConcurrency,
		RequestsPerSecond: flagRPS,
		MaxDownloadBytes:  flagMaxBytes,
	}
	cfg.ApplyDefaults()

	log, err := logging.New(cfg.OutputDir, cfg.LogToConsole)
	if err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	// An interrupt aborts outstanding network calls; the partial summary is
	// still reported below.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary := p.Run(ctx)
	printSummary(summary)

	if summary.FetchError != nil {
		return fmt.Errorf("scrape failed: %w", summary.FetchError)
	}
	return nil
}

// printSummary renders the per-stage counts for the finished run.
func printSummary(s core.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Stage", "Count"})
	t.AppendRows([]table.Row{
		{"tables found", s.TablesFound},
		{"tables written", s.TablesWritten},
		{"links found", s.LinksFound},
		{"links matched filter", s.LinksMatched},
		{"documents downloaded", s.DocumentsDownloaded},
		{"documents failed", s.DocumentsFailed},
	})
	t.Render()
}
