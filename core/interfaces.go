// Package core defines the shared types, stage interfaces, and error
// taxonomy for the TablePipe scraping pipeline.
package core

import (
	"context"
	"time"
)

// FetchResult holds the decoded page body and response metadata from a fetch.
// Body is populated only when the fetch succeeded; a non-2xx response is
// surfaced as an error, never as an empty body.
type FetchResult struct {
	URL         string
	StatusCode  int
	Body        string
	ContentType string
}

// Table is a 2-D grid of text cells extracted from one HTML table element.
// Every row has the same number of cells; short rows are padded on extraction.
type Table struct {
	Rows [][]string
}

// Width returns the column count of the table (0 for an empty table).
func (t Table) Width() int {
	if len(t.Rows) == 0 {
		return 0
	}
	return len(t.Rows[0])
}

// DocumentLink is a resolved, filtered candidate URL pointing to a
// downloadable file.
type DocumentLink struct {
	AbsoluteURL string
	Filename    string // inferred local filename, before collision handling
	Extension   string // lower-case, without the leading dot
}

// DownloadOutcome reports the result of one download attempt. Outcomes are
// independent: a failed item never aborts its siblings.
type DownloadOutcome struct {
	Link      DocumentLink
	SavedPath string // empty when the download failed
	Err       error  // nil on success
}

// RunSummary is the aggregate result record for one pipeline execution.
type RunSummary struct {
	URL                 string
	FetchError          error // fatal; set only when the initial fetch failed
	TablesFound         int
	TablesWritten       int
	LinksFound          int // resolvable candidate anchors on the page
	LinksMatched        int // after the extension filter and deduplication
	DocumentsDownloaded int
	DocumentsFailed     int
	Outcomes            []DownloadOutcome
}

// Defaults for zero-valued Config fields.
const (
	DefaultOutputDir         = "output"
	DefaultTimeout           = 10 * time.Second
	DefaultConcurrency       = 4
	DefaultRequestsPerSecond = 4
)

// Config is the externally supplied configuration for one run.
type Config struct {
	URL               string
	OutputDir         string
	FindLinks         bool
	DownloadTables    bool
	DownloadDocuments bool
	MarkdownSnapshot  bool
	Extensions        []string // lower-cased on use; leading dots tolerated
	LogToConsole      bool
	Timeout           time.Duration
	Concurrency       int     // concurrent document downloads; 1 = sequential
	RequestsPerSecond float64 // download pacing; 0 disables
	MaxDownloadBytes  int64   // per-document size cap; 0 disables
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.RequestsPerSecond < 0 {
		c.RequestsPerSecond = 0
	}
	if len(c.Extensions) == 0 {
		c.Extensions = []string{"pdf"}
	}
}

// Fetcher retrieves and decodes a web page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*FetchResult, error)
}

// Downloader streams document links into a destination directory and
// reports one outcome per link.
type Downloader interface {
	Download(ctx context.Context, links []DocumentLink, destDir string) []DownloadOutcome
}
