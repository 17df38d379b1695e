// Package pipeline sequences the run: fetch → extract → write tables /
// print links / download documents, and aggregates a RunSummary.
// Only the initial fetch is fatal; every later failure is recorded at the
// item level and the run continues.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"

	"github.com/gaurav-prasanna/tablepipe/core"
	"github.com/gaurav-prasanna/tablepipe/core/download"
	"github.com/gaurav-prasanna/tablepipe/core/extract"
	"github.com/gaurav-prasanna/tablepipe/core/fetch"
	"github.com/gaurav-prasanna/tablepipe/core/output"
)

// Pipeline runs one scrape end to end.
type Pipeline struct {
	cfg        core.Config
	log        zerolog.Logger
	fetcher    core.Fetcher
	downloader core.Downloader
	writer     *output.Writer
	console    io.Writer
}

// Option overrides a pipeline collaborator, mainly for tests.
type Option func(*Pipeline)

// WithFetcher replaces the default HTTP fetcher.
func WithFetcher(f core.Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithDownloader replaces the default document downloader.
func WithDownloader(d core.Downloader) Option {
	return func(p *Pipeline) { p.downloader = d }
}

// WithConsole redirects user-facing listing output (default os.Stdout).
func WithConsole(w io.Writer) Option {
	return func(p *Pipeline) { p.console = w }
}

// New validates cfg, fills defaults, and builds a Pipeline.
func New(cfg core.Config, log zerolog.Logger, opts ...Option) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if cfg.URL == "" {
		return nil, &core.Error{Kind: core.KindInvalidURL, Err: errors.New("url is required")}
	}

	writer, err := output.New(cfg.OutputDir)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:     cfg,
		log:     log,
		fetcher: fetch.New(cfg.Timeout),
		downloader: download.New(download.Options{
			Timeout:           cfg.Timeout,
			Concurrency:       cfg.Concurrency,
			RequestsPerSecond: cfg.RequestsPerSecond,
			MaxBytes:          cfg.MaxDownloadBytes,
		}),
		writer:  writer,
		console: os.Stdout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Run executes the pipeline. A RunSummary is always returned; when the
// initial fetch fails it carries only the fetch error and zero counts.
func (p *Pipeline) Run(ctx context.Context) core.RunSummary {
	summary := core.RunSummary{URL: p.cfg.URL}

	p.log.Info().Str("url", p.cfg.URL).Msg("fetching page")
	result, err := p.fetcher.Fetch(ctx, p.cfg.URL)
	if err != nil {
		p.log.Error().Err(err).Str("url", p.cfg.URL).Msg("fetch failed")
		summary.FetchError = err
		return summary
	}
	p.log.Info().Int("status", result.StatusCode).Int("bytes", len(result.Body)).Msg("page fetched")

	p.writeSnapshots(result.Body)

	tables, err := extract.Tables(result.Body)
	if err != nil {
		p.log.Warn().Err(err).Msg("table extraction failed")
	}
	summary.TablesFound = len(tables)

	links, candidates, err := extract.Links(result.Body, p.cfg.URL, p.cfg.Extensions)
	if err != nil {
		p.log.Warn().Err(err).Msg("link extraction failed")
	}
	summary.LinksFound = candidates
	summary.LinksMatched = len(links)
	p.log.Info().
		Int("tables", len(tables)).
		Int("links", candidates).
		Int("matched", len(links)).
		Msg("extraction complete")

	if p.cfg.DownloadTables {
		p.writeTables(tables, &summary)
	}
	if p.cfg.FindLinks {
		p.printLinks(links)
	}
	if p.cfg.DownloadDocuments {
		p.downloadDocuments(ctx, links, &summary)
	}

	return summary
}

// writeSnapshots saves the fetched page; failure here is never fatal.
func (p *Pipeline) writeSnapshots(html string) {
	if path, err := p.writer.WriteSnapshot(html); err != nil {
		p.log.Warn().Err(err).Msg("failed to save page snapshot")
	} else {
		p.log.Info().Str("path", path).Msg("saved page snapshot")
	}

	if !p.cfg.MarkdownSnapshot {
		return
	}
	if path, err := p.writer.WriteMarkdownSnapshot(html); err != nil {
		p.log.Warn().Err(err).Msg("failed to save markdown snapshot")
	} else {
		p.log.Info().Str("path", path).Msg("saved markdown snapshot")
	}
}

// writeTables serializes every table with at least one row. A failed table
// is logged and skipped; the remaining tables are still written.
func (p *Pipeline) writeTables(tables []core.Table, summary *core.RunSummary) {
	for i, t := range tables {
		if len(t.Rows) == 0 {
			p.log.Info().Int("table", i).Msg("skipping empty table")
			continue
		}
		path, err := p.writer.WriteTable(t, i)
		if err != nil {
			p.log.Error().Err(err).Int("table", i).Msg("failed to write table")
			continue
		}
		summary.TablesWritten++
		p.log.Info().Str("path", path).Int("rows", len(t.Rows)).Msg("wrote table")
	}
}

// printLinks renders the matched document links on the console.
func (p *Pipeline) printLinks(links []core.DocumentLink) {
	if len(links) == 0 {
		fmt.Fprintln(p.console, "No matching document links found.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.console)
	t.AppendHeader(table.Row{"#", "Document", "URL"})
	for i, link := range links {
		t.AppendRow(table.Row{i + 1, link.Filename, link.AbsoluteURL})
	}
	t.Render()

	for _, link := range links {
		p.log.Info().Str("url", link.AbsoluteURL).Msg("found document link")
	}
}

// downloadDocuments runs the download batch and tallies the outcomes.
func (p *Pipeline) downloadDocuments(ctx context.Context, links []core.DocumentLink, summary *core.RunSummary) {
	if len(links) == 0 {
		return
	}
	p.log.Info().Int("count", len(links)).Msg("downloading documents")

	outcomes := p.downloader.Download(ctx, links, p.cfg.OutputDir)
	summary.Outcomes = outcomes
	for _, out := range outcomes {
		if out.Err != nil {
			summary.DocumentsFailed++
			p.log.Error().Err(out.Err).Str("url", out.Link.AbsoluteURL).Msg("download failed")
			continue
		}
		summary.DocumentsDownloaded++
		p.log.Info().Str("path", out.SavedPath).Msg("downloaded document")
	}
}
