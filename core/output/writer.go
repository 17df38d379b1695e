// Package output handles file naming and writing for TablePipe outputs.
// Every write goes to a temporary file first and is renamed into place, so
// a failed run never leaves a half-written table or snapshot behind.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/gaurav-prasanna/tablepipe/core"
)

const (
	snapshotHTMLName     = "scraped_content.html"
	snapshotMarkdownName = "scraped_content.md"
)

// Writer writes tables and page snapshots under a single output directory.
type Writer struct {
	OutputDir string
}

// New creates a Writer targeting the given output directory, creating it if
// needed. An empty outputDir defaults to the current working directory.
func New(outputDir string) (*Writer, error) {
	if outputDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		outputDir = wd
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, &core.Error{Kind: core.KindIOError, Err: err}
	}
	return &Writer{OutputDir: outputDir}, nil
}

// WriteTable serializes one extracted table as table_<index>.csv. The index
// is the table's position in the extracted sequence, so tables from the
// same run can never collide. Cells round-trip exactly: delimiters, quotes,
// and newlines are escaped per RFC 4180 and the file is always UTF-8.
func (w *Writer) WriteTable(table core.Table, index int) (string, error) {
	dest := filepath.Join(w.OutputDir, fmt.Sprintf("table_%d.csv", index))
	err := w.atomicWrite(dest, func(f *os.File) error {
		return csv.NewWriter(f).WriteAll(table.Rows)
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

// WriteSnapshot saves the fetched page verbatim as scraped_content.html.
func (w *Writer) WriteSnapshot(html string) (string, error) {
	dest := filepath.Join(w.OutputDir, snapshotHTMLName)
	err := w.atomicWrite(dest, func(f *os.File) error {
		_, werr := f.WriteString(html)
		return werr
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

// WriteMarkdownSnapshot converts the fetched page to Markdown and saves it
// alongside the HTML snapshot.
func (w *Writer) WriteMarkdownSnapshot(html string) (string, error) {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", &core.Error{Kind: core.KindParseError, Err: fmt.Errorf("converting HTML to markdown: %w", err)}
	}
	dest := filepath.Join(w.OutputDir, snapshotMarkdownName)
	err = w.atomicWrite(dest, func(f *os.File) error {
		_, werr := f.WriteString(markdown)
		return werr
	})
	if err != nil {
		return "", err
	}
	return dest, nil
}

// atomicWrite fills a temporary file and renames it onto dest.
func (w *Writer) atomicWrite(dest string, fill func(*os.File) error) error {
	tmp := dest + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &core.Error{Kind: core.KindIOError, Err: err}
	}
	if err := fill(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return &core.Error{Kind: core.KindIOError, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return &core.Error{Kind: core.KindIOError, Err: err}
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return &core.Error{Kind: core.KindIOError, Err: err}
	}
	return nil
}
