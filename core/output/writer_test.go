package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/tablepipe/core"
)

func TestWriteTableNaming(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	table := core.Table{Rows: [][]string{{"A", "B"}, {"1", "2"}}}

	path0, err := w.WriteTable(table, 0)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "table_0.csv"), path0)

	path1, err := w.WriteTable(table, 1)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "table_1.csv"), path1)
}

func TestWriteTableRoundTrip(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	rows := [][]string{
		{"plain", "with,comma", `with"quote`},
		{"multi\nline", "", "trailing space "},
	}
	path, err := w.WriteTable(core.Table{Rows: rows}, 0)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	got, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Equal(t, rows, got)
}

func TestWriteTableLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	_, err = w.WriteTable(core.Table{Rows: [][]string{{"x"}}}, 0)
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".tmp"), "stray temp file %s", e.Name())
	}
}

func TestWriteSnapshot(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	html := "<html><body><h1>Snapshot</h1></body></html>"
	path, err := w.WriteSnapshot(html)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "scraped_content.html"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, html, string(data))
}

func TestWriteMarkdownSnapshot(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)

	path, err := w.WriteMarkdownSnapshot("<html><body><h1>Heading</h1><p>Body text.</p></body></html>")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "scraped_content.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "Heading")
	require.Contains(t, string(data), "Body text.")
}

func TestNewCreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")

	_, err := New(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}

func TestWriteTableIOErrorKind(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)
	// Point the writer at a path that cannot be created.
	w.OutputDir = filepath.Join(dir, "missing-subdir")

	_, err = w.WriteTable(core.Table{Rows: [][]string{{"x"}}}, 0)
	require.True(t, core.IsKind(err, core.KindIOError), "got %v", err)
}
