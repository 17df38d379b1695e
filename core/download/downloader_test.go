package download

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gaurav-prasanna/tablepipe/core"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/docs/a.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("first document"))
	})
	mux.HandleFunc("/other/a.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("second document"))
	})
	mux.HandleFunc("/big.pdf", func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 4096))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func link(url, filename string) core.DocumentLink {
	return core.DocumentLink{AbsoluteURL: url, Filename: filename, Extension: "pdf"}
}

func TestDownloadSavesDocument(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()

	d := New(Options{Concurrency: 1})
	outcomes := d.Download(context.Background(), []core.DocumentLink{
		link(srv.URL+"/docs/a.pdf", "a.pdf"),
	}, dir)

	require.Len(t, outcomes, 1)
	require.NoError(t, outcomes[0].Err)
	require.Equal(t, filepath.Join(dir, "a.pdf"), outcomes[0].SavedPath)

	data, err := os.ReadFile(outcomes[0].SavedPath)
	require.NoError(t, err)
	require.Equal(t, "first document", string(data))
}

func TestDownloadCollidingFilenamesProduceDistinctFiles(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()

	d := New(Options{Concurrency: 1})
	outcomes := d.Download(context.Background(), []core.DocumentLink{
		link(srv.URL+"/docs/a.pdf", "a.pdf"),
		link(srv.URL+"/other/a.pdf", "a.pdf"),
	}, dir)

	require.NoError(t, outcomes[0].Err)
	require.NoError(t, outcomes[1].Err)
	require.Equal(t, filepath.Join(dir, "a.pdf"), outcomes[0].SavedPath)
	require.Equal(t, filepath.Join(dir, "a_1.pdf"), outcomes[1].SavedPath)

	first, err := os.ReadFile(outcomes[0].SavedPath)
	require.NoError(t, err)
	second, err := os.ReadFile(outcomes[1].SavedPath)
	require.NoError(t, err)
	require.Equal(t, "first document", string(first))
	require.Equal(t, "second document", string(second))
}

func TestDownloadNeverOverwritesPreexistingFile(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("from a prior run"), 0o644))

	d := New(Options{Concurrency: 1})
	outcomes := d.Download(context.Background(), []core.DocumentLink{
		link(srv.URL+"/docs/a.pdf", "a.pdf"),
	}, dir)

	require.NoError(t, outcomes[0].Err)
	require.Equal(t, filepath.Join(dir, "a_1.pdf"), outcomes[0].SavedPath)

	untouched, err := os.ReadFile(filepath.Join(dir, "a.pdf"))
	require.NoError(t, err)
	require.Equal(t, "from a prior run", string(untouched))
}

func TestDownloadPartialFailureDoesNotAbortBatch(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()

	d := New(Options{Concurrency: 1})
	outcomes := d.Download(context.Background(), []core.DocumentLink{
		link(srv.URL+"/missing.pdf", "missing.pdf"),
		link(srv.URL+"/docs/a.pdf", "a.pdf"),
	}, dir)

	require.Len(t, outcomes, 2)
	require.True(t, core.IsKind(outcomes[0].Err, core.KindHTTPError))
	require.Empty(t, outcomes[0].SavedPath)
	require.NoError(t, outcomes[1].Err)

	// The failed item leaves no file behind, not even a partial one.
	_, err := os.Stat(filepath.Join(dir, "missing.pdf"))
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "missing.pdf.part"))
	require.True(t, os.IsNotExist(err))
}

func TestDownloadSizeCap(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()

	d := New(Options{Concurrency: 1, MaxBytes: 1024})
	outcomes := d.Download(context.Background(), []core.DocumentLink{
		link(srv.URL+"/big.pdf", "big.pdf"),
	}, dir)

	require.True(t, core.IsKind(outcomes[0].Err, core.KindSizeLimitExceeded))

	_, err := os.Stat(filepath.Join(dir, "big.pdf"))
	require.True(t, os.IsNotExist(err))
}

func TestDownloadConcurrentBatch(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()

	links := []core.DocumentLink{
		link(srv.URL+"/docs/a.pdf", "one.pdf"),
		link(srv.URL+"/other/a.pdf", "two.pdf"),
		link(srv.URL+"/docs/a.pdf", "three.pdf"),
		link(srv.URL+"/other/a.pdf", "four.pdf"),
	}
	d := New(Options{Concurrency: 4, RequestsPerSecond: 100})
	outcomes := d.Download(context.Background(), links, dir)

	require.Len(t, outcomes, len(links))
	for i, out := range outcomes {
		require.NoError(t, out.Err, "outcome %d", i)
		require.Equal(t, links[i].AbsoluteURL, out.Link.AbsoluteURL)
		_, err := os.Stat(out.SavedPath)
		require.NoError(t, err)
	}
}

func TestDownloadCancelledContextReportsAllOutcomes(t *testing.T) {
	srv := testServer(t)
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := New(Options{Concurrency: 2})
	outcomes := d.Download(ctx, []core.DocumentLink{
		link(srv.URL+"/docs/a.pdf", "a.pdf"),
		link(srv.URL+"/other/a.pdf", "b.pdf"),
	}, dir)

	require.Len(t, outcomes, 2)
	for _, out := range outcomes {
		require.Error(t, out.Err)
		require.Empty(t, out.SavedPath)
	}
}
