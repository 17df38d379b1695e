// Package download streams document links to local files.
// Each item is fully independent: a failure is recorded in its outcome and
// never aborts the rest of the batch. Filenames are reserved with atomic
// create semantics so concurrent downloads cannot overwrite each other.
package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/gaurav-prasanna/tablepipe/core"
)

const defaultUserAgent = "TablePipe/1.0 (+https://github.com/gaurav-prasanna/tablepipe)"

// Options configure a Downloader.
type Options struct {
	Timeout           time.Duration // per request; non-positive falls back to core.DefaultTimeout
	Concurrency       int           // worker pool size; values below 1 mean sequential
	RequestsPerSecond float64       // request pacing across the batch; 0 disables
	MaxBytes          int64         // per-document size cap; 0 disables
}

// Downloader fetches documents over HTTP into a destination directory.
type Downloader struct {
	client   *resty.Client
	limiter  *rate.Limiter
	maxBytes int64
	workers  int64
}

// New creates a Downloader.
func New(opts Options) *Downloader {
	if opts.Timeout <= 0 {
		opts.Timeout = core.DefaultTimeout
	}
	workers := int64(opts.Concurrency)
	if workers < 1 {
		workers = 1
	}
	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", defaultUserAgent)
	return &Downloader{
		client:   client,
		limiter:  rate.NewLimiter(limit, 1),
		maxBytes: opts.MaxBytes,
		workers:  workers,
	}
}

// Download fetches every link into destDir and reports one outcome per link,
// in input order. The batch always completes: per-item failures are captured
// in their outcome. On cancellation, undispatched items are marked with the
// classified context error and in-flight items are drained before returning.
func (d *Downloader) Download(ctx context.Context, links []core.DocumentLink, destDir string) []core.DownloadOutcome {
	outcomes := make([]core.DownloadOutcome, len(links))

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		werr := &core.Error{Kind: core.KindIOError, Err: err}
		for i, link := range links {
			outcomes[i] = core.DownloadOutcome{Link: link, Err: werr}
		}
		return outcomes
	}

	sem := semaphore.NewWeighted(d.workers)
	for i, link := range links {
		if err := sem.Acquire(ctx, 1); err != nil {
			for j := i; j < len(links); j++ {
				outcomes[j] = core.DownloadOutcome{Link: links[j], Err: core.Classify(links[j].AbsoluteURL, err)}
			}
			break
		}
		go func(i int, link core.DocumentLink) {
			defer sem.Release(1)
			// Each worker writes its own slot, so no locking is needed.
			outcomes[i] = d.fetchOne(ctx, link, destDir)
		}(i, link)
	}

	// Wait for in-flight workers without the request context, so a cancelled
	// run still assembles its partial outcomes.
	_ = sem.Acquire(context.Background(), d.workers)
	return outcomes
}

func (d *Downloader) fetchOne(ctx context.Context, link core.DocumentLink, destDir string) core.DownloadOutcome {
	out := core.DownloadOutcome{Link: link}

	if err := d.limiter.Wait(ctx); err != nil {
		out.Err = core.Classify(link.AbsoluteURL, err)
		return out
	}

	dest, err := reserveName(destDir, link.Filename)
	if err != nil {
		out.Err = &core.Error{Kind: core.KindIOError, URL: link.AbsoluteURL, Err: err}
		return out
	}

	if err := d.streamTo(ctx, link.AbsoluteURL, dest); err != nil {
		// Release the reservation: no half-written file survives a failure.
		os.Remove(dest)
		out.Err = err
		return out
	}
	out.SavedPath = dest
	return out
}

// reserveName claims a collision-free filename in dir using atomic create
// semantics, retrying with a numeric suffix before the extension on
// conflict (report.pdf, report_1.pdf, report_2.pdf, ...).
func reserveName(dir, name string) (string, error) {
	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			ext := filepath.Ext(name)
			candidate = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
		}
		p := filepath.Join(dir, candidate)
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		f.Close()
		return p, nil
	}
}

// streamTo downloads rawURL into a temporary file next to dest, then renames
// it onto the reserved name so the visible file appears atomically.
func (d *Downloader) streamTo(ctx context.Context, rawURL, dest string) error {
	resp, err := d.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return core.Classify(rawURL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return &core.Error{Kind: core.KindHTTPError, Status: resp.StatusCode(), URL: rawURL}
	}

	// dest is already unique, so the .part name cannot collide within a run.
	// A stale .part from a crashed prior run is truncated, not an error.
	tmp := dest + ".part"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return &core.Error{Kind: core.KindIOError, URL: rawURL, Err: err}
	}

	var reader io.Reader = body
	if d.maxBytes > 0 {
		reader = io.LimitReader(body, d.maxBytes+1)
	}
	written, copyErr := io.Copy(f, reader)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		os.Remove(tmp)
		return classifyCopyError(rawURL, copyErr)
	case closeErr != nil:
		os.Remove(tmp)
		return &core.Error{Kind: core.KindIOError, URL: rawURL, Err: closeErr}
	case d.maxBytes > 0 && written > d.maxBytes:
		os.Remove(tmp)
		return &core.Error{Kind: core.KindSizeLimitExceeded, URL: rawURL}
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return &core.Error{Kind: core.KindIOError, URL: rawURL, Err: err}
	}
	return nil
}

// classifyCopyError distinguishes a broken network read from a failed disk
// write while streaming.
func classifyCopyError(rawURL string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return core.Classify(rawURL, err)
	}
	return &core.Error{Kind: core.KindIOError, URL: rawURL, Err: err}
}
