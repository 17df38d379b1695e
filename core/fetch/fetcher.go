// Package fetch implements the Fetcher interface.
// It performs HTTP GET requests with sensible defaults for web scraping and
// decodes the response body to UTF-8 using the declared or detected charset.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	"github.com/gaurav-prasanna/tablepipe/core"
)

const defaultUserAgent = "TablePipe/1.0 (+https://github.com/gaurav-prasanna/tablepipe)"

// HTTPFetcher fetches web pages via HTTP.
type HTTPFetcher struct {
	client *resty.Client
}

// New creates an HTTPFetcher. A non-positive timeout falls back to
// core.DefaultTimeout; an unbounded wait is never allowed.
func New(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = core.DefaultTimeout
	}
	client := resty.New().
		SetTimeout(timeout).
		SetDoNotParseResponse(true).
		SetHeader("User-Agent", defaultUserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")
	return &HTTPFetcher{client: client}
}

// Fetch retrieves the page at rawURL. Failures are classified: a bad URL is
// invalid_url, a non-2xx response is http_error with the status, transport
// failures map to timeout or connection_failed.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*core.FetchResult, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, &core.Error{Kind: core.KindInvalidURL, URL: rawURL, Err: err}
	}

	resp, err := f.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, core.Classify(rawURL, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, &core.Error{Kind: core.KindHTTPError, Status: resp.StatusCode(), URL: rawURL}
	}

	contentType := resp.Header().Get("Content-Type")
	reader, err := charset.NewReader(body, contentType)
	if err != nil {
		return nil, &core.Error{Kind: core.KindParseError, URL: rawURL, Err: fmt.Errorf("detecting charset: %w", err)}
	}
	text, err := io.ReadAll(reader)
	if err != nil {
		return nil, core.Classify(rawURL, err)
	}

	return &core.FetchResult{
		URL:         rawURL,
		StatusCode:  resp.StatusCode(),
		Body:        string(text),
		ContentType: contentType,
	}, nil
}
