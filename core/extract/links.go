// Link extraction: resolves anchor hrefs against the page URL and filters
// them down to downloadable documents by extension.
package extract

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/tablepipe/core"
)

// DefaultExtensions is the extension filter used when none is configured.
var DefaultExtensions = []string{"pdf"}

// Links extracts anchors whose resolved path carries one of the given
// extensions (case-insensitive). The returned links are deduplicated by
// absolute URL in first-seen order. The second return value is the total
// number of resolvable candidate anchors, before filtering.
func Links(html string, baseURL string, extensions []string) ([]core.DocumentLink, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, &core.Error{Kind: core.KindParseError, Err: err}
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, 0, &core.Error{Kind: core.KindInvalidURL, URL: baseURL, Err: err}
	}

	wanted := normalizeExtensions(extensions)
	seen := make(map[string]bool)
	var links []core.DocumentLink
	candidates := 0

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		resolved := resolveURL(href, base)
		if resolved == nil {
			return
		}
		candidates++

		ext := strings.TrimPrefix(strings.ToLower(path.Ext(resolved.Path)), ".")
		if !wanted[ext] {
			return
		}
		abs := resolved.String()
		if seen[abs] {
			return
		}
		seen[abs] = true
		links = append(links, core.DocumentLink{
			AbsoluteURL: abs,
			Filename:    inferFilename(resolved, ext),
			Extension:   ext,
		})
	})

	return links, candidates, nil
}

// resolveURL resolves a potentially relative href against a base.
// Non-document pseudo-links (mailto:, javascript:, tel:, fragment-only,
// empty) resolve to nil and are silently skipped.
func resolveURL(href string, base *url.URL) *url.URL {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "tel:") || strings.HasPrefix(href, "data:") {
		return nil
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return nil
	}
	return resolved
}

func normalizeExtensions(exts []string) map[string]bool {
	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			set[e] = true
		}
	}
	return set
}

// inferFilename derives a local filename from the last URL path segment.
func inferFilename(u *url.URL, ext string) string {
	name := path.Base(u.Path)
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = sanitizeFilename(name)
	if name == "" || name == "." {
		name = "document." + ext
	}
	return name
}

// sanitizeFilename replaces characters that are unsafe in a local filename.
func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, ch := range name {
		if ch == '/' || ch == '\\' || ch == ':' || ch < 0x20 {
			b.WriteRune('_')
		} else {
			b.WriteRune(ch)
		}
	}
	return strings.Trim(b.String(), " .")
}
