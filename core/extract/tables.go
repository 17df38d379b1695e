// Package extract parses fetched HTML into tables and document links.
// Parsing is best-effort: malformed markup yields partial results, never an
// error, and neither extractor performs any network or file I/O.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gaurav-prasanna/tablepipe/core"
)

var whitespaceRuns = regexp.MustCompile(`\s+`)

// cleanCell normalizes cell text: non-breaking spaces become plain spaces,
// inner whitespace runs collapse to one space, edges are trimmed.
func cleanCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = whitespaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tables extracts every <table> element in document order. Ragged rows are
// padded with empty cells up to the widest row of their table, so minor
// markup irregularities never drop data. Empty and header-only tables are
// included; callers decide whether to write them.
func Tables(html string) ([]core.Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, &core.Error{Kind: core.KindParseError, Err: err}
	}

	var tables []core.Table
	doc.Find("table").Each(func(_ int, t *goquery.Selection) {
		var rows [][]string
		width := 0
		t.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, cleanCell(cell.Text()))
			})
			if len(cells) > width {
				width = len(cells)
			}
			rows = append(rows, cells)
		})

		for i, row := range rows {
			for len(row) < width {
				row = append(row, "")
			}
			rows[i] = row
		}
		tables = append(tables, core.Table{Rows: rows})
	})
	return tables, nil
}
