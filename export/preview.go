package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"github.com/hazyhaar/kabar/record"
)

// PreviewRows is how many records Preview shows.
const PreviewRows = 5

// Truncate shortens s to at most width display cells, collapsing
// whitespace first. Wide (CJK, emoji) runes count double.
func Truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}

// Preview renders the head of records as a table.
func Preview(w io.Writer, records []record.Record, cellWidth int) {
	if cellWidth <= 0 {
		cellWidth = 40
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"published_date", "title", "source", "link"})

	n := min(len(records), PreviewRows)
	for _, r := range records[:n] {
		published := ""
		if r.Published != nil {
			published = r.Published.Format(time.DateTime)
		}
		t.AppendRow(table.Row{
			published,
			Truncate(r.Title, cellWidth),
			Truncate(r.Source, cellWidth/2),
			Truncate(r.Link, cellWidth),
		})
	}
	if len(records) > n {
		t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d more", len(records)-n)})
	}
	t.Render()
}
