// CLAUDE:SUMMARY Writes finalized records to a UTF-8-with-BOM CSV file with a fixed column order.
// Package export persists finalized records and renders console previews.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/hazyhaar/kabar/record"
)

// Columns is the fixed header of every export.
var Columns = []string{
	"published_date",
	"title",
	"source",
	"description",
	"link",
	"date_string",
	"window_start",
	"window_end",
}

// Row renders a record in Columns order. A null published date is empty.
func Row(r record.Record) []string {
	published := ""
	if r.Published != nil {
		published = r.Published.Format(time.RFC3339)
	}
	return []string{
		published,
		r.Title,
		r.Source,
		r.Description,
		r.Link,
		r.DateString,
		r.Window.Start.Format(time.DateOnly),
		r.Window.End.Format(time.DateOnly),
	}
}

// Encode writes the header and one row per record to w, prefixed with the
// UTF-8 byte order mark so spreadsheet tools detect the encoding.
func Encode(w io.Writer, records []record.Record) error {
	bw := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	cw := csv.NewWriter(bw)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	for i, r := range records {
		if err := cw.Write(Row(r)); err != nil {
			return fmt.Errorf("export: row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush: %w", err)
	}
	if err := bw.Close(); err != nil {
		return fmt.Errorf("export: encode: %w", err)
	}
	return nil
}

// WriteCSV writes records to path, replacing any existing file.
func WriteCSV(path string, records []record.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("export: close %s: %w", path, cerr)
		}
	}()
	return Encode(f, records)
}
