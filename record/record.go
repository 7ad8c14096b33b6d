// CLAUDE:SUMMARY Collected record type, per-window batch with skip reasons, and the append-only collection.
// Package record holds the data collected by a run: one Record per result,
// grouped into a Batch per fetched window and accumulated into a Collection.
package record

import (
	"time"

	"github.com/hazyhaar/kabar/window"
)

// Record is one collected result. Link is the identity used for dedup.
type Record struct {
	Title       string
	Description string
	Link        string
	Source      string
	// DateString is the timestamp exactly as the source rendered it.
	DateString string
	// Published is nil until normalized, or when DateString is unrecognized.
	Published *time.Time
	Window    window.Window
}

// Skip explains why one raw result did not become a Record.
type Skip struct {
	Reason string
	// Hint identifies the raw result when possible (a link, an item id).
	Hint string
}

// Batch is what a fetcher produced for one window.
type Batch struct {
	Records []Record
	Skips   []Skip
	// Pages is the number of pages or dataset pages read.
	Pages int
}

// Add appends a record stamped with w.
func (b *Batch) Add(r Record, w window.Window) {
	r.Window = w
	b.Records = append(b.Records, r)
}

// Skip records a dropped raw result.
func (b *Batch) Skip(reason, hint string) {
	b.Skips = append(b.Skips, Skip{Reason: reason, Hint: hint})
}

// Collection accumulates records across windows. Append-only; no dedup.
type Collection struct {
	records []Record
}

// Append adds records in order.
func (c *Collection) Append(rs ...Record) {
	c.records = append(c.records, rs...)
}

// Len returns the number of accumulated records.
func (c *Collection) Len() int { return len(c.records) }

// Records returns a copy of the accumulated records.
func (c *Collection) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}
