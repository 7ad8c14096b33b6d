package record

import (
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/kabar/window"
)

var w1 = window.Window{
	Start: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
}

func TestBatch_AddStampsWindow(t *testing.T) {
	// WHAT: Batch.Add records the window the record was collected in.
	// WHY: collected_in_window is exported with each row.
	var b Batch
	b.Add(Record{Link: "https://a"}, w1)
	b.Skip("missing link", "block 3")
	if len(b.Records) != 1 || b.Records[0].Window != w1 {
		t.Fatalf("records: got %+v", b.Records)
	}
	if len(b.Skips) != 1 || b.Skips[0].Reason != "missing link" {
		t.Errorf("skips: got %+v", b.Skips)
	}
}

func TestCollection_AppendKeepsOrderAndDuplicates(t *testing.T) {
	// WHAT: Collection is append-only and does not dedup.
	// WHY: Dedup is deferred to finalization (first occurrence wins).
	var c Collection
	c.Append(Record{Link: "a", Title: "1"}, Record{Link: "b"})
	c.Append(Record{Link: "a", Title: "2"})
	got := c.Records()
	if c.Len() != 3 || len(got) != 3 {
		t.Fatalf("len: got %d", c.Len())
	}
	if got[0].Title != "1" || got[2].Title != "2" {
		t.Errorf("order: got %+v", got)
	}

	got[0].Title = "mutated"
	if c.Records()[0].Title != "1" {
		t.Error("Records must return a copy")
	}
}

func TestOutcome(t *testing.T) {
	b := Batch{Records: make([]Record, 4), Skips: make([]Skip, 1), Pages: 2}
	o := Fetched(w1, b, time.Second)
	if o.Status != StatusFetched || o.Records != 4 || o.RecordSkips != 1 || o.Pages != 2 {
		t.Errorf("fetched: got %+v", o)
	}
	if o.Reason() != "" {
		t.Errorf("fetched reason: got %q", o.Reason())
	}

	s := Skipped(w1, errors.New("boom"), 0)
	if s.Status != StatusSkipped || s.Reason() != "boom" {
		t.Errorf("skipped: got %+v", s)
	}
}
