package collect

import (
	"slices"
	"time"

	"github.com/hazyhaar/kabar/datestr"
	"github.com/hazyhaar/kabar/record"
)

// Finalize dedups records by Link (first occurrence wins), normalizes
// DateString into Published at reference time ref, and sorts newest first
// with undated records last. The input slice is not modified.
//
// Finalize is idempotent: applying it to its own output changes nothing
// but the relative-time anchors.
func Finalize(records []record.Record, dates *datestr.Parser, ref time.Time) []record.Record {
	if dates == nil {
		dates = datestr.New()
	}

	seen := make(map[string]struct{}, len(records))
	out := make([]record.Record, 0, len(records))
	for _, r := range records {
		if _, dup := seen[r.Link]; dup {
			continue
		}
		seen[r.Link] = struct{}{}

		if t, ok := dates.ParseAt(r.DateString, ref); ok {
			r.Published = &t
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, newestFirst)
	return out
}

func newestFirst(a, b record.Record) int {
	switch {
	case a.Published == nil && b.Published == nil:
		return 0
	case a.Published == nil:
		return 1
	case b.Published == nil:
		return -1
	}
	return b.Published.Compare(*a.Published)
}
