package collect

import (
	"time"

	"github.com/hazyhaar/kabar/record"
)

// Report summarizes one run. Skipped work is counted, not just logged.
type Report struct {
	RunID   string
	Fetcher string
	Query   string
	Start   time.Time
	End     time.Time
	Output  string

	Windows     []record.Outcome
	Collected   int // records accumulated before dedup
	Unique      int // records after dedup
	RecordSkips int
	Written     bool
	Aborted     bool

	// Records holds the finalized rows, newest first.
	Records []record.Record

	StartedAt  time.Time
	FinishedAt time.Time
}

func (r *Report) add(o record.Outcome, b record.Batch) {
	r.Windows = append(r.Windows, o)
	r.RecordSkips += len(b.Skips)
}

// SkippedWindows counts windows whose fetch failed.
func (r *Report) SkippedWindows() int {
	n := 0
	for _, o := range r.Windows {
		if o.Status == record.StatusSkipped {
			n++
		}
	}
	return n
}
