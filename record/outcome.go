package record

import (
	"time"

	"github.com/hazyhaar/kabar/window"
)

// Status is the result class of one window.
type Status string

const (
	StatusFetched Status = "fetched"
	StatusSkipped Status = "skipped"
)

// Outcome is the observable result of one window: either fetched with a
// record count, or skipped with the reason.
type Outcome struct {
	Window      window.Window
	Status      Status
	Records     int
	RecordSkips int
	Pages       int
	Err         error
	Duration    time.Duration
}

// Fetched builds the outcome of a successful window.
func Fetched(w window.Window, b Batch, d time.Duration) Outcome {
	return Outcome{
		Window:      w,
		Status:      StatusFetched,
		Records:     len(b.Records),
		RecordSkips: len(b.Skips),
		Pages:       b.Pages,
		Duration:    d,
	}
}

// Skipped builds the outcome of a window whose fetch failed.
func Skipped(w window.Window, err error, d time.Duration) Outcome {
	return Outcome{Window: w, Status: StatusSkipped, Err: err, Duration: d}
}

// Reason returns the skip reason, or "" for fetched windows.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
