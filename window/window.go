// CLAUDE:SUMMARY Splits a date range into contiguous monthly [start, end) windows, clamped to the range end.
// Package window chunks a collection date range into separately fetched
// intervals so that no single request hits a source's result cap.
package window

import (
	"fmt"
	"iter"
	"time"
)

// Window is a half-open interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDay returns the final calendar day covered by the window, i.e. the
// day before End. Sources that take inclusive day bounds use this.
func (w Window) LastDay() time.Time {
	return w.End.AddDate(0, 0, -1)
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("%s..%s", w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
}

// Monthly yields windows of one calendar month starting at start. The last
// window is clamped to end. Nothing is yielded unless start is before end.
//
// Each boundary is computed from start directly (start + i months) rather
// than by chaining, so a range starting on the 31st does not drift.
func Monthly(start, end time.Time) iter.Seq[Window] {
	return func(yield func(Window) bool) {
		if !start.Before(end) {
			return
		}
		lo := start
		for i := 1; lo.Before(end); i++ {
			hi := addMonths(start, i)
			if hi.After(end) {
				hi = end
			}
			if !yield(Window{Start: lo, End: hi}) {
				return
			}
			lo = hi
		}
	}
}

// Collect materialises a window sequence.
func Collect(seq iter.Seq[Window]) []Window {
	var out []Window
	for w := range seq {
		out = append(out, w)
	}
	return out
}

// addMonths adds n calendar months, pinning the day to the last day of the
// target month when the source day does not exist there (Jan 31 + 1 = Feb 28).
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}
