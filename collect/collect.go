// CLAUDE:SUMMARY Sequential windowed collection loop: pace, fetch each window, record outcomes, accumulate, finalize, export.
// Package collect runs the windowed collection pipeline shared by every
// source: for each window, fetch and parse, accumulate; after the last
// window, finalize and write the export file.
//
// Windows are processed strictly one after another. A failed window is
// logged, recorded as skipped, and never retried; the loop moves on.
package collect

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/hazyhaar/kabar/datestr"
	"github.com/hazyhaar/kabar/export"
	"github.com/hazyhaar/kabar/record"
	"github.com/hazyhaar/kabar/window"
)

// Fetcher obtains the records of one window. Implementations parse their
// raw results themselves and report dropped ones as Batch skips. A non-nil
// error skips the whole window.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, query string, w window.Window) (record.Batch, error)
}

// Journal persists run progress. Errors are logged, never fatal.
type Journal interface {
	BeginRun(ctx context.Context, rep *Report) error
	RecordWindow(ctx context.Context, runID string, o record.Outcome) error
	FinishRun(ctx context.Context, rep *Report) error
}

// Options is the full configuration of one run.
type Options struct {
	Query  string
	Start  time.Time
	End    time.Time
	Output string

	// Pace is the minimum interval between window fetches. 0 disables pacing.
	Pace time.Duration

	// Dates normalizes timestamps at finalization. Default: datestr.New().
	Dates *datestr.Parser

	Journal Journal
	Logger  *slog.Logger

	// Now is the collection clock. Default: time.Now.
	Now func() time.Time
	// NewID generates run IDs. Default: UUIDv7.
	NewID func() string
}

func (o *Options) defaults() {
	if o.Dates == nil {
		o.Dates = datestr.New()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return uuid.Must(uuid.NewV7()).String() }
	}
}

// Run collects query over [opts.Start, opts.End) with f and writes the
// finalized records to opts.Output. An empty collection is reported with
// Written=false and no file. The returned Report is non-nil even on error.
func Run(ctx context.Context, f Fetcher, opts Options) (*Report, error) {
	opts.defaults()
	log := opts.Logger.With("fetcher", f.Name())

	rep := &Report{
		RunID:     opts.NewID(),
		Fetcher:   f.Name(),
		Query:     opts.Query,
		Start:     opts.Start,
		End:       opts.End,
		Output:    opts.Output,
		StartedAt: opts.Now(),
	}
	log = log.With("run_id", rep.RunID)
	journal := journalLogger{j: opts.Journal, log: log}
	journal.begin(ctx, rep)

	var limiter *rate.Limiter
	if opts.Pace > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Pace), 1)
	}

	log.Info("collect: starting", "query", opts.Query,
		"start", opts.Start.Format(time.DateOnly), "end", opts.End.Format(time.DateOnly))

	var coll record.Collection
	for w := range window.Monthly(opts.Start, opts.End) {
		if err := ctx.Err(); err != nil {
			return finishAborted(ctx, rep, journal, opts, err)
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return finishAborted(ctx, rep, journal, opts, err)
			}
		}

		o, batch := fetchWindow(ctx, f, opts.Query, w, opts.Now)
		if err := ctx.Err(); err != nil {
			// Interrupted mid-window: not a fetch failure, and nothing is kept.
			log.Warn("collect: interrupted", "window", w)
			return finishAborted(ctx, rep, journal, opts, err)
		}
		rep.add(o, batch)
		journal.window(ctx, rep.RunID, o)

		if o.Status == record.StatusSkipped {
			log.Warn("collect: window skipped", "window", w, "error", o.Err)
			continue
		}
		for _, s := range batch.Skips {
			log.Debug("collect: record skipped", "window", w, "reason", s.Reason, "hint", s.Hint)
		}
		coll.Append(batch.Records...)
		log.Info("collect: window fetched", "window", w,
			"records", o.Records, "skipped_records", o.RecordSkips,
			"pages", o.Pages, "total", coll.Len())
	}

	if err := ctx.Err(); err != nil {
		return finishAborted(ctx, rep, journal, opts, err)
	}

	rep.Collected = coll.Len()
	final := Finalize(coll.Records(), opts.Dates, opts.Now())
	rep.Unique = len(final)
	rep.Records = final
	rep.FinishedAt = opts.Now()

	if len(final) == 0 {
		log.Warn("collect: no records collected, nothing written")
		journal.finish(ctx, rep)
		return rep, nil
	}

	if err := export.WriteCSV(opts.Output, final); err != nil {
		journal.finish(ctx, rep)
		return rep, fmt.Errorf("collect: %w", err)
	}
	rep.Written = true
	journal.finish(ctx, rep)

	log.Info("collect: done", "collected", rep.Collected, "unique", rep.Unique,
		"skipped_windows", rep.SkippedWindows(), "output", opts.Output)
	return rep, nil
}

// fetchWindow runs one fetch and converts any failure, including a panic
// inside the fetcher, into a skipped outcome.
func fetchWindow(ctx context.Context, f Fetcher, query string, w window.Window, now func() time.Time) (o record.Outcome, b record.Batch) {
	start := now()
	defer func() {
		if r := recover(); r != nil {
			o = record.Skipped(w, fmt.Errorf("%w: %v", ErrFetcherPanic, r), now().Sub(start))
			b = record.Batch{}
		}
	}()

	b, err := f.Fetch(ctx, query, w)
	if err != nil {
		return record.Skipped(w, err, now().Sub(start)), record.Batch{}
	}
	return record.Fetched(w, b, now().Sub(start)), b
}

func finishAborted(ctx context.Context, rep *Report, j journalLogger, opts Options, cause error) (*Report, error) {
	rep.FinishedAt = opts.Now()
	rep.Aborted = true
	// The run context is already done; the journal still needs a live one.
	j.finish(context.WithoutCancel(ctx), rep)
	return rep, fmt.Errorf("collect: aborted: %w", cause)
}

// journalLogger makes the Journal optional and non-fatal.
type journalLogger struct {
	j   Journal
	log *slog.Logger
}

func (jl journalLogger) begin(ctx context.Context, rep *Report) {
	if jl.j == nil {
		return
	}
	if err := jl.j.BeginRun(ctx, rep); err != nil {
		jl.log.Warn("collect: journal begin failed", "error", err)
	}
}

func (jl journalLogger) window(ctx context.Context, runID string, o record.Outcome) {
	if jl.j == nil {
		return
	}
	if err := jl.j.RecordWindow(ctx, runID, o); err != nil {
		jl.log.Warn("collect: journal window failed", "window", o.Window, "error", err)
	}
}

func (jl journalLogger) finish(ctx context.Context, rep *Report) {
	if jl.j == nil {
		return
	}
	if err := jl.j.FinishRun(ctx, rep); err != nil {
		jl.log.Warn("collect: journal finish failed", "error", err)
	}
}
