// CLAUDE:SUMMARY SQLite journal of collection runs and per-window outcomes; lists skipped windows for manual re-runs.
// Package runlog persists every collection run and the outcome of each of
// its windows in SQLite. It implements collect.Journal. Skipped windows
// stay queryable after the run, so an operator can re-run just those.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hazyhaar/kabar/collect"
	"github.com/hazyhaar/kabar/record"
	"github.com/hazyhaar/kabar/window"
)

// Schema is the run log DDL. Idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	fetcher        TEXT NOT NULL,
	query          TEXT NOT NULL,
	start_date     TEXT NOT NULL,
	end_date       TEXT NOT NULL,
	output         TEXT NOT NULL DEFAULT '',
	started_at     INTEGER NOT NULL,
	finished_at    INTEGER,
	collected      INTEGER NOT NULL DEFAULT 0,
	unique_records INTEGER NOT NULL DEFAULT 0,
	record_skips   INTEGER NOT NULL DEFAULT 0,
	written        INTEGER NOT NULL DEFAULT 0,
	aborted        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS window_outcomes (
	run_id       TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	window_start TEXT NOT NULL,
	window_end   TEXT NOT NULL,
	status       TEXT NOT NULL,
	records      INTEGER NOT NULL DEFAULT 0,
	record_skips INTEGER NOT NULL DEFAULT 0,
	pages        INTEGER NOT NULL DEFAULT 0,
	error        TEXT NOT NULL DEFAULT '',
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	recorded_at  INTEGER NOT NULL,
	PRIMARY KEY (run_id, window_start)
);

CREATE INDEX IF NOT EXISTS idx_window_outcomes_status ON window_outcomes(run_id, status);
`

// Log is the run journal.
type Log struct {
	DB *sql.DB
	// Now stamps recorded_at. Default: time.Now.
	Now func() time.Time
}

var _ collect.Journal = (*Log)(nil)

// Close closes the database.
func (l *Log) Close() error { return l.DB.Close() }

func (l *Log) now() int64 {
	if l.Now != nil {
		return l.Now().UnixMilli()
	}
	return time.Now().UnixMilli()
}

// BeginRun inserts the run row.
func (l *Log) BeginRun(ctx context.Context, rep *collect.Report) error {
	err := exec(ctx, l.DB,
		`INSERT INTO runs (run_id, fetcher, query, start_date, end_date, output, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rep.RunID, rep.Fetcher, rep.Query,
		rep.Start.Format(time.DateOnly), rep.End.Format(time.DateOnly),
		rep.Output, rep.StartedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("runlog: begin run %s: %w", rep.RunID, err)
	}
	return nil
}

// RecordWindow stores one window outcome. Recording the same window twice
// keeps the latest outcome.
func (l *Log) RecordWindow(ctx context.Context, runID string, o record.Outcome) error {
	err := exec(ctx, l.DB,
		`INSERT INTO window_outcomes (run_id, window_start, window_end, status,
		records, record_skips, pages, error, duration_ms, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, window_start) DO UPDATE SET
			window_end = excluded.window_end, status = excluded.status,
			records = excluded.records, record_skips = excluded.record_skips,
			pages = excluded.pages, error = excluded.error,
			duration_ms = excluded.duration_ms, recorded_at = excluded.recorded_at`,
		runID, o.Window.Start.Format(time.DateOnly), o.Window.End.Format(time.DateOnly),
		string(o.Status), o.Records, o.RecordSkips, o.Pages, o.Reason(),
		o.Duration.Milliseconds(), l.now(),
	)
	if err != nil {
		return fmt.Errorf("runlog: record window %s: %w", o.Window, err)
	}
	return nil
}

// FinishRun stores the run totals.
func (l *Log) FinishRun(ctx context.Context, rep *collect.Report) error {
	err := exec(ctx, l.DB,
		`UPDATE runs SET finished_at = ?, collected = ?, unique_records = ?,
		record_skips = ?, written = ?, aborted = ? WHERE run_id = ?`,
		rep.FinishedAt.UnixMilli(), rep.Collected, rep.Unique, rep.RecordSkips,
		boolInt(rep.Written), boolInt(rep.Aborted), rep.RunID,
	)
	if err != nil {
		return fmt.Errorf("runlog: finish run %s: %w", rep.RunID, err)
	}
	return nil
}

// Run is a stored run row.
type Run struct {
	RunID      string
	Fetcher    string
	Query      string
	Start      string
	End        string
	Output     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Collected  int
	Unique     int
	Written    bool
	Aborted    bool
}

// GetRun returns one run, or sql.ErrNoRows wrapped.
func (l *Log) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		r        Run
		started  int64
		finished sql.NullInt64
		written  int
		aborted  int
	)
	err := l.DB.QueryRowContext(ctx,
		`SELECT run_id, fetcher, query, start_date, end_date, output, started_at,
		finished_at, collected, unique_records, written, aborted
		FROM runs WHERE run_id = ?`, runID,
	).Scan(&r.RunID, &r.Fetcher, &r.Query, &r.Start, &r.End, &r.Output, &started,
		&finished, &r.Collected, &r.Unique, &written, &aborted)
	if err != nil {
		return nil, fmt.Errorf("runlog: get run %s: %w", runID, err)
	}
	r.StartedAt = time.UnixMilli(started).UTC()
	if finished.Valid {
		t := time.UnixMilli(finished.Int64).UTC()
		r.FinishedAt = &t
	}
	r.Written, r.Aborted = written != 0, aborted != 0
	return &r, nil
}

// SkippedWindow is a window that failed during a run.
type SkippedWindow struct {
	Window window.Window
	Error  string
}

// SkippedWindows lists the failed windows of runID, oldest first.
func (l *Log) SkippedWindows(ctx context.Context, runID string) ([]SkippedWindow, error) {
	rows, err := l.DB.QueryContext(ctx,
		`SELECT window_start, window_end, error FROM window_outcomes
		WHERE run_id = ? AND status = ? ORDER BY window_start`,
		runID, string(record.StatusSkipped))
	if err != nil {
		return nil, fmt.Errorf("runlog: skipped windows: %w", err)
	}
	defer rows.Close()

	var out []SkippedWindow
	for rows.Next() {
		var start, end string
		var sw SkippedWindow
		if err := rows.Scan(&start, &end, &sw.Error); err != nil {
			return nil, fmt.Errorf("runlog: scan window: %w", err)
		}
		if sw.Window.Start, err = time.Parse(time.DateOnly, start); err != nil {
			return nil, fmt.Errorf("runlog: window start %q: %w", start, err)
		}
		if sw.Window.End, err = time.Parse(time.DateOnly, end); err != nil {
			return nil, fmt.Errorf("runlog: window end %q: %w", end, err)
		}
		out = append(out, sw)
	}
	return out, rows.Err()
}

// LatestRun returns the ID of the most recent run, or "" when none.
func (l *Log) LatestRun(ctx context.Context) (string, error) {
	var id string
	err := l.DB.QueryRowContext(ctx,
		`SELECT run_id FROM runs ORDER BY started_at DESC, run_id DESC LIMIT 1`).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("runlog: latest run: %w", err)
	}
	return id, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
