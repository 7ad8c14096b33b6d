package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/hazyhaar/kabar/collect"
	"github.com/hazyhaar/kabar/config"
	"github.com/hazyhaar/kabar/datestr"
	"github.com/hazyhaar/kabar/export"
	"github.com/hazyhaar/kabar/runlog"
)

// previewWidth bounds each preview cell, in terminal columns.
const previewWidth = 40

// loadConfig reads the config file and applies the command-line overrides.
// kind names the output when neither flag nor file sets one.
func (a *app) loadConfig(kind string) (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.query != "" {
		cfg.Query = a.query
	}
	if !a.start.IsZero() {
		cfg.Start = a.start
	}
	if !a.end.IsZero() {
		cfg.End = a.end
	}
	if a.output != "" {
		cfg.Output = a.output
	}
	if cfg.Output == "" {
		cfg.Output = config.DefaultOutput(cfg.Query, kind)
	}
	if a.runlogPath != "" {
		cfg.RunLog.Path = a.runlogPath
	}
	return cfg, nil
}

// collect runs the shared pipeline with f and prints the outcome to out.
func (a *app) collect(ctx context.Context, out io.Writer, cfg *config.Config, f collect.Fetcher) error {
	start, end, err := cfg.Range()
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	opts := collect.Options{
		Query:  cfg.Query,
		Start:  start,
		End:    end,
		Output: cfg.Output,
		Pace:   cfg.Pace,
		Dates:  datestr.New(datestr.WithLocation(loc)),
		Logger: a.logger,
	}
	if cfg.RunLog.Path != "" {
		rl, err := runlog.Open(cfg.RunLog.Path, runlog.WithMkdirAll())
		if err != nil {
			a.logger.Warn("kabar: run log unavailable, continuing without", "path", cfg.RunLog.Path, "error", err)
		} else {
			defer rl.Close()
			opts.Journal = rl
		}
	}

	rep, err := collect.Run(ctx, f, opts)
	if rep != nil {
		a.printReport(out, rep)
	}
	return err
}

func (a *app) printReport(out io.Writer, rep *collect.Report) {
	if !a.noPreview && len(rep.Records) > 0 {
		export.Preview(out, rep.Records, previewWidth)
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "run %s: %d windows (%d skipped), %d records, %d unique, %d dropped\n",
		rep.RunID, len(rep.Windows), rep.SkippedWindows(), rep.Collected, rep.Unique, rep.RecordSkips)
	for _, o := range rep.Windows {
		if o.Err != nil {
			fmt.Fprintf(out, "  skipped %s: %s\n", o.Window, o.Reason())
		}
	}
	switch {
	case rep.Aborted:
		fmt.Fprintln(out, "interrupted, nothing written")
	case rep.Written:
		fmt.Fprintf(out, "wrote %s in %s\n", rep.Output, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second))
	default:
		fmt.Fprintln(out, "no records collected, nothing written")
	}
}
