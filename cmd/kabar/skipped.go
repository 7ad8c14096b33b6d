package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/kabar/runlog"
)

func (a *app) skippedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "skipped [run-id]",
		Short: "List the windows a run skipped, so they can be collected again.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.loadConfig("")
			if err != nil {
				return err
			}
			if cfg.RunLog.Path == "" {
				return errors.New("kabar: no run log configured (runlog.path or --runlog)")
			}
			rl, err := runlog.Open(cfg.RunLog.Path)
			if err != nil {
				return err
			}
			defer rl.Close()

			runID := ""
			if len(args) == 1 {
				runID = args[0]
			} else if runID, err = rl.LatestRun(ctx); err != nil {
				return err
			}
			if runID == "" {
				return errors.New("kabar: run log is empty")
			}
			run, err := rl.GetRun(ctx, runID)
			if err != nil {
				return err
			}
			windows, err := rl.SkippedWindows(ctx, runID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run %s (%s %q %s..%s): %d skipped windows\n",
				run.RunID, run.Fetcher, run.Query, run.Start, run.End, len(windows))
			for _, w := range windows {
				fmt.Fprintf(out, "  --start %s --end %s  # %s\n",
					w.Window.Start.Format("2006-01-02"), w.Window.End.Format("2006-01-02"), w.Error)
			}
			return nil
		},
	}
}
