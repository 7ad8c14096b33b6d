// CLAUDE:SUMMARY CLI entry point for kabar: posts (remote actor) and news (browser) collection commands, skipped-window listing.
// Command kabar collects keyword results month by month and writes one
// deduplicated CSV per run.
//
// Usage:
//
//	kabar posts -c kabar.yaml                      # posts via the remote actor
//	kabar news  --query "RUU Penyiaran" --start 2024-05-01 --end 2025-05-30
//	kabar skipped -c kabar.yaml                    # failed windows of the last run
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/kabar/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	if err := a.rootCmd().ExecuteContext(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("kabar: fatal", "error", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// app holds the global flags and the logger shared by every command.
type app struct {
	configPath string
	logLevel   string
	query      string
	start      config.Date
	end        config.Date
	output     string
	runlogPath string
	noPreview  bool

	logger *slog.Logger
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kabar",
		Short:         "kabar collects keyword results month by month into a CSV file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.logger = newLogger(a.logLevel)
			slog.SetDefault(a.logger)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to kabar.yaml config file")
	pf.StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVarP(&a.query, "query", "q", "", "keyword query (overrides config)")
	pf.Var(&a.start, "start", "first day of the range, YYYY-MM-DD (overrides config)")
	pf.Var(&a.end, "end", "exclusive end of the range, YYYY-MM-DD (overrides config)")
	pf.StringVarP(&a.output, "output", "o", "", "output CSV path (overrides config)")
	pf.StringVar(&a.runlogPath, "runlog", "", "SQLite run log path (overrides config)")
	pf.BoolVar(&a.noPreview, "no-preview", false, "do not print the preview table")

	root.AddCommand(a.postsCmd(), a.newsCmd(), a.skippedCmd())
	return root
}

func newLogger(name string) *slog.Logger {
	var level slog.Level
	switch name {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
