package main

import (
	"github.com/spf13/cobra"

	"github.com/hazyhaar/kabar/internal/browser"
	"github.com/hazyhaar/kabar/serp"
)

func (a *app) newsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "news",
		Short: "Collect news results through a headless browser, paginating each month.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.loadConfig("news")
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			bc := cfg.Browser
			bc.Logger = a.logger
			sess, err := browser.Launch(ctx, bc)
			if err != nil {
				return err
			}
			defer sess.Close()

			tab, err := sess.OpenTab(ctx)
			if err != nil {
				return err
			}
			nc := cfg.News
			f, err := serp.NewFetcher(tab, serp.Config{
				BaseURL:   nc.BaseURL,
				Params:    nc.Params,
				LoadDelay: nc.LoadDelay,
				PageDelay: nc.PageDelay,
				MaxPages:  nc.MaxPages,
				Selectors: nc.Selectors,
			}, serp.WithLogger(a.logger))
			if err != nil {
				return err
			}
			return a.collect(ctx, cmd.OutOrStdout(), cfg, f)
		},
	}
}
