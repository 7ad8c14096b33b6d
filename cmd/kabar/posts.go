package main

import (
	"github.com/spf13/cobra"

	"github.com/hazyhaar/kabar/actor"
	"github.com/hazyhaar/kabar/config"
)

func (a *app) postsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "posts",
		Short: "Collect social-media posts through the remote scraping actor, one run per month.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig("tweets")
			if err != nil {
				return err
			}
			if err := cfg.ValidateActor(); err != nil {
				return err
			}
			return a.collect(cmd.Context(), cmd.OutOrStdout(), cfg, newActorFetcher(cfg, a))
		},
	}
}

func newActorFetcher(cfg *config.Config, a *app) *actor.Fetcher {
	ac := cfg.Actor
	client := actor.NewClient(actor.ClientConfig{
		BaseURL:      ac.BaseURL,
		Token:        ac.Token,
		WaitSeconds:  ac.WaitSeconds,
		PollInterval: ac.PollInterval,
		MaxWait:      ac.MaxWait,
		PageSize:     ac.PageSize,
		Timeout:      ac.Timeout,
		Logger:       a.logger,
	})
	return actor.NewFetcher(client, actor.FetcherConfig{
		ActorID:    ac.ActorID,
		MaxItems:   ac.MaxItems,
		Lang:       ac.Lang,
		QueryType:  ac.QueryType,
		Extra:      ac.Extra,
		Fields:     ac.Fields,
		TitleWidth: ac.TitleWidth,
	})
}
