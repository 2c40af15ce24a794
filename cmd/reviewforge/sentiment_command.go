package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"reviewforge/internal/sentiment"
)

func newSentimentCommand(ctx *commandContext) *cobra.Command {
	var appID int64

	cmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Score the raw corpus and write sentiment_results.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if appID == 0 {
				appID = cfg.Steam.AppID
			}
			if appID <= 0 {
				return errors.New("app id required: pass --app-id or set steam.app_id in config")
			}

			svc, err := sentiment.NewService(logger)
			if err != nil {
				return err
			}
			result, err := svc.Analyze(cfg.RawCorpusPath(appID), cfg.SentimentCSVPath(), cfg.SentimentSummaryPath())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analyzed %d reviews (%d empty skipped)\n", result.Analyzed, result.Skipped)
			fmt.Fprintf(out, "Results: %s\n", result.CSVPath)
			fmt.Fprintf(out, "Summary: %s\n", result.SummaryPath)
			return nil
		},
	}

	cmd.Flags().Int64Var(&appID, "app-id", 0, "Steam app id (defaults to steam.app_id)")
	return cmd
}
