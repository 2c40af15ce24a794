package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reviewforge/internal/insights"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	var gameName string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render the developer report from the aggregated insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stats, err := insights.ReadSentimentStats(cfg.SentimentCSVPath())
			if err != nil {
				return fmt.Errorf("load sentiment baseline (run `reviewforge sentiment` first): %w", err)
			}
			aggs, err := insights.ReadAggregates(cfg.InsightsAggregatePath())
			if err != nil {
				return fmt.Errorf("load aggregates (run `reviewforge insights` first): %w", err)
			}

			if gameName == "" {
				gameName = fmt.Sprintf("app %d", cfg.Steam.AppID)
			}
			report := insights.RenderReport(gameName, stats, aggs)
			if err := os.WriteFile(cfg.ReportPath(), []byte(report), 0o644); err != nil {
				return fmt.Errorf("write report: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, report)
			fmt.Fprintf(out, "\nWrote %s\n", cfg.ReportPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&gameName, "name", "", "Game name for the report title (defaults to the app id)")
	return cmd
}
