package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reviewforge/internal/insights"
)

func newInsightsCommand(ctx *commandContext) *cobra.Command {
	var minConfidence float64

	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Bucket confident tasks into dev-focus categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if minConfidence < 0 {
				minConfidence = cfg.Extract.MinConfidence
			}

			svc := insights.NewService(minConfidence, logger)
			result, err := svc.Aggregate(cfg.StructuredCorpusPath())
			if err != nil {
				return err
			}
			if err := svc.WriteCSVs(result, cfg.InsightsAggregatePath(), cfg.TaskExamplesPath()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(result.Categories) == 0 {
				fmt.Fprintf(out, "No confident tasks found at threshold %.2f\n", minConfidence)
				return nil
			}

			top := result.Categories[0]
			fmt.Fprintln(out, "=== Recommended Dev Focus (data-driven) ===")
			fmt.Fprintf(out, "- Top category: %s  | items: %d  | avg confidence: %.2f\n",
				top.Category, top.Count, top.AvgConfidence)
			fmt.Fprintf(out, "- Example tasks: %s\n", top.Examples)

			rows := make([][]string, 0, len(result.Categories))
			for _, agg := range result.Categories {
				rows = append(rows, []string{
					agg.Category,
					strconv.Itoa(agg.Count),
					fmt.Sprintf("%.2f", agg.AvgConfidence),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Category", "Count", "Avg Conf"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Wrote %s and %s\n", cfg.InsightsAggregatePath(), cfg.TaskExamplesPath())
			return nil
		},
	}

	cmd.Flags().Float64Var(&minConfidence, "min-conf", -1, "Only count tasks at/above this confidence (defaults to extract.min_confidence)")
	return cmd
}
