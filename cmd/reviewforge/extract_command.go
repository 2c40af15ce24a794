package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reviewforge/internal/extract"
	"reviewforge/internal/notifications"
	"reviewforge/internal/sentiment"
	"reviewforge/internal/state"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		concurrency int
		model       string
		limit       int
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Run structured extraction over the scored reviews",
		Long: "Dispatches every review text from sentiment_results.csv to the local " +
			"model worker and appends one JSON record per review to review_summaries.jsonl.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			if concurrency <= 0 {
				concurrency = cfg.Worker.Concurrency
			}
			if model == "" {
				model = cfg.Worker.Model
			}

			texts, err := sentiment.ReadReviewTexts(cfg.SentimentCSVPath())
			if err != nil {
				return fmt.Errorf("load review texts (run `reviewforge sentiment` first): %w", err)
			}
			if limit > 0 && limit < len(texts) {
				texts = texts[:limit]
			}

			gen, err := extract.NewCommandGenerator(cfg.Worker.Binary, model, cfg.Worker.TimeoutSeconds)
			if err != nil {
				return err
			}
			sink, err := extract.OpenSink(cfg.StructuredCorpusPath())
			if err != nil {
				return err
			}
			defer sink.Close()

			svc := extract.NewService(gen, logger, concurrency, extract.WithProgress(showProgress()))
			notifier := notifications.NewService(cfg)

			store, err := state.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := store.Begin(cmd.Context(), state.KindExtract, cfg.Steam.AppID)
			if err != nil {
				return err
			}

			started := time.Now()
			result, err := svc.SummarizeAll(cmd.Context(), texts, sink)
			if err != nil {
				_ = store.Finish(cmd.Context(), session.ID, state.StatusFailed, result.Written, result.Errors, err.Error())
				_ = notifier.NotifyError(cmd.Context(), err, "extract")
				return err
			}

			detail := fmt.Sprintf("model=%s concurrency=%d skipped=%d", model, concurrency, result.Skipped)
			if err := store.Finish(cmd.Context(), session.ID, state.StatusCompleted, result.Written, result.Errors, detail); err != nil {
				return err
			}
			_ = notifier.NotifyExtractionCompleted(cmd.Context(), result.Written, result.Errors, time.Since(started))

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d records (%d error records, %d empty skipped)\n",
				result.Written, result.Errors, result.Skipped)
			fmt.Fprintf(out, "Corpus: %s\n", cfg.StructuredCorpusPath())
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Concurrent worker invocations (defaults to worker.concurrency)")
	cmd.Flags().StringVar(&model, "model", "", "Worker model name (defaults to worker.model)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process only the first N reviews (0 = all)")
	return cmd
}
