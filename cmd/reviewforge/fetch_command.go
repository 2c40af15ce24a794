package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"reviewforge/internal/fetch"
	"reviewforge/internal/language"
	"reviewforge/internal/notifications"
	"reviewforge/internal/state"
	"reviewforge/internal/steam"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var (
		appID     int64
		maxFlag   int
		langFlag  string
		filter    string
		offTopic  int
		pageSize  int
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch raw reviews for an app into the raw corpus",
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
			if maxFlag <= 0 {
				maxFlag = cfg.Steam.MaxReviews
			}
			if langFlag == "" {
				langFlag = cfg.Steam.Language
			}
			if !language.IsKnown(langFlag) {
				return fmt.Errorf("unknown language %q", langFlag)
			}
			if filter == "" {
				filter = cfg.Steam.Filter
			}
			if offTopic < 0 {
				offTopic = cfg.Steam.OffTopicFilter
			}
			if pageSize <= 0 {
				pageSize = cfg.Steam.PageSize
			}

			client := steam.NewClient(time.Duration(cfg.Steam.RequestTimeout) * time.Second)
			svc := fetch.NewService(cfg, client, logger, fetch.WithProgress(showProgress()))
			notifier := notifications.NewService(cfg)

			store, err := state.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			session, err := store.Begin(cmd.Context(), state.KindFetch, appID)
			if err != nil {
				return err
			}

			result, err := svc.FetchAll(cmd.Context(), fetch.Options{
				AppID:          appID,
				MaxReviews:     maxFlag,
				Language:       language.ToAPI(langFlag),
				Filter:         filter,
				OffTopicFilter: offTopic,
				PageSize:       pageSize,
				Overwrite:      overwrite,
			})
			if err != nil {
				_ = store.Finish(cmd.Context(), session.ID, state.StatusFailed, 0, 0, err.Error())
				_ = notifier.NotifyError(cmd.Context(), err, "fetch")
				return err
			}

			detail := fmt.Sprintf("stop_reason=%s pages=%d", result.StopReason, result.Pages)
			if err := store.Finish(cmd.Context(), session.ID, state.StatusCompleted, result.Total, 0, detail); err != nil {
				return err
			}
			_ = notifier.NotifyFetchCompleted(cmd.Context(), appID, result.Total, result.StopReason)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Fetched %d reviews across %d pages (%s)\n", result.Total, result.Pages, result.StopReason)
			fmt.Fprintf(out, "Corpus:  %s\n", result.CorpusPath)
			fmt.Fprintf(out, "Summary: %s\n", result.SummaryPath)
			return nil
		},
	}

	cmd.Flags().Int64Var(&appID, "app-id", 0, "Steam app id (defaults to steam.app_id)")
	cmd.Flags().IntVar(&maxFlag, "max", 0, "Maximum reviews to fetch (defaults to steam.max_reviews)")
	cmd.Flags().StringVar(&langFlag, "lang", "", "Review language (defaults to steam.language)")
	cmd.Flags().StringVar(&filter, "filter", "", "Sort filter: recent or updated (defaults to steam.filter)")
	cmd.Flags().IntVar(&offTopic, "off-topic", -1, "Off-topic activity filter 0|1 (defaults to steam.off_topic_filter)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Reviews per page, max 100 (defaults to steam.page_size)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing raw corpus for this app")
	return cmd
}
