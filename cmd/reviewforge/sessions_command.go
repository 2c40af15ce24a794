package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reviewforge/internal/state"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := state.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			sessions, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded yet")
				return nil
			}

			rows := make([][]string, 0, len(sessions))
			for _, session := range sessions {
				rows = append(rows, []string{
					shortID(session.ID),
					session.Kind,
					strconv.FormatInt(session.AppID, 10),
					session.Status,
					strconv.Itoa(session.Items),
					strconv.Itoa(session.Errors),
					session.StartedAt.Local().Format(time.DateTime),
					formatDuration(session),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Kind", "App", "Status", "Items", "Errors", "Started", "Duration"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum sessions to list")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatDuration(session state.Session) string {
	if session.FinishedAt.IsZero() {
		return "-"
	}
	return session.FinishedAt.Sub(session.StartedAt).Round(time.Second).String()
}
