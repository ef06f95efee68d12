package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newSnapshotCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot [date]",
		Short: "Rebuild the dated playlist for one day from its daily record",
		Long: "Rebuilds the Spotify snapshot playlist for the given day (YYYY-MM-DD) " +
			"from the day's record file. Defaults to yesterday. Only missing tracks are added.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().AddDate(0, 0, -1)
			if len(args) == 1 {
				parsed, err := time.ParseInLocation("2006-01-02", args[0], time.Local)
				if err != nil {
					return fmt.Errorf("parse date %q: %w", args[0], err)
				}
				day = parsed
			}

			orchestrator, runs, err := ctx.buildOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer runs.Close()

			if err := orchestrator.Snapshot(cmd.Context(), day); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "snapshot rebuilt for %s\n", day.Format("January 2, 2006"))
			return nil
		},
	}
}

func newBackfillCommand(ctx *commandContext) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Rebuild snapshot playlists for a range of past days",
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, runs, err := ctx.buildOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer runs.Close()

			if err := orchestrator.Backfill(cmd.Context(), days); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "backfilled %d day(s)\n", days)
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days ending yesterday to rebuild")
	return cmd
}
