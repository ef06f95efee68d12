package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"airlog/internal/runlog"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent run history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			runs, err := runlog.Open(cfg)
			if err != nil {
				return err
			}
			defer runs.Close()

			history, err := runs.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(history) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded yet")
				return nil
			}

			fmt.Fprintln(cmd.OutOrStdout(), colorizeTitle(cmd.OutOrStdout(), "Recent runs"))

			rows := make([][]string, 0, len(history))
			for _, run := range history {
				rows = append(rows, []string{
					run.StartedAt.Local().Format("2006-01-02 15:04"),
					run.Trigger,
					formatRunDuration(run),
					fmt.Sprint(run.Summary.Entries),
					fmt.Sprint(run.Summary.Found),
					fmt.Sprint(run.Summary.Added),
					runResult(run),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Trigger", "Duration", "Entries", "Found", "Added", "Result"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func formatRunDuration(run runlog.Run) string {
	if run.FinishedAt.IsZero() {
		return "running"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()
}

func runResult(run runlog.Run) string {
	switch {
	case run.Err != "":
		return "failed: " + run.Err
	case run.Summary.StoppedEarly:
		return "ok (stopped early)"
	case run.FinishedAt.IsZero():
		return ""
	default:
		return "ok"
	}
}
