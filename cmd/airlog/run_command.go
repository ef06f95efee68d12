package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one scrape, match, and archive cycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			orchestrator, runs, err := ctx.buildOrchestrator(cmd.Context())
			if err != nil {
				return err
			}
			defer runs.Close()

			summary, err := orchestrator.Run(cmd.Context(), "once")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Entries", "Archived", "Found", "Not Found", "Added", "Stopped Early"},
				[][]string{{
					fmt.Sprint(summary.Entries),
					fmt.Sprint(summary.Archived),
					fmt.Sprint(summary.Found),
					fmt.Sprint(summary.NotFound),
					fmt.Sprint(summary.Added),
					fmt.Sprint(summary.StoppedEarly),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
}
