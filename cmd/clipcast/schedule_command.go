package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipcast/internal/logging"
	"clipcast/internal/planner"
	"clipcast/internal/store"
)

func newScheduleCommand(ctx *commandContext) *cobra.Command {
	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Inspect planned publishing slots",
	}
	scheduleCmd.AddCommand(newScheduleShowCommand(ctx))
	return scheduleCmd
}

func newScheduleShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <account>",
		Short: "Show the slot grid for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			preview, err := planner.New(cfg, st, logging.NewNop()).PreviewSchedule(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if len(preview.Slots) == 0 {
				fmt.Fprintf(stdout, "No upcoming slots for %s\n", preview.Account)
				return nil
			}

			rows := make([][]string, 0, len(preview.Slots))
			for _, slot := range preview.Slots {
				key := slot.ItemKey
				title := slot.Title
				if key == "" {
					key = "-"
					title = "(free)"
				}
				rows = append(rows, []string{
					slot.Time.Format("Mon 2006-01-02 15:04"),
					key,
					title,
				})
			}
			fmt.Fprintf(stdout, "Slots for %s (%s)\n", preview.Account, preview.Timezone)
			fmt.Fprintln(stdout, renderTable(
				[]string{"Slot", "Key", "Title"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}
