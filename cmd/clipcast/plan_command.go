package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"clipcast/internal/logging"
	"clipcast/internal/planner"
	"clipcast/internal/store"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <account>",
		Short: "Run a one-shot planning pass for an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			account := args[0]

			// Prefer the daemon so its planner and ours never interleave;
			// fall back to a local pass when it is not running.
			if client, err := ctx.dialClient(); err == nil {
				defer client.Close()
				resp, err := client.Plan(account)
				if err != nil {
					return err
				}
				printPlanSummary(stdout, resp.Account, resp.Scheduled, resp.Waitlisted, resp.Kept, resp.Skipped)
				return nil
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			p := planner.New(cfg, st, logging.NewNop())
			result, err := p.PlanAccount(cmd.Context(), account)
			if err != nil {
				return err
			}
			if _, err := p.ReallocateMissedSlots(cmd.Context(), account); err != nil {
				return err
			}
			printPlanSummary(stdout, result.Account, result.Scheduled, result.Waitlisted, result.Kept, result.Skipped)
			return nil
		},
	}
}

func printPlanSummary(out io.Writer, account string, scheduled, waitlisted, kept, skipped int) {
	fmt.Fprintf(out, "Planned %s: %d scheduled, %d waitlisted, %d kept", account, scheduled, waitlisted, kept)
	if skipped > 0 {
		fmt.Fprintf(out, ", %d skipped (malformed)", skipped)
	}
	fmt.Fprintln(out)
}
