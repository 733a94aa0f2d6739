package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipcast/internal/ipc"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and feed the publishing queue",
	}
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueAddCommand(ctx))
	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string

	cmd := &cobra.Command{
		Use:   "list <account>",
		Short: "List an account's queued items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueList(args[0], statuses)
				if err != nil {
					return err
				}
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					detail := item.ScheduledAt
					switch {
					case item.WaitlistReason != "":
						detail = item.WaitlistReason
					case item.ErrorMessage != "":
						detail = item.ErrorMessage
					case item.PostedAt != "":
						detail = item.PostedAt
					}
					rows = append(rows, []string{
						fmt.Sprintf("%d", item.ID),
						item.ItemKey,
						item.Title,
						item.Status,
						detail,
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Key", "Title", "Status", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "Filter by status (pending, scheduled, waitlisted, posted, failed)")
	return cmd
}

func newQueueAddCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "add <account> <file>",
		Short: "Register a local video file for an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.QueueAdd(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Queued %s as item %d (%s)\n",
					resp.Item.ItemKey, resp.Item.ID, resp.Item.Status)
				return nil
			})
		},
	}
}
