package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipcast/internal/daemonctl"
	"clipcast/internal/ipc"
)

func daemonExecutable() (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	candidate := strings.Replace(self, "clipcast", "clipcastd", 1)
	if candidate != self {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "clipcastd", nil
}

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the clipcast daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonctl.LaunchOptions{
					SocketPath: ctx.socketPath(),
					ConfigPath: ctx.configPath(),
				},
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}
			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the clipcast daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			err := ctx.withClient(func(client *ipc.Client) error {
				_, err := client.Stop()
				return err
			})
			if err != nil {
				return err
			}
			if err := daemonctl.WaitForShutdown(ctx.socketPath(), 10*time.Second); err != nil {
				fmt.Fprintln(stdout, "Stop request sent")
				return nil
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				status, err := client.Status()
				if err != nil {
					return err
				}

				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				running := statusError
				detail := "not running"
				if status.Running {
					running = statusOK
					detail = fmt.Sprintf("pid %d", status.PID)
				}
				fmt.Fprintln(stdout, renderStatusLine("State", running, detail, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Session", statusInfo, status.SessionID, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, status.DatabasePath, colorize))
				fmt.Fprintln(stdout, renderStatusLine("Lock dir", statusInfo, status.LockDir, colorize))
				if len(status.Accounts) > 0 {
					fmt.Fprintln(stdout, renderStatusLine("Workers", statusOK, strings.Join(status.Accounts, ", "), colorize))
				} else {
					fmt.Fprintln(stdout, renderStatusLine("Workers", statusWarn, "none", colorize))
				}
				fmt.Fprintln(stdout)

				for _, line := range renderSectionHeader("Queue", colorize) {
					fmt.Fprintln(stdout, line)
				}
				if len(status.QueueStats) == 0 {
					fmt.Fprintln(stdout, "Queue is empty")
					return nil
				}
				statuses := make([]string, 0, len(status.QueueStats))
				for name := range status.QueueStats {
					statuses = append(statuses, name)
				}
				sort.Strings(statuses)
				rows := make([][]string, 0, len(statuses))
				for _, name := range statuses {
					rows = append(rows, []string{name, strconv.Itoa(status.QueueStats[name])})
				}
				fmt.Fprintln(stdout, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	reloadCmd := &cobra.Command{
		Use:   "reload",
		Short: "Reload daemon configuration and reconcile workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Reload()
				if err != nil {
					return err
				}
				if !resp.Reloaded {
					return fmt.Errorf("reload failed: %s", resp.Message)
				}
				fmt.Fprintln(stdout, resp.Message)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd, reloadCmd}
}
