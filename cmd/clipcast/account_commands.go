package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clipcast/internal/config"
	"clipcast/internal/store"
)

func newAccountCommand(ctx *commandContext) *cobra.Command {
	accountCmd := &cobra.Command{
		Use:   "account",
		Short: "Manage publishing accounts",
	}

	withStore := func(fn func(cmd *cobra.Command, st *store.Store, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()
			return fn(cmd, st, args)
		}
	}

	accountCmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Register an account and activate its posting loop",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
			account, err := st.UpsertAccount(cmd.Context(), args[0], true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s active\n", account.Name)
			return nil
		}),
	})

	accountCmd.AddCommand(&cobra.Command{
		Use:   "disable <name>",
		Short: "Deactivate an account's posting loop",
		Args:  cobra.ExactArgs(1),
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
			account, err := st.UpsertAccount(cmd.Context(), args[0], false)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Account %s disabled\n", account.Name)
			return nil
		}),
	})

	accountCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered accounts",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, st *store.Store, args []string) error {
			accounts, err := st.ListAccounts(cmd.Context(), false)
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if len(accounts) == 0 {
				fmt.Fprintln(stdout, "No accounts registered")
				return nil
			}
			rows := make([][]string, 0, len(accounts))
			for _, account := range accounts {
				state := "disabled"
				if account.Active {
					state = "active"
				}
				rows = append(rows, []string{account.Name, state})
			}
			fmt.Fprintln(stdout, renderTable(
				[]string{"Account", "State"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		}),
	})

	return accountCmd
}

func openStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}
