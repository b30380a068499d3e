package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLedgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect and extend tamper-evident edit histories",
	}

	cmd.AddCommand(
		newLedgerAppendCmd(),
		newLedgerVerifyCmd(),
		newLedgerHistoryCmd(),
	)
	return cmd
}

func newLedgerAppendCmd() *cobra.Command {
	var author string

	cmd := &cobra.Command{
		Use:   "append <entity-id> <content>",
		Short: "Record a new edit in an entity's chain",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				rec, err := d.Ledger.Append(cmd.Context(), args[0], args[1], author)
				if err != nil {
					return fmt.Errorf("appending edit: %w", err)
				}
				return printJSON(rec)
			})
		},
	}

	cmd.Flags().StringVar(&author, "author", "", "Author actor ID")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func newLedgerVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <entity-id>",
		Short: "Walk an entity's edit chain and report the first break, if any",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				result, err := d.Ledger.Verify(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("verifying chain: %w", err)
				}
				return printJSON(result)
			})
		},
	}
}

func newLedgerHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <entity-id>",
		Short: "Print an entity's full edit history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				records, err := d.Ledger.History(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("fetching history: %w", err)
				}
				if len(records) == 0 {
					fmt.Printf("No edit history for entity: %s\n", args[0])
					return nil
				}
				return printJSON(records)
			})
		},
	}
}
