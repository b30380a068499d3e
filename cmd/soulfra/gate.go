package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newGateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gate",
		Short: "Check reply permission and link external identities",
	}

	cmd.AddCommand(
		newGateCheckCmd(),
		newGateLinkCmd(),
	)
	return cmd
}

func newGateCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <actor-id> <subject-id>",
		Short: "Answer whether the actor may reply to the subject now",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				decision, err := d.Gate.Check(cmd.Context(), args[0], args[1])
				if err != nil {
					return fmt.Errorf("checking gate: %w", err)
				}
				return printJSON(decision)
			})
		},
	}
}

func newGateLinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link <actor-id> <platform-handle>",
		Short: "Link an actor to their verified endorsement-platform handle",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				if err := d.Gate.LinkIdentity(cmd.Context(), args[0], args[1]); err != nil {
					return fmt.Errorf("linking identity: %w", err)
				}
				fmt.Printf("Linked %s to %s\n", args[0], args[1])
				return nil
			})
		},
	}
}
