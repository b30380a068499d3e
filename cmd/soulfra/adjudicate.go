package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	openaijudge "github.com/Soulfra/soulfra-sub007/internal/infrastructure/judge/openai"
)

func newAdjudicateCmd() *cobra.Command {
	var contextPairs []string

	cmd := &cobra.Command{
		Use:   "adjudicate <entity-id>",
		Short: "Adjudicate an entity's edit chain with the configured judging personas",
		Long: `Verifies the entity's edit chain, consults every configured persona
independently, and records a consensus verdict. Intended for moderation
workflows, not end-user actions.

Examples:
  soulfra adjudicate comment-42
  soulfra adjudicate comment-42 --context complaint="claims the message was reworded after the fact"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			judgeCtx := make(map[string]string, len(contextPairs))
			for _, pair := range contextPairs {
				key, value, found := strings.Cut(pair, "=")
				if !found {
					return fmt.Errorf("invalid context pair %q (want key=value)", pair)
				}
				judgeCtx[key] = value
			}

			return withDeps(cmd.Context(), func(d *Deps) error {
				judges, err := openaijudge.NewJudges(d.Config.Judges)
				if err != nil {
					return fmt.Errorf("building judges: %w", err)
				}

				verdict, err := d.Consensus.Adjudicate(cmd.Context(), args[0], judges, judgeCtx)
				if err != nil {
					return fmt.Errorf("adjudicating: %w", err)
				}
				return printJSON(verdict)
			})
		},
	}

	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Dispute context as key=value (repeatable)")
	return cmd
}
