package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

type reviewFlags struct {
	reviewer     string
	counterparty string
	rating       int
	feedback     string
}

func newReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Submit and manage blind mutual reviews",
	}

	cmd.AddCommand(
		newReviewSubmitCmd(),
		newReviewReciprocalCmd(),
		newReviewPendingCmd(),
		newReviewSweepCmd(),
	)
	return cmd
}

func newReviewSubmitCmd() *cobra.Command {
	var flags reviewFlags

	cmd := &cobra.Command{
		Use:   "submit <subject-id>",
		Short: "Submit a sealed review; it stays hidden until the counterparty responds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				review, err := d.Review.Submit(cmd.Context(), args[0], flags.reviewer, flags.counterparty, flags.rating, flags.feedback)
				if err != nil {
					return fmt.Errorf("submitting review: %w", err)
				}
				return printJSON(review)
			})
		},
	}

	cmd.Flags().StringVar(&flags.reviewer, "reviewer", "", "Reviewer actor ID")
	cmd.Flags().StringVar(&flags.counterparty, "counterparty", "", "Actor who owes the reciprocal review")
	cmd.Flags().IntVar(&flags.rating, "rating", 0, "Rating (1-5)")
	cmd.Flags().StringVar(&flags.feedback, "feedback", "", "Review feedback")
	_ = cmd.MarkFlagRequired("reviewer")
	_ = cmd.MarkFlagRequired("counterparty")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newReviewReciprocalCmd() *cobra.Command {
	var flags reviewFlags

	cmd := &cobra.Command{
		Use:   "reciprocal <original-review-id>",
		Short: "Submit the paired review; both sides publish together",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				pair, err := d.Review.SubmitReciprocal(cmd.Context(), args[0], flags.reviewer, flags.rating, flags.feedback)
				if err != nil {
					return fmt.Errorf("submitting reciprocal: %w", err)
				}
				return printJSON(pair)
			})
		},
	}

	cmd.Flags().StringVar(&flags.reviewer, "reviewer", "", "Reviewer actor ID")
	cmd.Flags().IntVar(&flags.rating, "rating", 0, "Rating (1-5)")
	cmd.Flags().StringVar(&flags.feedback, "feedback", "", "Review feedback")
	_ = cmd.MarkFlagRequired("reviewer")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newReviewPendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <actor-id>",
		Short: "List reviews awaiting this actor's reciprocal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				reviews, err := d.Review.PendingForActor(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("listing pending reviews: %w", err)
				}
				if len(reviews) == 0 {
					fmt.Printf("No pending reviews for actor: %s\n", args[0])
					return nil
				}
				return printJSON(reviews)
			})
		},
	}
}

func newReviewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Expire pending reviews whose deadline has passed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDeps(cmd.Context(), func(d *Deps) error {
				count, err := d.Review.ExpireOverdue(cmd.Context())
				if err != nil {
					return fmt.Errorf("sweeping reviews: %w", err)
				}
				fmt.Printf("Expired %d overdue review(s)\n", count)
				return nil
			})
		},
	}
}
