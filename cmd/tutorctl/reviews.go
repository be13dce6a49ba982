package main

import (
	"github.com/spf13/cobra"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/notify"
)

func newReviewsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reviews",
		Short: "Submit and inspect session reviews",
	}
	cmd.AddCommand(newReviewsSubmitCommand(c), newReviewsListCommand(c), newReviewsRecomputeCommand(c))
	return cmd
}

func newReviewsSubmitCommand(c *cli) *cobra.Command {
	var (
		params  application.SubmitReviewParams
		comment string
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Review a completed session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			if comment != "" {
				params.Comment = &comment
			}
			receipt, err := c.app.reviews.SubmitReview(cmd.Context(), params)
			if err != nil {
				return err
			}
			if receipt.AggregateStale {
				c.app.logger.WarnContext(cmd.Context(), "mentor rating is stale until the next reconcile",
					"mentor_id", receipt.Review.MentorID)
			}
			c.app.notifier.Send(cmd.Context(), notify.ReviewReceived(c.app.ids(), c.app.now(), receipt.Review))
			return printJSON(cmd.OutOrStdout(), receipt)
		},
	}
	cmd.Flags().StringVar(&params.SessionID, "session", "", "session id")
	cmd.Flags().IntVar(&params.Rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&comment, "comment", "", "optional comment")
	_ = cmd.MarkFlagRequired("session")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func newReviewsListCommand(c *cli) *cobra.Command {
	var mentorID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a mentor's reviews with rating stats",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.principal(); err != nil {
				return err
			}
			result, err := c.app.reviews.MentorReviews(cmd.Context(), mentorID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "", "mentor id")
	_ = cmd.MarkFlagRequired("mentor")
	return cmd
}

func newReviewsRecomputeCommand(c *cli) *cobra.Command {
	var mentorID string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute a mentor's average rating from stored reviews",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			average, err := c.app.reviews.RecomputeMentorRating(cmd.Context(), p, mentorID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"mentor_id": mentorID, "average_rating": average})
		},
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "", "mentor id")
	_ = cmd.MarkFlagRequired("mentor")
	return cmd
}
