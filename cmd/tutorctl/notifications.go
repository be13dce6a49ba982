package main

import (
	"github.com/spf13/cobra"

	"github.com/example/tutor-marketplace/internal/notify"
)

func newNotificationsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "Read the caller's notification inbox",
	}
	cmd.AddCommand(newNotificationsListCommand(c), newNotificationsReadCommand(c), newNotificationsSettingsCommand(c))
	return cmd
}

func (c *cli) inbox() (*notify.RedisStore, notify.Recipient, error) {
	p, err := c.principal()
	if err != nil {
		return nil, notify.Recipient{}, err
	}
	if c.app.inbox == nil {
		return nil, notify.Recipient{}, errInboxDisabled
	}
	return c.app.inbox, notify.Recipient{UserID: p.UserID, Role: p.Role}, nil
}

func newNotificationsListCommand(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inbox, me, err := c.inbox()
			if err != nil {
				return err
			}
			notes, err := inbox.List(cmd.Context(), me, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), notes)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries")
	return cmd
}

func newNotificationsReadCommand(c *cli) *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Mark notifications as read (all of them without --id)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inbox, me, err := c.inbox()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return inbox.MarkAllRead(cmd.Context(), me)
			}
			return inbox.MarkRead(cmd.Context(), me, ids...)
		},
	}
	cmd.Flags().StringSliceVar(&ids, "id", nil, "notification id (repeatable)")
	return cmd
}

func newNotificationsSettingsCommand(c *cli) *cobra.Command {
	var sessions, reviews bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change which notifications the caller receives",
		RunE: func(cmd *cobra.Command, _ []string) error {
			inbox, me, err := c.inbox()
			if err != nil {
				return err
			}
			prefs, err := inbox.Preferences(cmd.Context(), me)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("session-updates") || flags.Changed("reviews") {
				if flags.Changed("session-updates") {
					prefs.SessionUpdates = sessions
				}
				if flags.Changed("reviews") {
					prefs.Reviews = reviews
				}
				if err := inbox.SetPreferences(cmd.Context(), me, prefs); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), prefs)
		},
	}
	cmd.Flags().BoolVar(&sessions, "session-updates", true, "receive booking and status notifications")
	cmd.Flags().BoolVar(&reviews, "reviews", true, "receive review notifications")
	return cmd
}
