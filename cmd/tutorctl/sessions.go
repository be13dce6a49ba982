package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/calendar"
	"github.com/example/tutor-marketplace/internal/notify"
)

func newSessionsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Book and manage tutoring sessions",
	}
	cmd.AddCommand(
		newSessionsBookCommand(c),
		newSessionsRescheduleCommand(c),
		newSessionsTransitionCommand(c),
		newSessionsFeedbackCommand(c),
		newSessionsGetCommand(c),
		newSessionsListCommand(c),
		newSessionsICSCommand(c),
	)
	return cmd
}

func newSessionsBookCommand(c *cli) *cobra.Command {
	var (
		params application.BookSessionParams
		notes  string
	)
	cmd := &cobra.Command{
		Use:   "book",
		Short: "Request a session with a mentor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			if notes != "" {
				params.Notes = &notes
			}
			session, err := c.app.booking.BookSession(cmd.Context(), params)
			if err != nil {
				return err
			}
			c.app.notifier.Send(cmd.Context(), notify.BookingRequested(c.app.ids(), c.app.now(), session))
			return printJSON(cmd.OutOrStdout(), session)
		},
	}
	cmd.Flags().StringVar(&params.MentorID, "mentor", "", "mentor id")
	cmd.Flags().StringVar(&params.StudentID, "student", "", "student id (must be the caller)")
	cmd.Flags().StringVar(&params.Date, "date", "", "session date, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.StartTime, "start", "", "start time, HH:MM")
	cmd.Flags().StringVar(&params.EndTime, "end", "", "end time, HH:MM")
	cmd.Flags().IntVar(&params.DurationMinutes, "duration", 0, "duration in minutes (derived when 0)")
	cmd.Flags().StringVar(&notes, "notes", "", "notes for the mentor")
	for _, name := range []string{"mentor", "date", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSessionsRescheduleCommand(c *cli) *cobra.Command {
	var params application.RescheduleSessionParams
	cmd := &cobra.Command{
		Use:   "reschedule",
		Short: "Move an active session to a new date and time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			session, err := c.app.booking.RescheduleSession(cmd.Context(), params)
			if err != nil {
				return err
			}
			c.app.notifier.Send(cmd.Context(), notify.Rescheduled(c.app.ids, c.app.now(), session, p)...)
			return printJSON(cmd.OutOrStdout(), session)
		},
	}
	cmd.Flags().StringVar(&params.SessionID, "id", "", "session id")
	cmd.Flags().StringVar(&params.Date, "date", "", "new date, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.StartTime, "start", "", "new start time, HH:MM")
	cmd.Flags().StringVar(&params.EndTime, "end", "", "new end time, HH:MM")
	for _, name := range []string{"id", "date", "start", "end"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newSessionsTransitionCommand(c *cli) *cobra.Command {
	var (
		params application.TransitionParams
		reason string
	)
	cmd := &cobra.Command{
		Use:   "transition",
		Short: "Change a session's status (confirmed, cancelled, completed, no_show)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			if reason != "" {
				params.CancellationReason = &reason
			}
			session, err := c.app.sessions.Transition(cmd.Context(), params)
			if err != nil {
				return err
			}
			c.app.notifier.Send(cmd.Context(), notify.StatusChanged(c.app.ids, c.app.now(), session, p)...)
			return printJSON(cmd.OutOrStdout(), session)
		},
	}
	cmd.Flags().StringVar(&params.SessionID, "id", "", "session id")
	cmd.Flags().StringVar(&params.Status, "status", "", "target status")
	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}

func newSessionsFeedbackCommand(c *cli) *cobra.Command {
	var params application.FeedbackParams
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Attach the caller's feedback to a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			session, err := c.app.sessions.AttachFeedback(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), session)
		},
	}
	cmd.Flags().StringVar(&params.SessionID, "id", "", "session id")
	cmd.Flags().StringVar(&params.Feedback, "text", "", "feedback text")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("text")
	return cmd
}

func newSessionsGetCommand(c *cli) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show one session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			session, err := c.app.sessions.GetSession(cmd.Context(), p, sessionID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), session)
		},
	}
	cmd.Flags().StringVar(&sessionID, "id", "", "session id")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func bindListFlags(cmd *cobra.Command, params *application.ListSessionsParams) {
	cmd.Flags().StringVar(&params.Status, "status", "", "only sessions in this status")
	cmd.Flags().StringVar(&params.From, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.To, "to", "", "last date, YYYY-MM-DD")
}

func newSessionsListCommand(c *cli) *cobra.Command {
	var params application.ListSessionsParams
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the sessions visible to the caller",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			sessions, err := c.app.sessions.ListSessions(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sessions)
		},
	}
	bindListFlags(cmd, &params)
	return cmd
}

func newSessionsICSCommand(c *cli) *cobra.Command {
	var (
		params application.ListSessionsParams
		out    string
	)
	cmd := &cobra.Command{
		Use:   "ics",
		Short: "Export the caller's sessions as an iCalendar feed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			sessions, err := c.app.sessions.ListSessions(cmd.Context(), params)
			if err != nil {
				return err
			}
			opts := calendar.Options{Name: "Tutoring sessions", Stamp: c.app.now()}
			if out == "" {
				return calendar.Export(cmd.OutOrStdout(), sessions, opts)
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := calendar.Export(f, sessions, opts); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	bindListFlags(cmd, &params)
	cmd.Flags().StringVarP(&out, "out", "o", "", "write to this file instead of stdout")
	return cmd
}
