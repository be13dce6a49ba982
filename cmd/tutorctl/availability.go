package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/tutor-marketplace/internal/application"
)

func newAvailabilityCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability",
		Short: "Manage weekly mentor availability",
	}
	cmd.AddCommand(newAvailabilitySetCommand(c), newAvailabilityGetCommand(c), newAvailabilityOpenCommand(c))
	return cmd
}

// parseSlot reads "DAY,HH:MM,HH:MM" where DAY is 1 (Monday) to 7 (Sunday).
func parseSlot(value string) (application.SlotInput, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return application.SlotInput{}, fmt.Errorf("slot %q: want DAY,START,END", value)
	}
	day, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return application.SlotInput{}, fmt.Errorf("slot %q: day: %w", value, err)
	}
	return application.SlotInput{
		DayOfWeek: day,
		StartTime: strings.TrimSpace(parts[1]),
		EndTime:   strings.TrimSpace(parts[2]),
	}, nil
}

func newAvailabilitySetCommand(c *cli) *cobra.Command {
	var (
		mentorID string
		slots    []string
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Replace a mentor's availability with the given slots",
		Example: `  tutorctl availability set --slot 1,09:00,12:00 --slot 3,18:00,21:00
  tutorctl availability set --mentor m-1   # clears all slots`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			if mentorID == "" {
				mentorID = p.UserID
			}
			inputs := make([]application.SlotInput, 0, len(slots))
			for _, raw := range slots {
				slot, err := parseSlot(raw)
				if err != nil {
					return err
				}
				inputs = append(inputs, slot)
			}
			stored, err := c.app.availability.ReplaceAvailability(cmd.Context(), application.ReplaceAvailabilityParams{
				Principal: p,
				MentorID:  mentorID,
				Slots:     inputs,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), stored)
		},
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "", "mentor id (defaults to the caller)")
	cmd.Flags().StringArrayVar(&slots, "slot", nil, "slot as DAY,START,END; repeatable")
	return cmd
}

func newAvailabilityGetCommand(c *cli) *cobra.Command {
	var mentorID string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a mentor's weekly slots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.principal(); err != nil {
				return err
			}
			slots, err := c.app.availability.GetAvailability(cmd.Context(), mentorID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), slots)
		},
	}
	cmd.Flags().StringVar(&mentorID, "mentor", "", "mentor id")
	_ = cmd.MarkFlagRequired("mentor")
	return cmd
}

func newAvailabilityOpenCommand(c *cli) *cobra.Command {
	var params application.OpenWindowsParams
	cmd := &cobra.Command{
		Use:   "open",
		Short: "List dated windows still free for booking",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.principal(); err != nil {
				return err
			}
			windows, err := c.app.availability.OpenWindows(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), windows)
		},
	}
	cmd.Flags().StringVar(&params.MentorID, "mentor", "", "mentor id")
	cmd.Flags().StringVar(&params.From, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.To, "to", "", "last date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("mentor")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
