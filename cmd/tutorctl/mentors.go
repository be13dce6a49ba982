package main

import (
	"github.com/spf13/cobra"

	"github.com/example/tutor-marketplace/internal/application"
)

func newMentorsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mentors",
		Short: "Search and administer mentors",
	}
	cmd.AddCommand(newMentorsNearbyCommand(c), newMentorsStatusCommand(c))
	return cmd
}

func newMentorsNearbyCommand(c *cli) *cobra.Command {
	var params application.NearbyMentorsParams
	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "Find in-person mentors within a radius",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := c.principal(); err != nil {
				return err
			}
			hits, err := c.app.directory.NearbyMentors(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), hits)
		},
	}
	cmd.Flags().Float64Var(&params.Latitude, "lat", 0, "latitude")
	cmd.Flags().Float64Var(&params.Longitude, "lng", 0, "longitude")
	cmd.Flags().Float64Var(&params.RadiusKM, "radius", 5, "radius in km (1 to 15)")
	cmd.Flags().StringVar(&params.EnglishLevel, "english", "", "required english level")
	cmd.Flags().IntVar(&params.DayOfWeek, "day", 0, "weekday 1 (Monday) to 7 (Sunday)")
	cmd.Flags().StringVar(&params.From, "from", "", "window start, HH:MM")
	cmd.Flags().StringVar(&params.To, "to", "", "window end, HH:MM")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}

func newMentorsStatusCommand(c *cli) *cobra.Command {
	var params application.SetMentorStatusParams
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Activate or deactivate a mentor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			mentor, err := c.app.directory.SetMentorStatus(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), mentor)
		},
	}
	cmd.Flags().StringVar(&params.MentorID, "id", "", "mentor id")
	cmd.Flags().StringVar(&params.Status, "status", "", "active or inactive")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}
