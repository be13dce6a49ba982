package main

import (
	"github.com/spf13/cobra"

	"github.com/example/tutor-marketplace/internal/application"
)

func newStudentsCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Inspect student learning history",
	}
	cmd.AddCommand(newStudentsProgressCommand(c))
	return cmd
}

func newStudentsProgressCommand(c *cli) *cobra.Command {
	var params application.StudentProgressParams
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show a student's progress report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			progress, err := c.app.reporting.StudentProgress(cmd.Context(), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), progress)
		},
	}
	cmd.Flags().StringVar(&params.StudentID, "student", "", "student id (defaults to the caller)")
	return cmd
}
