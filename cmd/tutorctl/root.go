package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/tutor-marketplace/internal/application"
)

// cli carries the global flags and the lazily opened app.
type cli struct {
	configPath string
	token      string
	app        *app
}

func newRootCommand(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:          "tutorctl",
		Short:        "Operate the tutoring marketplace",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd.Context(), c.configPath)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "YAML configuration file")
	root.PersistentFlags().StringVar(&c.token, "token", os.Getenv("TUTOR_TOKEN"), "bearer token (defaults to $TUTOR_TOKEN)")

	root.AddCommand(
		newAvailabilityCommand(c),
		newSessionsCommand(c),
		newReviewsCommand(c),
		newMentorsCommand(c),
		newStudentsCommand(c),
		newNotificationsCommand(c),
		newReconcileCommand(c),
		newReportCommand(c),
		newSchemaCommand(c),
	)
	return root
}

// execute runs one command line and always releases the app afterwards.
func execute(ctx context.Context, args []string) error {
	c := &cli{}
	root := newRootCommand(c)
	root.SetArgs(args)
	return run(ctx, c, root)
}

func run(ctx context.Context, c *cli, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	if c.app != nil {
		if cerr := c.app.close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

// principal authenticates the --token of the current invocation.
func (c *cli) principal() (application.Principal, error) {
	return c.app.principal(c.token)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
