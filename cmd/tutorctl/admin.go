package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/tutor-marketplace/internal/application"
	"github.com/example/tutor-marketplace/internal/reporting"
)

func newReconcileCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute denormalized mentor and student counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			report, err := c.app.reconcile.Reconcile(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
}

func newReportCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Platform reports for administrators",
	}
	cmd.AddCommand(newReportAnalyticsCommand(c), newReportFinancialCommand(c))
	return cmd
}

// writeReport prints report as JSON, or writes an XLSX workbook when path is set.
func writeReport(out io.Writer, path string, report any, xlsx func(io.Writer) error) error {
	if path == "" {
		return printJSON(out, report)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := xlsx(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func newReportAnalyticsCommand(c *cli) *cobra.Command {
	var xlsxPath string
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Platform usage analytics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			report, err := c.app.reporting.Analytics(cmd.Context(), p)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), xlsxPath, report, func(w io.Writer) error {
				return reporting.WriteAnalyticsXLSX(w, report)
			})
		},
	}
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an Excel workbook to this path")
	return cmd
}

func newReportFinancialCommand(c *cli) *cobra.Command {
	var (
		params   application.FinancialParams
		xlsxPath string
	)
	cmd := &cobra.Command{
		Use:   "financial",
		Short: "Revenue from completed sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			params.Principal = p
			report, err := c.app.reporting.Financial(cmd.Context(), params)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), xlsxPath, report, func(w io.Writer) error {
				return reporting.WriteFinancialXLSX(w, report)
			})
		},
	}
	cmd.Flags().StringVar(&params.From, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&params.To, "to", "", "last date, YYYY-MM-DD")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write an Excel workbook to this path")
	return cmd
}

func newSchemaCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Database schema management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create tables, constraints and triggers if missing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := c.principal()
			if err != nil {
				return err
			}
			if !p.IsAdmin() {
				return application.ErrForbidden
			}
			if err := c.app.ensureSchema(cmd.Context()); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema ready (%s)\n", c.app.cfg.Store.Driver)
			return err
		},
	})
	return cmd
}
