package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/budgetbook/internal/model"
)

func newReportCommand(dataDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print actual-vs-budget reports as JSON",
	}
	cmd.AddCommand(newReportMonthCommand(dataDir), newReportAnnualCommand(dataDir))
	return cmd
}

func newReportMonthCommand(dataDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "month <year> <month>",
		Short: "Report one calendar month",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year %q", args[0])
			}
			month, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid month %q", args[1])
			}
			return withApp(cmd.Context(), *dataDir, cmd.ErrOrStderr(), func(ctx context.Context, a *app) error {
				payload, err := a.reports.Monthly(ctx, year, month)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), payload)
			})
		},
	}
}

func newReportAnnualCommand(dataDir *string) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "annual",
		Short: "Report the budget period containing a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d := time.Now().UTC()
			if date != "" {
				parsed, err := time.Parse(model.DateFormat, date)
				if err != nil {
					return fmt.Errorf("invalid --date: %w", err)
				}
				d = parsed
			}
			return withApp(cmd.Context(), *dataDir, cmd.ErrOrStderr(), func(ctx context.Context, a *app) error {
				payload, err := a.reports.Annual(ctx, d)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), payload)
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "any date in the period, YYYY-MM-DD (default: today)")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
