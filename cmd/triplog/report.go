package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/triplog/internal/client"
	"github.com/TheMichaelB/triplog/internal/dates"
	"github.com/TheMichaelB/triplog/internal/models"
	"github.com/TheMichaelB/triplog/internal/report"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [YYYY-MM]",
	Short: "Show the month summary of the selected vehicle",
	Long: `Summary shows distance, fuel and wash totals for one month. A month given
as argument (or via --prev/--next) becomes the remembered month.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummary,
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export a date range report of the selected vehicle",
	Example: `  triplog report --from 2024-01-01 --to 2024-03-31 --format csv
  triplog report --month 2024-03 --format eml
  triplog report --format text --copy`,
	RunE: runReport,
}

var (
	summaryPrev bool
	summaryNext bool

	reportFrom   string
	reportTo     string
	reportMonth  string
	reportFormat string
	reportCopy   bool
)

func init() {
	rootCmd.AddCommand(summaryCmd, reportCmd)

	summaryCmd.Flags().BoolVar(&summaryPrev, "prev", false, "Previous month")
	summaryCmd.Flags().BoolVar(&summaryNext, "next", false, "Next month")

	reportCmd.Flags().StringVar(&reportFrom, "from", "", "First date YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "Last date YYYY-MM-DD")
	reportCmd.Flags().StringVar(&reportMonth, "month", "", "Whole month YYYY-MM (default the remembered month)")
	reportCmd.Flags().StringVarP(&reportFormat, "format", "f", "text", "Format: text, csv, json or eml")
	reportCmd.Flags().BoolVar(&reportCopy, "copy", false, "Copy the text summary to the clipboard")
}

func runSummary(cmd *cobra.Command, args []string) error {
	session := appClient.Session
	month := session.State().UI.Month

	switch {
	case len(args) == 1:
		month = args[0]
	case summaryPrev:
		month = dates.ShiftMonth(month, -1)
	case summaryNext:
		month = dates.ShiftMonth(month, 1)
	}
	if month != session.State().UI.Month {
		if err := session.SetMonth(month); err != nil {
			return err
		}
	}

	summary, vehicle, err := appClient.MonthSummary(month)
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(summary)
		return nil
	}
	fmt.Print(report.MonthText(summary, vehicle, appClient.Formatter()))
	return nil
}

// monthBounds returns the first and last calendar date of month.
func monthBounds(month string) (string, string, error) {
	first, err := time.Parse(dates.MonthLayout, month)
	if err != nil {
		return "", "", models.NewValidationError(models.ErrCodeInvalid, "month", models.ErrInvalidMonth)
	}
	last := first.AddDate(0, 1, -1)
	return first.Format(dates.DateLayout), last.Format(dates.DateLayout), nil
}

// reportRange resolves the requested range. Explicit dates win over a month.
func reportRange(from, to, month, fallbackMonth string) (string, string, error) {
	if from == "" && to == "" {
		if month == "" {
			month = fallbackMonth
		}
		return monthBounds(month)
	}
	if from == "" || to == "" {
		return "", "", errors.New("--from and --to must be given together")
	}
	if !dates.IsDate(from) {
		return "", "", models.NewValidationError(models.ErrCodeInvalid, "from", models.ErrInvalidDate)
	}
	if !dates.IsDate(to) {
		return "", "", models.NewValidationError(models.ErrCodeInvalid, "to", models.ErrInvalidDate)
	}
	if to < from {
		return "", "", models.NewValidationError(models.ErrCodeInvalidRange, "to", errors.New("range ends before it starts"))
	}
	return from, to, nil
}

func runReport(cmd *cobra.Command, args []string) error {
	start, end, err := reportRange(reportFrom, reportTo, reportMonth, appClient.Session.State().UI.Month)
	if err != nil {
		return err
	}

	r, vehicle, err := appClient.RangeReport(start, end)
	if err != nil {
		return err
	}

	text := report.Summary(r, vehicle, appClient.Formatter())
	if reportCopy {
		if err := report.CopyText(text); err != nil {
			printWarning("Clipboard unavailable: %v", err)
		} else if !jsonOutput {
			printInfo("Summary copied to clipboard")
		}
	}

	switch reportFormat {
	case "text":
		if jsonOutput {
			printJSON(r)
			return nil
		}
		fmt.Print(text)
		return nil
	case client.FormatCSV, client.FormatJSON, client.FormatMail:
	default:
		return fmt.Errorf("unknown report format: %s", reportFormat)
	}

	name, err := appClient.WriteReport(r, vehicle, reportFormat)
	if err != nil {
		return err
	}
	path := appClient.Exports.Path(name)

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"file":    path,
			"trips":   len(r.Trips),
			"legs":    r.Totals.LegCount,
		})
		return nil
	}
	printSuccess("Wrote %s (%d trips, %d legs)", path, len(r.Trips), r.Totals.LegCount)
	if reportFormat == client.FormatMail {
		fmt.Fprintln(os.Stdout, "Open the file with your mail client to send it.")
	}
	return nil
}
