package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	analyticsPeriod string
	analyticsJSON   bool
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show spend analytics from indexed invoices",
	Long: `Derives vendor and time-bucketed spend aggregates from the knowledge
index. Period selects a trailing window: month, quarter or year; anything
else covers the full history.`,
	RunE: runAnalytics,
}

func init() {
	userFlagVar(analyticsCmd)
	analyticsCmd.Flags().StringVar(&analyticsPeriod, "period", "", "trailing window: month, quarter or year")
	analyticsCmd.Flags().BoolVar(&analyticsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errors.New("analytics service not configured")
	}

	report, err := analyticsService.Report(context.Background(), userFlag, analyticsPeriod)
	if err != nil {
		return fmt.Errorf("analytics failed: %w", err)
	}

	if analyticsJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Total spend: %.2f across %d invoices (avg %.2f)\n",
		report.TotalSpend, report.TotalInvoices, report.AverageInvoice)
	if report.TopVendor.VendorName != "" {
		cmd.Printf("Top vendor: %s (%.2f)\n", report.TopVendor.VendorName, report.TopVendor.TotalSpend)
	}
	if len(report.Vendors) > 0 {
		cmd.Println("Vendors:")
		for _, vs := range report.Vendors {
			cmd.Printf("  %-30s %10.2f  (%d invoices)\n", vs.VendorName, vs.TotalSpend, vs.InvoiceCount)
		}
	}
	if len(report.MonthlyTrend) > 0 {
		cmd.Println("Monthly trend:")
		for _, point := range report.MonthlyTrend {
			cmd.Printf("  %s  %10.2f\n", point.Name, point.Value)
		}
	}
	return nil
}
