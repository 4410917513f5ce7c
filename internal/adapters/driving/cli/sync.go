package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Process new invoices from the remote store",
	Long: `Walks the user's vendor folders, extracts structured data from new
documents, updates per-vendor record files and indexes the results.`,
	RunE: runSync,
}

func init() {
	userFlagVar(syncCmd)
	tokenFlagVar(syncCmd)
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	if syncService == nil {
		return errors.New("sync service not configured")
	}

	cred := domain.Credential{RefreshToken: refreshToken()}
	cmd.Printf("Syncing invoices for %s...\n", userFlag)

	report, err := syncService.Sync(context.Background(), userFlag, cred)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	printVendorOutcomes(cmd, report.Vendors)
	cmd.Printf("Run %s: %d documents processed, %d skipped across %d vendors.\n",
		report.RunID, report.DocumentsIndexed, report.DocumentsSkipped, len(report.Vendors))
	return nil
}

func printVendorOutcomes(cmd *cobra.Command, outcomes []driving.VendorOutcome) {
	for _, outcome := range outcomes {
		switch {
		case outcome.Err != "":
			cmd.Printf("  %s: FAILED (%s)\n", outcome.VendorName, outcome.Err)
		case len(outcome.Processed) == 0 && len(outcome.Skipped) == 0:
			cmd.Printf("  %s: empty\n", outcome.VendorName)
		default:
			cmd.Printf("  %s: %d processed, %d skipped, %d indexed\n",
				outcome.VendorName, len(outcome.Processed), len(outcome.Skipped), outcome.Indexed)
		}
	}
}
