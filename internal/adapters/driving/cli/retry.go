package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vendoriq/vendoriq/internal/core/domain"
	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
)

var (
	retryVendor  string
	retryFileIDs []string
	retryMax     int
)

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Re-process failed documents",
	Long: `Re-drives documents in a failure state through the pipeline. Only
documents under the attempt ceiling whose last error was retryable are
picked up; the rest are reported as exhausted.`,
	RunE: runRetry,
}

func init() {
	userFlagVar(retryCmd)
	tokenFlagVar(retryCmd)
	retryCmd.Flags().StringVar(&retryVendor, "vendor", "", "limit retry to one vendor")
	retryCmd.Flags().StringSliceVar(&retryFileIDs, "file", nil, "limit retry to specific file IDs")
	retryCmd.Flags().IntVar(&retryMax, "max-retries", 0, "attempt ceiling override")
	rootCmd.AddCommand(retryCmd)
}

func runRetry(cmd *cobra.Command, _ []string) error {
	if retryService == nil {
		return errors.New("retry service not configured")
	}

	cred := domain.Credential{RefreshToken: refreshToken()}

	report, err := retryService.Retry(context.Background(), userFlag, cred, driving.RetryOptions{
		Vendor:     retryVendor,
		FileIDs:    retryFileIDs,
		MaxRetries: retryMax,
	})
	if err != nil {
		return fmt.Errorf("retry failed: %w", err)
	}

	printVendorOutcomes(cmd, report.Vendors)
	cmd.Printf("%d documents retried, %d exhausted.\n", report.Retried, report.Exhausted)
	return nil
}
