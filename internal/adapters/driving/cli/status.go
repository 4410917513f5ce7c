package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var statusVendor string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show document processing status",
	RunE:  runStatus,
}

func init() {
	userFlagVar(statusCmd)
	statusCmd.Flags().StringVar(&statusVendor, "vendor", "", "limit to one vendor")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}

	summary, err := statusService.Summary(context.Background(), userFlag, statusVendor)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	cmd.Printf("Documents for %s: %d total, %d retryable\n", summary.UserID, summary.Total, summary.Retryable)

	statuses := make([]string, 0, len(summary.ByStatus))
	for status := range summary.ByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	for _, status := range statuses {
		cmd.Printf("  %-16s %d\n", status, summary.ByStatus[status])
	}
	return nil
}
