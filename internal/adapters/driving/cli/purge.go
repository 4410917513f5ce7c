package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	purgeYes   bool
	purgeIndex bool
)

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Clear all processing status for a user",
	Long: `Removes every document status record for a user. Remote record files are
untouched; the next sync treats all documents as new and skips re-indexing
unchanged content by hash.

With --index, the user's indexed knowledge chunks are removed as well, so
the next sync rebuilds the index from the remote records.`,
	RunE: runPurge,
}

func init() {
	userFlagVar(purgeCmd)
	purgeCmd.Flags().BoolVar(&purgeYes, "yes", false, "skip confirmation")
	purgeCmd.Flags().BoolVar(&purgeIndex, "index", false, "also remove indexed knowledge chunks")
	rootCmd.AddCommand(purgeCmd)
}

func runPurge(cmd *cobra.Command, _ []string) error {
	if statusService == nil {
		return errors.New("status service not configured")
	}

	if !purgeYes {
		cmd.Printf("Clear all status records for %s? [y/N]: ", userFlag)
		var answer string
		_, _ = fmt.Fscanln(cmd.InOrStdin(), &answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	n, err := statusService.Clear(context.Background(), userFlag)
	if err != nil {
		return fmt.Errorf("purge failed: %w", err)
	}
	cmd.Printf("Cleared %d status records.\n", n)

	if purgeIndex {
		purged, err := statusService.PurgeIndex(context.Background(), userFlag)
		if err != nil {
			return fmt.Errorf("index purge failed: %w", err)
		}
		cmd.Printf("Purged %d indexed chunks.\n", purged)
	}
	return nil
}
