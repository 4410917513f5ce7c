package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	searchVendor string
	searchLimit  int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed invoices",
	Long: `Performs semantic search over the user's indexed invoice chunks and
prints the best matches with their citation metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	userFlagVar(searchCmd)
	searchCmd.Flags().StringVar(&searchVendor, "vendor", "", "limit to one vendor")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 5, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	sources, err := searchService.Search(context.Background(), userFlag, searchVendor, args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(sources, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(sources) == 0 {
		cmd.Println("No matches.")
		return nil
	}
	for _, src := range sources {
		cmd.Printf("%d. [%s] %s (similarity %.3f)\n", src.Rank, src.Type, src.VendorName, src.Similarity)
		if src.InvoiceNumber != "" {
			cmd.Printf("   Invoice %s dated %s, total %.2f\n", src.InvoiceNumber, src.InvoiceDate, src.TotalAmount)
		}
		cmd.Printf("   %s\n", src.Excerpt)
	}
	return nil
}
