// Package cli implements the command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vendoriq/vendoriq/internal/core/ports/driving"
	"github.com/vendoriq/vendoriq/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Services injected by the composition root before Execute.
var (
	syncService      driving.Syncer
	retryService     driving.Retryer
	statusService    driving.StatusReporter
	analyticsService driving.Analytics
	searchService    driving.Searcher
	serveFunc        func() error
)

// Shared flags.
var (
	verboseFlag bool
	userFlag    string
	tokenFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "vendoriq",
	Short: "Invoice processing and knowledge indexing pipeline",
	Long: `VendorIQ walks a vendor-organised invoice tree in Google Drive, extracts
structured data from each document, maintains per-vendor record files and
keeps a searchable per-user knowledge index up to date.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Services bundles everything the commands need.
type Services struct {
	Syncer    driving.Syncer
	Retryer   driving.Retryer
	Status    driving.StatusReporter
	Analytics driving.Analytics
	Searcher  driving.Searcher

	// Serve starts the HTTP API and blocks. Used by the serve command.
	Serve func() error

	// Version overrides the build-time version string when non-empty.
	Version string
}

// Execute wires the services into the commands and runs the CLI.
func Execute(services Services) {
	syncService = services.Syncer
	retryService = services.Retryer
	statusService = services.Status
	analyticsService = services.Analytics
	searchService = services.Searcher
	serveFunc = services.Serve
	if services.Version != "" {
		version = services.Version
	}

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// userFlagVar registers the shared --user flag on a command.
func userFlagVar(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&userFlag, "user", "u", "", "user ID (required)")
	_ = cmd.MarkFlagRequired("user")
}

// tokenFlagVar registers the shared --refresh-token flag on a command. The
// VENDORIQ_REFRESH_TOKEN environment variable is the fallback, keeping the
// token out of shell history.
func tokenFlagVar(cmd *cobra.Command) {
	cmd.Flags().StringVar(&tokenFlag, "refresh-token", "", "OAuth refresh token (or VENDORIQ_REFRESH_TOKEN)")
}

// refreshToken resolves the credential from flag or environment.
func refreshToken() string {
	if tokenFlag != "" {
		return tokenFlag
	}
	return os.Getenv("VENDORIQ_REFRESH_TOKEN")
}
