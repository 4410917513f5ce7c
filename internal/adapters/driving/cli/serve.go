package cli

import (
	"errors"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  `Starts the JSON HTTP API and blocks until interrupted.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		if serveFunc == nil {
			return errors.New("server not configured")
		}
		return serveFunc()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
