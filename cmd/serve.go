package cmd

import (
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Runs the subscription API and the daily broadcast scheduler",
		Long: `Starts the HTTP API (POST /store-email), the Prometheus metrics listener
and the daily broadcast scheduler, and blocks until SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if err := appInstance.Run(cmd.Context()); err != nil {
				closeOnError(cmd.Context(), appInstance)
				return err //nolint:wrapcheck
			}
			return nil
		},
	}
}
