package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newBroadcastCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "broadcast",
		Short: "Sends today's question to every subscriber once and exits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			appInstance.Logger().Info("running one-shot broadcast")
			if err := appInstance.Broadcast(cmd.Context()); err != nil {
				appInstance.Logger().Error("broadcast failed", zap.Error(err))
				closeOnError(cmd.Context(), appInstance)
				return err //nolint:wrapcheck
			}
			return nil
		},
	}
}
