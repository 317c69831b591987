package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync state counts and the last sync time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				st, err := a.engine.Status(ctx)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to read status", err)
				}
				src := a.cfg.Endpoint
				if a.cfg.Source != "" {
					src = a.cfg.Source
				}
				return a.out.Success(statusView{Status: st, Database: a.cfg.Database, Remote: src})
			})
		},
	}
}
