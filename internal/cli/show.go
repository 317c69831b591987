package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				t, err := a.resolveTask(ctx, args[0])
				if err != nil {
					return err
				}
				return a.out.Success(newTaskView(t))
			})
		},
	}
}
