package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/roach88/tasksync/internal/engine"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Merge the remote task list into the local store",
		Long: `Fetch the full remote task list and merge it into the local store.

New remote tasks are added, changed ones updated and tasks missing from the
remote list removed, all in one transaction. If the fetch fails nothing is
changed. Local tasks that were never synced are left alone.

Example:
  tasksync sync
  tasksync sync --source ./todos.yaml --policy remote-wins`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, runSync)
		},
	}
}

func runSync(ctx context.Context, a *app) error {
	res, err := a.engine.Sync(ctx)
	if err != nil {
		return syncExitError(err)
	}
	return a.out.Success(syncReport{
		Stats:    res.Stats,
		SyncedAt: res.SyncedAt,
		Total:    len(res.Tasks),
	})
}

// syncExitError describes a failed sync for the user.
func syncExitError(err error) *ExitError {
	switch {
	case errors.Is(err, engine.ErrSyncInProgress):
		return WrapExitError(ExitFailure, "another sync is running", err)
	case engine.IsFetchError(err):
		return WrapExitError(ExitFailure, "could not fetch remote tasks; local tasks unchanged", err)
	default:
		return WrapExitError(ExitFailure, "sync failed", err)
	}
}
