package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/tasksync/internal/task"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Sync    bool
	Pending bool
	Done    bool
	Search  string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List local tasks",
		Long: `List the tasks in the local store, oldest first.

--search keeps tasks whose title contains the given text, ignoring case.

With --sync the remote list is merged first. If the remote cannot be reached
the stored tasks are listed anyway and a warning is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Pending && opts.Done {
				return NewExitError(ExitCommandError, "--pending and --done are mutually exclusive")
			}
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
				return runList(ctx, a, opts)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Sync, "sync", false, "sync with the remote before listing")
	cmd.Flags().BoolVar(&opts.Pending, "pending", false, "only tasks not completed")
	cmd.Flags().BoolVar(&opts.Done, "done", false, "only completed tasks")
	cmd.Flags().StringVarP(&opts.Search, "search", "s", "", "only tasks whose title contains this text")

	return cmd
}

func runList(ctx context.Context, a *app, opts *ListOptions) error {
	var tasks []task.Task
	warning := ""

	if opts.Sync {
		res, err := a.engine.SyncOrLoad(ctx)
		switch {
		case err != nil && res.Stale:
			warning = syncExitError(err).Error()
		case err != nil:
			return syncExitError(err)
		}
		tasks = res.Tasks
	} else {
		var err error
		tasks, err = a.store.List(ctx)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to read tasks", err)
		}
	}

	filtered := tasks[:0:0]
	for _, t := range tasks {
		if (opts.Pending && t.Completed) || (opts.Done && !t.Completed) {
			continue
		}
		if !task.TitleContains(t.Title, opts.Search) {
			continue
		}
		filtered = append(filtered, t)
	}
	return a.out.SuccessWithWarning(newTaskList(filtered), warning)
}
