package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tasksync/internal/task"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Note string
	Due  string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add <title>...",
		Short: "Add a local task",
		Long: `Add a task to the local store. The words of the title are joined with
spaces. The task stays local: syncs never change or remove it.

Example:
  tasksync add Buy milk --note "oat, 2 litres" --due 2025-08-01`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
				return runAdd(ctx, a, opts, strings.Join(args, " "))
			})
		},
	}

	cmd.Flags().StringVar(&opts.Note, "note", "", "free-text note")
	cmd.Flags().StringVar(&opts.Due, "due", "", "due date (YYYY-MM-DD, default now)")

	return cmd
}

func runAdd(ctx context.Context, a *app, opts *AddOptions, title string) error {
	rec := task.Task{
		ID:    a.ids.Generate(),
		Title: title,
		Note:  opts.Note,
	}
	if opts.Due != "" {
		due, err := parseDue(opts.Due)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to add task", err)
		}
		rec.DueDate = due
	}

	added, err := a.store.Insert(ctx, rec)
	if err != nil {
		return storeExitError("failed to add task", err)
	}
	a.logger.Debug("task added", "id", added.ID)
	return a.out.Success(actionResult{Action: "Added", Task: newTaskView(added)})
}
