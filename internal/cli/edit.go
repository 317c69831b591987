package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// EditOptions holds flags for the edit command.
type EditOptions struct {
	*RootOptions
	Title string
	Note  string
	Due   string
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EditOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title, note or due date of a task",
		Long: `Change fields of a task. Only the given flags are applied; --note ""
clears the note.

Editing the title of a synced task marks it locally modified. Under the
last-write-wins policy the edit survives later syncs until the remote
agrees with it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("note") && !flags.Changed("due") {
				return NewExitError(ExitCommandError, "nothing to change: use --title, --note or --due")
			}
			return withApp(cmd, opts.RootOptions, func(ctx context.Context, a *app) error {
				t, err := a.resolveTask(ctx, args[0])
				if err != nil {
					return err
				}
				if flags.Changed("title") {
					t.Title = opts.Title
				}
				if flags.Changed("note") {
					t.Note = opts.Note
				}
				if flags.Changed("due") {
					due, err := parseDue(opts.Due)
					if err != nil {
						return WrapExitError(ExitCommandError, "failed to edit task", err)
					}
					t.DueDate = due
				}

				updated, err := a.store.Update(ctx, t)
				if err != nil {
					return storeExitError("failed to edit task", err)
				}
				return a.out.Success(actionResult{Action: "Updated", Task: newTaskView(updated)})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Title, "title", "", "new title")
	cmd.Flags().StringVar(&opts.Note, "note", "", "new note")
	cmd.Flags().StringVar(&opts.Due, "due", "", "new due date (YYYY-MM-DD)")

	return cmd
}

// NewToggleCommand creates the toggle command.
func NewToggleCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completed flag of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				t, err := a.resolveTask(ctx, args[0])
				if err != nil {
					return err
				}
				t.Completed = !t.Completed
				updated, err := a.store.Update(ctx, t)
				if err != nil {
					return storeExitError("failed to update task", err)
				}
				action := "Reopened"
				if updated.Completed {
					action = "Completed"
				}
				return a.out.Success(actionResult{Action: action, Task: newTaskView(updated)})
			})
		},
	}
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task from the local store",
		Long: `Delete a task from the local store.

A synced task that still exists remotely is created again by the next sync.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				t, err := a.resolveTask(ctx, args[0])
				if err != nil {
					return err
				}
				if err := a.store.Delete(ctx, t.ID); err != nil {
					return storeExitError("failed to delete task", err)
				}
				return a.out.Success(deleteResult{Deleted: t.ID})
			})
		},
	}
}
