package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tasksync/internal/task"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string
	Source     string
	Policy     string

	// IDs and Clock override the task ID generator and version clock.
	// Tests set them for deterministic output; nil means the defaults.
	IDs   task.IDGenerator
	Clock task.Clock
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tasksync CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasksync",
		Short: "Local to-do list synchronized with a remote task list",
		Long: `tasksync keeps a local SQLite to-do list in sync with a remote todo list.

Remote tasks are merged into the local list on every sync: new remote tasks
are added, changed ones updated, and tasks that disappeared remotely are
removed. Tasks created locally are never touched by a sync, and local notes
and due dates survive every sync.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/tasksync/config.yaml)")
	flags.StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	flags.StringVar(&opts.Source, "source", "", "read the remote list from a YAML/JSON file instead of the endpoint")
	flags.StringVar(&opts.Policy, "policy", "", "merge policy (last-write-wins|remote-wins)")

	// Add subcommands
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewToggleCommand(opts))
	cmd.AddCommand(NewDeleteCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute(version string) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.Version = version
	return run(cmd, opts, os.Stdout, os.Stderr)
}

// run executes cmd and reports a failure in the selected format.
//
// Errors that are not *ExitError come from cobra itself (unknown flag,
// wrong argument count) and are reported as command errors.
func run(cmd *cobra.Command, opts *RootOptions, stdout, stderr io.Writer) int {
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	err := cmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		err = WrapExitError(ExitCommandError, "invalid command", err)
	}
	out := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr}
	if !slices.Contains(ValidFormats, opts.Format) {
		out.Format = "text"
	}
	_ = out.Error(err)
	return GetExitCode(err)
}
