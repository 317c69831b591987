package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tasksync/internal/config"
	"github.com/roach88/tasksync/internal/engine"
	"github.com/roach88/tasksync/internal/remote"
	"github.com/roach88/tasksync/internal/store"
	"github.com/roach88/tasksync/internal/task"
)

// app holds everything a command needs. The command that opens it owns its
// lifecycle and must call Close.
type app struct {
	cfg    config.Config
	store  *store.Store
	engine *engine.Engine
	ids    task.IDGenerator
	logger *slog.Logger
	out    *OutputFormatter
}

// newLogger configures structured logging based on the verbose flag.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	return slog.New(handler)
}

// resolveConfig loads the config file, applies flag overrides and then
// validates, so a flag can replace an invalid file value.
func resolveConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Read(opts.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Source != "" {
		cfg.Source = opts.Source
	}
	if opts.Policy != "" {
		cfg.Policy = opts.Policy
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// openApp resolves configuration, opens the database and builds the sync
// engine.
func openApp(cmd *cobra.Command, opts *RootOptions) (*app, error) {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := resolveConfig(opts)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	policy, err := cfg.MergePolicy()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}

	if dir := filepath.Dir(cfg.Database); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to create database directory", err)
		}
	}

	logger.Debug("opening database", "path", cfg.Database)
	var storeOpts []store.Option
	if opts.Clock != nil {
		storeOpts = append(storeOpts, store.WithClock(opts.Clock))
	}
	st, err := store.Open(cfg.Database, storeOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	ids := opts.IDs
	if ids == nil {
		ids = task.UUIDv7Generator{}
	}

	engineOpts := []engine.Option{
		engine.WithIDGenerator(ids),
		engine.WithPolicy(policy),
		engine.WithTimeout(cfg.Timeout),
		engine.WithLockFile(cfg.LockPath()),
		engine.WithLogger(logger),
	}
	if opts.Clock != nil {
		engineOpts = append(engineOpts, engine.WithClock(opts.Clock))
	}

	return &app{
		cfg:    cfg,
		store:  st,
		engine: engine.New(st, newFetcher(cfg), engineOpts...),
		ids:    ids,
		logger: logger,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
		},
	}, nil
}

// newFetcher picks the file fetcher when a source file is configured and the
// HTTP fetcher otherwise.
func newFetcher(cfg config.Config) remote.Fetcher {
	if cfg.Source != "" {
		return remote.NewFileFetcher(cfg.Source)
	}
	return remote.NewHTTPFetcher(cfg.Endpoint, remote.WithTimeout(cfg.Timeout))
}

// Close releases the database.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// withApp opens the app, runs fn and closes the app.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app) error) error {
	a, err := openApp(cmd, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, a)
}

// resolveTask finds a task by full ID or by a unique ID prefix.
func (a *app) resolveTask(ctx context.Context, ref string) (task.Task, error) {
	t, err := a.store.Get(ctx, ref)
	if err == nil {
		return t, nil
	}
	if !isNotFound(err) {
		return task.Task{}, WrapExitError(ExitFailure, "failed to read task", err)
	}

	tasks, err := a.store.List(ctx)
	if err != nil {
		return task.Task{}, WrapExitError(ExitFailure, "failed to read tasks", err)
	}
	var matches []task.Task
	for _, t := range tasks {
		if ref != "" && strings.HasPrefix(t.ID, ref) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return task.Task{}, NewExitError(ExitFailure, fmt.Sprintf("task %q not found", ref))
	default:
		return task.Task{}, NewExitError(ExitFailure, fmt.Sprintf("task id %q is ambiguous (%d matches)", ref, len(matches)))
	}
}
