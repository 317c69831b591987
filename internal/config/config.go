// Package config resolves tasksync settings from defaults, a YAML file and
// TASKSYNC_* environment variables, and validates the result against an
// embedded CUE schema.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"

	"github.com/roach88/tasksync/internal/engine"
	"github.com/roach88/tasksync/internal/reconcile"
	"github.com/roach88/tasksync/internal/remote"
)

//go:embed schema.cue
var schemaSrc string

// EnvPrefix prefixes environment overrides, e.g. TASKSYNC_DATABASE.
const EnvPrefix = "TASKSYNC"

// Config is the resolved configuration.
type Config struct {
	// Database is the SQLite file holding local tasks.
	Database string `mapstructure:"database" json:"database"`

	// Endpoint is the remote todo list URL.
	Endpoint string `mapstructure:"endpoint" json:"endpoint"`

	// Source, when set, is a YAML or JSON file read instead of Endpoint.
	Source string `mapstructure:"source" json:"source"`

	// Timeout bounds each remote fetch.
	Timeout time.Duration `mapstructure:"timeout" json:"timeout"`

	// Policy is the merge policy name (see reconcile.Policies).
	Policy string `mapstructure:"policy" json:"policy"`

	// LockFile is the cross-process sync lock. Empty means next to Database.
	LockFile string `mapstructure:"lock_file" json:"lock_file"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: DefaultDatabasePath(),
		Endpoint: remote.DefaultEndpoint,
		Timeout:  remote.DefaultTimeout,
		Policy:   string(reconcile.DefaultPolicy),
	}
}

// DefaultDatabasePath returns $XDG_DATA_HOME/tasksync/tasks.db, falling back
// to ~/.local/share and finally the working directory.
func DefaultDatabasePath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "tasksync", "tasks.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "tasksync", "tasks.db")
	}
	return "tasks.db"
}

// DefaultPath returns the config file looked up when none is given:
// $XDG_CONFIG_HOME/tasksync/config.yaml. Empty if no config dir is known.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tasksync", "config.yaml")
}

// Load resolves the configuration with Read and validates the result.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read resolves the configuration without validating it, so that callers
// can apply their own overrides first.
//
// Layers, lowest precedence first: Default(), the YAML file at path (or at
// DefaultPath() when path is empty and that file exists), then environment
// variables. An explicit path that does not exist is an error; unknown keys
// in the file are rejected.
func Read(path string) (Config, error) {
	def := Default()

	v := viper.New()
	v.SetDefault("database", def.Database)
	v.SetDefault("endpoint", def.Endpoint)
	v.SetDefault("source", def.Source)
	v.SetDefault("timeout", def.Timeout)
	v.SetDefault("policy", def.Policy)
	v.SetDefault("lock_file", def.LockFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	file := path
	if file == "" {
		file = DefaultPath()
		if _, err := os.Stat(file); err != nil {
			file = ""
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Database = expandHome(cfg.Database)
	cfg.Source = expandHome(cfg.Source)
	cfg.LockFile = expandHome(cfg.LockFile)
	return cfg, nil
}

// ValidationError reports a configuration that does not satisfy the schema.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks c against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	value := ctx.Encode(c)
	if err := value.Err(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	unified := schema.LookupPath(cue.ParsePath("#Config")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// LockPath returns the sync lock file, defaulting to a file next to the
// database.
func (c Config) LockPath() string {
	if c.LockFile != "" {
		return c.LockFile
	}
	return engine.LockPath(c.Database)
}

// MergePolicy returns the parsed merge policy.
func (c Config) MergePolicy() (reconcile.Policy, error) {
	return reconcile.ParsePolicy(c.Policy)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
