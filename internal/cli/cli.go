// Package cli holds the plumbing shared by the command-line front ends:
// configuration flags, store lifecycle and exit-code mapping.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"todo/internal/config"
	"todo/internal/logger"
	"todo/internal/store"
	"todo/internal/tasks"
)

// Version is stamped at build time with -ldflags "-X todo/internal/cli.Version=...".
var Version = "dev"

// Exit codes shared by both command-line front ends.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// UsageError marks a malformed invocation.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Usagef builds a UsageError.
func Usagef(format string, args ...interface{}) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// RunError marks a failure that happened after the invocation was accepted.
type RunError struct {
	Err error
}

func (e *RunError) Error() string { return e.Err.Error() }
func (e *RunError) Unwrap() error { return e.Err }

// Fail wraps err as a RunError. A nil err stays nil.
func Fail(err error) error {
	if err == nil {
		return nil
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return err
	}
	return &RunError{Err: err}
}

// ExitCode maps an error returned by cobra's Execute onto a process exit code.
// Errors that cobra produces itself (unknown command, bad flag, wrong
// argument count) are usage errors.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var re *RunError
	if errors.As(err, &re) {
		return ExitError
	}
	return ExitUsage
}

// ExactArgs is cobra.ExactArgs with the result marked as a usage error.
func ExactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return Usagef("accepts %d arg(s), received %d", n, len(args))
		}
		return nil
	}
}

// Env carries configuration for one command-line invocation.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer

	v          *viper.Viper
	configPath string
}

// NewEnv registers the persistent --db, --config and --log-level flags on
// root and binds them onto the configuration.
func NewEnv(root *cobra.Command, stdout, stderr io.Writer) *Env {
	e := &Env{Stdout: stdout, Stderr: stderr, v: config.New()}

	// Command-line front ends stay quiet unless asked.
	e.v.SetDefault("logger.level", "warn")

	flags := root.PersistentFlags()
	flags.StringVar(&e.configPath, "config", "", "path to a config file (yaml, toml or json)")
	flags.String("db", "", "path to the SQLite database (default ./todo.db)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	e.v.BindPFlag("database.path", flags.Lookup("db"))
	e.v.BindPFlag("logger.level", flags.Lookup("log-level"))

	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SilenceUsage = true
	root.SilenceErrors = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	return e
}

// WithService opens the configured store, runs fn against a task service
// and closes the store on every exit path. Errors are marked as RunErrors.
func (e *Env) WithService(ctx context.Context, fn func(svc *tasks.Service) error) (err error) {
	cfg, err := config.Load(e.v, e.configPath)
	if err != nil {
		return Fail(err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return Fail(fmt.Errorf("failed to initialize logger: %w", err))
	}
	defer log.Sync()

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return Fail(err)
	}
	log.Debugw("store opened", "driver", cfg.Database.Driver, "path", cfg.Database.Path)

	defer func() {
		if cerr := st.Close(); cerr != nil && err == nil {
			err = Fail(fmt.Errorf("failed to close store: %w", cerr))
		}
	}()

	return Fail(fn(tasks.New(st)))
}

// PrintError writes err to stderr in the "Error: ..." form.
func (e *Env) PrintError(err error) {
	fmt.Fprintf(e.Stderr, "Error: %v\n", err)
}
