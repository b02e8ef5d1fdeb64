package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/loopsim/internal/config"
	"github.com/roach88/loopsim/internal/telemetry"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is resolved in PersistentPreRunE: the file at ConfigPath, or
	// config.Default() when no file is given.
	Config config.Config

	// Logger writes diagnostics to the command's stderr.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the loopsim CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Config: config.Default()}

	cmd := &cobra.Command{
		Use:   "loopsim",
		Short: "loopsim - event loop simulator",
		Long: `A step-by-step simulator of a single-threaded event loop.

Scenario text is compiled into sync, microtask, macrotask and render
queues, then played one tick at a time. Every tick appends to a frame
log; runs can be recorded to SQLite and replayed to check determinism.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a CUE config file")

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewPresetsCommand(opts))

	return cmd
}

// resolve validates the global flags, loads the config file and installs
// the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	if !isValidFormat(o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	if o.ConfigPath != "" {
		cfg, err := config.Load(o.ConfigPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid config", err)
		}
		o.Config = cfg
	}

	o.Logger = telemetry.Setup(cmd.ErrOrStderr(), telemetry.Options{
		Level:   o.Config.LogLevel,
		Verbose: o.Verbose,
	})
	return nil
}

// logger returns the resolved logger, or a discarding one when a command
// runs without the root (as in unit tests).
func (o *RootOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return telemetry.Discard()
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
