package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/loopsim/internal/compiler"
	"github.com/roach88/loopsim/internal/digest"
	"github.com/roach88/loopsim/internal/engine"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled queues.
type CompilationResult struct {
	Path         string          `json:"path"`
	SourceDigest string          `json:"source_digest"`
	Lines        []compiler.Line `json:"lines,omitempty"`
	State        engine.Snapshot `json:"state"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	TaskCount  int
	QueueSizes map[engine.QueueType]int
	LineCount  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <file|->",
		Short: "Compile scenario text into loop queues",
		Long: `Compile scenario text into the initial loop state.

Each console.log call becomes a task on the queue of its enclosing
context: setTimeout(..., 0) is a macrotask, Promise.then and
queueMicrotask are microtasks, requestAnimationFrame is a render task,
anything else is synchronous. Use "-" to read from stdin.

Examples:
  loopsim compile ./scenario.js
  loopsim compile ./scenario.js --verbose
  cat scenario.js | loopsim compile - --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the compiled state as JSON to this file")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	source, err := readSource(path, cmd.InOrStdin())
	if err != nil {
		return outputCompileError(formatter, sourceErrorCode(err), err.Error(), nil)
	}

	sum, err := digest.Source(source)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	eng := engine.New(
		engine.WithIDs(engine.NewSeqIDs()),
		engine.WithLogger(opts.logger()),
	)
	c := compiler.ForEngine(eng, compiler.WithLogger(opts.logger()))

	lines := c.Analyze(source)
	for _, l := range lines {
		if l.Queued() {
			formatter.VerboseLog("line %d: %s -> %s", l.Number, l.Label, l.Context)
		}
	}

	state := c.Compile(source, engine.InitialState())

	result := &CompilationResult{
		Path:         path,
		SourceDigest: sum,
		Lines:        lines,
		State:        state.Snapshot(),
	}
	stats := calculateStats(state, lines)

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeStateToFile(result, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeGeneric, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, state, stats, opts.Output)
}

// calculateStats computes summary statistics for a compiled state.
func calculateStats(state engine.LoopState, lines []compiler.Line) CompilationStats {
	stats := CompilationStats{
		TaskCount:  state.Pending(),
		QueueSizes: make(map[engine.QueueType]int, len(engine.QueueTypes)),
		LineCount:  len(lines),
	}
	for _, q := range engine.QueueTypes {
		stats.QueueSizes[q] = state.Len(q)
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, state engine.LoopState, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d task(s) from %d line(s)\n\n", stats.TaskCount, stats.LineCount)

	for _, q := range engine.QueueTypes {
		tasks := state.Queue(q)
		fmt.Fprintf(formatter.Writer, "%s (%d):\n", q.Prefix(), stats.QueueSizes[q])
		for _, t := range tasks {
			fmt.Fprintf(formatter.Writer, "  %s %s\n", t.ID, t.Label)
		}
	}
	fmt.Fprintln(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "source digest: %s\n", result.SourceDigest)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote compiled state to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details interface{}) error {
	_ = formatter.Error(code, message, details)
	// Unreadable input is a command-level error (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// writeStateToFile writes the compilation result to a file as indented JSON.
func writeStateToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling state: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
