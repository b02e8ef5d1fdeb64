package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/loopsim/internal/engine"
	"github.com/roach88/loopsim/internal/observability"
	"github.com/roach88/loopsim/internal/runner"
	"github.com/roach88/loopsim/internal/store"
	"github.com/roach88/loopsim/internal/telemetry"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Preset   string
	Variant  string
	MaxTicks int
	Database string

	// SessionIDs allows overriding the session id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	SessionIDs runner.SessionIDGenerator
}

// RunResult is the output of the run command.
type RunResult struct {
	Session  store.Session          `json:"session"`
	Timeline []engine.FrameLog      `json:"timeline"`
	Metrics  []observability.Sample `json:"metrics"`
	Saved    bool                   `json:"saved"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Compile and play a scenario",
		Long: `Compile scenario text (or seed a built-in preset) and play it tick
by tick until every queue is empty or the tick budget runs out.

Prints the frame log, the timeline digest and task counters. With --db
the session is recorded so it can be traced and replayed later.

Exit codes:
  0 - The loop drained
  1 - Tick budget exhausted or run interrupted
  2 - Command error (unreadable file, bad flag, database error)

Examples:
  loopsim run ./scenario.js
  loopsim run --preset timeout-vs-promise
  loopsim run ./scenario.js --variant base --max-ticks 50
  loopsim run ./scenario.js --db ./loopsim.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runScenarioFile(opts, path, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Preset, "preset", "", "seed a built-in preset instead of reading a file")
	cmd.Flags().StringVar(&opts.Variant, "variant", string(engine.VariantEnhanced), "phase algorithm (enhanced|base)")
	cmd.Flags().IntVar(&opts.MaxTicks, "max-ticks", 1000, "tick budget")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database to record the session")

	return cmd
}

// request builds the runner request from flags, falling back to the config
// file for flags the user did not set.
func (o *RunOptions) request(path string, cmd *cobra.Command) (runner.Request, error) {
	if path != "" && o.Preset != "" {
		return runner.Request{}, errors.New("a file and --preset are mutually exclusive")
	}
	if path == "" && o.Preset == "" {
		return runner.Request{}, errors.New("a file (or - for stdin) or --preset is required")
	}

	variantName := o.Config.Variant
	if cmd.Flags().Changed("variant") || variantName == "" {
		variantName = o.Variant
	}
	variant, err := engine.ParseVariant(variantName)
	if err != nil {
		return runner.Request{}, err
	}

	maxTicks := o.Config.MaxTicks
	if cmd.Flags().Changed("max-ticks") || maxTicks <= 0 {
		maxTicks = o.MaxTicks
	}
	if maxTicks <= 0 {
		return runner.Request{}, fmt.Errorf("--max-ticks must be positive, got %d", maxTicks)
	}

	req := runner.Request{
		Preset:   o.Preset,
		Variant:  variant,
		MaxTicks: maxTicks,
	}
	if path != "" {
		source, err := readSource(path, cmd.InOrStdin())
		if err != nil {
			return runner.Request{}, err
		}
		req.Source = source
	}
	return req, nil
}

func (o *RunOptions) database(cmd *cobra.Command) string {
	if cmd.Flags().Changed("db") {
		return o.Database
	}
	if o.Database != "" {
		return o.Database
	}
	return o.Config.DB
}

func runScenarioFile(opts *RunOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.logger()

	req, err := opts.request(path, cmd)
	if err != nil {
		code := ErrCodeInvalidFlag
		var srcErr *SourceError
		if errors.As(err, &srcErr) {
			code = srcErr.Code
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "invalid run request", err)
	}

	registry := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up metrics", err)
	}

	runOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithObserver(metrics),
	}
	if opts.SessionIDs != nil {
		runOpts = append(runOpts, runner.WithSessionIDs(opts.SessionIDs))
	}
	r := runner.New(runOpts...)

	// Setup signal handling so Ctrl-C stops a long run between ticks
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping", "signal", sig)
			cancel()
		case <-ctx.Done():
			// Run finished or parent context cancelled (e.g., from test)
		}
	}()

	logger.Debug("run starting", "variant", req.Variant, "preset", req.Preset, "max_ticks", req.MaxTicks)
	rec, err := r.Run(ctx, req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
			return WrapExitError(ExitFailure, "run interrupted", err)
		}
		_ = formatter.Error(ErrCodeRunFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to run session", err)
	}
	sessLogger := telemetry.WithSessionID(logger, rec.Session.ID)

	result := RunResult{
		Session:  rec.Session,
		Timeline: rec.Logs(),
	}

	if db := opts.database(cmd); db != "" {
		if err := saveSession(ctx, db, rec); err != nil {
			_ = formatter.Error(ErrCodeStoreFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record session", err)
		}
		result.Saved = true
		sessLogger.Info("session recorded", "db", db, "digest", rec.Session.Digest)
	}

	samples, err := observability.Summary(registry)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to gather metrics", err)
	}
	result.Metrics = samples

	if opts.Format == "json" {
		return outputRunJSON(cmd, result)
	}
	return outputRunText(cmd, result)
}

func saveSession(ctx context.Context, path string, rec runner.Record) error {
	st, err := store.Open(path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer st.Close()

	return runner.Save(ctx, st, rec)
}

// budgetError is returned after the output is written when the run stopped
// on its tick budget.
func budgetError(result RunResult) error {
	if result.Session.Status != store.StatusBudgetExhausted {
		return nil
	}
	return NewExitError(ExitFailure, fmt.Sprintf("tick budget of %d exhausted with tasks pending", result.Session.MaxTicks))
}

// outputRunJSON outputs the run result as JSON.
func outputRunJSON(cmd *cobra.Command, result RunResult) error {
	response := CLIResponse{
		Status:  "ok",
		Data:    result,
		TraceID: result.Session.ID,
	}
	if result.Session.Status == store.StatusBudgetExhausted {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeBudget,
			Message: fmt.Sprintf("tick budget of %d exhausted", result.Session.MaxTicks),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}
	return budgetError(result)
}

// outputRunText outputs the run result as text.
func outputRunText(cmd *cobra.Command, result RunResult) error {
	w := cmd.OutOrStdout()

	for _, l := range result.Timeline {
		fmt.Fprintln(w, l.String())
	}
	fmt.Fprintln(w)

	sess := result.Session
	fmt.Fprintf(w, "session: %s\n", sess.ID)
	fmt.Fprintf(w, "variant: %s\n", sess.Variant)
	fmt.Fprintf(w, "status:  %s\n", sess.Status)
	fmt.Fprintf(w, "ticks:   %d\n", sess.Ticks)
	fmt.Fprintf(w, "digest:  %s\n", sess.Digest)
	if result.Saved {
		fmt.Fprintln(w, "recorded: yes")
	}

	if len(result.Metrics) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "metrics:")
		for _, s := range result.Metrics {
			fmt.Fprintf(w, "  %s\n", s)
		}
	}

	if err := budgetError(result); err != nil {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "✗ %s\n", err)
		return err
	}
	return nil
}
