package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/loopsim/internal/engine"
	"github.com/roach88/loopsim/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string
	Digest   string // optional - list sessions with this timeline digest
	Action   string // optional - filter to specific log action
}

// TraceStats holds summary statistics for a traced session.
type TraceStats struct {
	TotalEntries int `json:"total_entries"`
	Runs         int `json:"runs"`
	Renders      int `json:"renders"`
	Errors       int `json:"errors"`
	IdleTicks    int `json:"idle_ticks"`
}

// TraceResult holds the trace output for one session.
type TraceResult struct {
	Session  store.Session     `json:"session"`
	Timeline []engine.FrameLog `json:"timeline"`
	Stats    TraceStats        `json:"stats"`
}

// SessionList holds the trace output when no session is selected.
type SessionList struct {
	Sessions []store.Session `json:"sessions"`
	Total    int             `json:"total"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show recorded sessions and their frame logs",
		Long: `Show the frame log of a recorded session.

Without --session, lists every recorded session in insertion order.
With --digest, lists only sessions whose timeline has that digest.

Examples:
  loopsim trace --db ./loopsim.db
  loopsim trace --db ./loopsim.db --session 0192f7a4-...
  loopsim trace --db ./loopsim.db --session 0192f7a4-... --action run
  loopsim trace --db ./loopsim.db --digest 3f1a... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session id to trace")
	cmd.Flags().StringVar(&opts.Digest, "digest", "", "list sessions with this timeline digest")
	cmd.Flags().StringVar(&opts.Action, "action", "", "filter to a log action (run, render, error, ...)")

	return cmd
}

// openExistingStore opens the database at path without creating it.
func openExistingStore(path string) (*store.Store, error) {
	st, err := store.OpenExisting(path)
	if errors.Is(err, store.ErrNoDatabase) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: database not found: %s", ErrCodeNotFound, path))
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	if opts.Session == "" {
		return listSessions(ctx, opts, st, cmd)
	}

	sess, err := st.ReadSession(ctx, opts.Session)
	if errors.Is(err, store.ErrSessionNotFound) {
		_ = opts.formatter(cmd).Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "session not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	logs, err := st.ReadFrameLogs(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read frame logs", err)
	}

	timeline := filterTimeline(logs, engine.LogAction(opts.Action))
	result := TraceResult{
		Session:  sess,
		Timeline: timeline,
		Stats:    traceStats(timeline),
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

func listSessions(ctx context.Context, opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	var (
		sessions []store.Session
		err      error
	)
	if opts.Digest != "" {
		sessions, err = st.FindSessionsByDigest(ctx, opts.Digest)
	} else {
		sessions, err = st.ListSessions(ctx)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}
	if sessions == nil {
		sessions = []store.Session{}
	}

	result := SessionList{Sessions: sessions, Total: len(sessions)}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	for _, s := range sessions {
		origin := s.Preset
		if origin == "" {
			origin = "source"
		}
		fmt.Fprintf(w, "%s  %-8s  %-16s  %4d tick(s)  %s\n", s.ID, s.Variant, s.Status, s.Ticks, origin)
	}
	fmt.Fprintf(w, "\n%d session(s)\n", len(sessions))
	return nil
}

// filterTimeline keeps entries with the given action. An empty action keeps
// everything.
func filterTimeline(logs []engine.FrameLog, action engine.LogAction) []engine.FrameLog {
	if action == "" {
		return logs
	}
	out := []engine.FrameLog{}
	for _, l := range logs {
		if l.Action == action {
			out = append(out, l)
		}
	}
	return out
}

func traceStats(timeline []engine.FrameLog) TraceStats {
	stats := TraceStats{TotalEntries: len(timeline)}
	for _, l := range timeline {
		switch l.Action {
		case engine.LogRun:
			stats.Runs++
		case engine.LogRender:
			stats.Renders++
		case engine.LogError:
			stats.Errors++
		case engine.LogIdle:
			stats.IdleTicks++
		}
	}
	return stats
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status:  "ok",
		Data:    result,
		TraceID: result.Session.ID,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()
	sess := result.Session

	fmt.Fprintf(w, "Session: %s\n", sess.ID)
	fmt.Fprintf(w, "Variant: %s  Status: %s  Ticks: %d\n", sess.Variant, sess.Status, sess.Ticks)
	if sess.Preset != "" {
		fmt.Fprintf(w, "Preset: %s\n", sess.Preset)
	}
	if verbose {
		fmt.Fprintf(w, "Digest: %s\n", sess.Digest)
		if sess.Source != "" {
			fmt.Fprintln(w, "Source:")
			fmt.Fprintln(w, sess.Source)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no entries)")
	}
	for _, l := range result.Timeline {
		fmt.Fprintf(w, "  %s\n", l)
	}
	fmt.Fprintln(w)

	s := result.Stats
	fmt.Fprintf(w, "Stats: %d entries, %d run(s), %d render(s), %d error(s), %d idle\n",
		s.TotalEntries, s.Runs, s.Renders, s.Errors, s.IdleTicks)
	return nil
}
