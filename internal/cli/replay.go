package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/loopsim/internal/runner"
	"github.com/roach88/loopsim/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	SessionID      string `json:"session_id"`
	Variant        string `json:"variant"`
	Ticks          int    `json:"ticks"`
	Digest         string `json:"digest"`
	StoredDigest   string `json:"stored_digest"`
	ReplayedDigest string `json:"replayed_digest"`
	Intact         bool   `json:"intact"`
	Deterministic  bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions         []ReplaySessionResult `json:"sessions"`
	TotalSessions    int                   `json:"total_sessions"`
	AllDeterministic bool                  `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-run recorded sessions and verify determinism",
		Long: `Re-run recorded sessions and verify their timeline digests.

For each session, the stored frame log is hashed again (intact) and the
session is re-run from its recorded source or preset (deterministic).
Both must match the digest recorded when the session was saved.

Exit codes:
  0 - All sessions verified
  1 - A stored log was altered or a re-run diverged
  2 - Command error (database not found, etc.)

Examples:
  loopsim replay --db ./loopsim.db
  loopsim replay --db ./loopsim.db --session 0192f7a4-...
  loopsim replay --db ./loopsim.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	r := runner.New(runner.WithLogger(opts.logger()))

	var replays []runner.ReplayResult
	if opts.Session != "" {
		res, err := r.Replay(ctx, st, opts.Session)
		if errors.Is(err, store.ErrSessionNotFound) {
			_ = opts.formatter(cmd).Error(ErrCodeNotFound, err.Error(), nil)
			return WrapExitError(ExitCommandError, "session not found", err)
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", opts.Session), err)
		}
		replays = []runner.ReplayResult{res}
	} else {
		replays, err = r.ReplayAll(ctx, st)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to replay sessions", err)
		}
	}

	result := ReplayResult{
		Sessions:         make([]ReplaySessionResult, 0, len(replays)),
		TotalSessions:    len(replays),
		AllDeterministic: true,
	}
	for _, rr := range replays {
		result.Sessions = append(result.Sessions, ReplaySessionResult{
			SessionID:      rr.Session.ID,
			Variant:        rr.Session.Variant,
			Ticks:          rr.Session.Ticks,
			Digest:         rr.Session.Digest,
			StoredDigest:   rr.StoredDigest,
			ReplayedDigest: rr.ReplayedDigest,
			Intact:         rr.Intact(),
			Deterministic:  rr.Reproduced(),
		})
		if !rr.OK() {
			result.AllDeterministic = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllDeterministic {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeMismatch,
			Message: "replay verification failed",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllDeterministic {
		// Replay mismatch = exit code 1
		return NewExitError(ExitFailure, "replay verification failed")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Intact || !s.Deterministic {
			status = "✗"
		}

		fmt.Fprintf(w, "%s Session: %s\n", status, s.SessionID)
		fmt.Fprintf(w, "  Variant: %s, %d tick(s)\n", s.Variant, s.Ticks)
		if verbose {
			fmt.Fprintf(w, "  Recorded: %s\n", s.Digest)
			fmt.Fprintf(w, "  Stored:   %s\n", s.StoredDigest)
			fmt.Fprintf(w, "  Replayed: %s\n", s.ReplayedDigest)
		}

		if !s.Intact {
			fmt.Fprintln(w, "  Warning: stored frame log does not match its digest!")
		}
		if !s.Deterministic {
			fmt.Fprintln(w, "  Warning: re-run produced a different timeline!")
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All sessions verified")
		return nil
	}

	fmt.Fprintln(w, "✗ Replay verification failed")
	// Replay mismatch = exit code 1
	return NewExitError(ExitFailure, "replay verification failed")
}
