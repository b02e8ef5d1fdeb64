package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/loopsim/internal/engine"
)

// Session status values.
const (
	StatusDrained         = "drained"
	StatusBudgetExhausted = "budget_exhausted"
)

// Session is one recorded run.
type Session struct {
	ID       string `json:"id"`
	Variant  string `json:"variant"`
	Source   string `json:"source,omitempty"`
	Preset   string `json:"preset,omitempty"`
	MaxTicks int    `json:"max_ticks"`
	Ticks    int    `json:"ticks"`
	Status   string `json:"status"`
	Digest   string `json:"digest"`
	Seq      int64  `json:"seq"`
}

// WriteSession stores sess and its frame log in one transaction.
//
// Writes are idempotent on the session id: writing an id that already
// exists is a no-op and the stored logs are kept. sess.Seq is ignored and
// assigned by the database.
func (s *Store) WriteSession(ctx context.Context, sess Session, logs []engine.FrameLog) error {
	if sess.ID == "" {
		return errors.New("write session: empty id")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write session: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
		INSERT INTO sessions
		(id, variant, source, preset, max_ticks, ticks, status, digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sess.ID,
		sess.Variant,
		sess.Source,
		sess.Preset,
		sess.MaxTicks,
		sess.Ticks,
		sess.Status,
		sess.Digest,
	)
	if err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("write session %s: %w", sess.ID, err)
	}
	if inserted == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO frame_logs (session_id, seq, tick, action, detail)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write session %s: prepare logs: %w", sess.ID, err)
	}
	defer stmt.Close()

	for i, l := range logs {
		if _, err := stmt.ExecContext(ctx, sess.ID, i+1, l.Tick, string(l.Action), l.Detail); err != nil {
			return fmt.Errorf("write session %s: log %d: %w", sess.ID, i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write session %s: commit: %w", sess.ID, err)
	}
	return nil
}
