package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/loopsim/internal/engine"
)

// ErrSessionNotFound is returned when a session id is not in the store.
var ErrSessionNotFound = errors.New("session not found")

const sessionColumns = `seq, id, variant, source, preset, max_ticks, ticks, status, digest`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(r rowScanner) (Session, error) {
	var sess Session
	err := r.Scan(
		&sess.Seq,
		&sess.ID,
		&sess.Variant,
		&sess.Source,
		&sess.Preset,
		&sess.MaxTicks,
		&sess.Ticks,
		&sess.Status,
		&sess.Digest,
	)
	return sess, err
}

// ReadSession returns the session with the given id.
func (s *Store) ReadSession(ctx context.Context, id string) (Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("read session %s: %w", id, ErrSessionNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session %s: %w", id, err)
	}
	return sess, nil
}

// ListSessions returns every session in insertion order.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("list sessions: scan: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// FindSessionsByDigest returns every session whose timeline digest equals
// digest, in insertion order.
func (s *Store) FindSessionsByDigest(ctx context.Context, digest string) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sessionColumns+`
		FROM sessions
		WHERE digest = ?
		ORDER BY seq ASC
	`, digest)
	if err != nil {
		return nil, fmt.Errorf("find sessions by digest: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("find sessions by digest: scan: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// ReadFrameLogs returns the frame log of session id in timeline order. A
// session with no logs, or an unknown id, yields an empty slice.
func (s *Store) ReadFrameLogs(ctx context.Context, id string) ([]engine.FrameLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tick, action, detail
		FROM frame_logs
		WHERE session_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("read frame logs %s: %w", id, err)
	}
	defer rows.Close()

	out := []engine.FrameLog{}
	for rows.Next() {
		var (
			l      engine.FrameLog
			action string
		)
		if err := rows.Scan(&l.Tick, &action, &l.Detail); err != nil {
			return nil, fmt.Errorf("read frame logs %s: scan: %w", id, err)
		}
		l.Action = engine.LogAction(action)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read frame logs %s: %w", id, err)
	}
	return out, nil
}
