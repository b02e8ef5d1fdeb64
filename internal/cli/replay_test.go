package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopsim/internal/store"
)

func TestReplayNonExistentDatabase(t *testing.T) {
	_, _, err := executeCommand(t, "replay", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestReplayEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := executeCommand(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found in database.")
}

func TestReplayAllSessions(t *testing.T) {
	db := recordedDB(t)

	out, _, err := executeCommand(t, "replay", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Replay Summary: 2 session(s)")
	assert.Contains(t, out, "✓ Session: s1")
	assert.Contains(t, out, "✓ Session: s2")
	assert.Contains(t, out, "✓ All sessions verified")
}

func TestReplaySpecificSessionJSON(t *testing.T) {
	db := recordedDB(t)

	out, _, err := executeCommand(t, "--format", "json", "replay", "--db", db, "--session", "s2")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReplayResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data.Sessions, 1)

	s := resp.Data.Sessions[0]
	assert.Equal(t, "s2", s.SessionID)
	assert.True(t, s.Intact)
	assert.True(t, s.Deterministic)
	assert.Equal(t, s.Digest, s.StoredDigest)
	assert.Equal(t, s.Digest, s.ReplayedDigest)
}

func TestReplayDetectsTamperedLog(t *testing.T) {
	db := recordedDB(t)

	st, err := store.Open(db)
	require.NoError(t, err)
	_, err = st.DB().Exec(`UPDATE frame_logs SET detail = 'tampered' WHERE session_id = 's1' AND action = 'run'`)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	out, _, err := executeCommand(t, "--verbose", "replay", "--db", db)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Session: s1")
	assert.Contains(t, out, "stored frame log does not match its digest")
	assert.Contains(t, out, "✓ Session: s2")
	assert.Contains(t, out, "✗ Replay verification failed")
}

func TestReplayUnknownSession(t *testing.T) {
	db := recordedDB(t)

	_, _, err := executeCommand(t, "replay", "--db", db, "--session", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}
