package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/loopsim/internal/runner"
)

const orderingSource = `console.log('A');
setTimeout(() => { console.log('B'); }, 0);
Promise.resolve().then(() => { console.log('C'); });
console.log('D');
`

// executeCommand runs the root command with args and returns stdout and
// stderr.
func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// writeFile writes content to name inside a fresh temp dir.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// recordSession runs args through the run command with a fixed session id.
func recordSession(t *testing.T, id string, args ...string) string {
	t.Helper()

	buf := &bytes.Buffer{}
	cmd := newRunCommand(&RunOptions{
		RootOptions: &RootOptions{Format: "text"},
		SessionIDs:  runner.NewFixedGenerator(id),
	})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute(), buf.String())
	return buf.String()
}
