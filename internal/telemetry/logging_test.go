package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("loud"))
}

func TestNewLogger_DefaultsToTextInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Options{Getenv: env(nil)})

	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "msg=shown")
	assert.Contains(t, out, "k=v")
}

func TestNewLogger_EnvJSONDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Options{Getenv: env(map[string]string{
		"LOG_LEVEL":  "DEBUG",
		"LOG_FORMAT": "json",
	})})

	logger.Debug("dbg")

	assert.Contains(t, buf.String(), `"msg":"dbg"`)
}

func TestNewLogger_OptionsOverrideEnv(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Options{
		Level:  "error",
		Format: "text",
		Getenv: env(map[string]string{"LOG_LEVEL": "DEBUG", "LOG_FORMAT": "json"}),
	})

	logger.Warn("dropped")
	logger.Error("kept")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "msg=kept")
}

func TestNewLogger_VerboseWins(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Options{Level: "error", Verbose: true, Getenv: env(nil)})

	logger.Debug("dbg")

	assert.Contains(t, buf.String(), "msg=dbg")
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Options{Getenv: env(nil)})

	ctx := WithLogger(context.Background(), WithSessionID(logger, "s-1"))
	FromContext(ctx).Info("hello")

	assert.Contains(t, buf.String(), "session_id=s-1")
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
