package testutil

import (
	"io"
	"log/slog"

	"github.com/roach88/loopsim/internal/engine"
)

// Lines renders logs one timeline line per entry, e.g. "#1 run [sync] A".
func Lines(logs []engine.FrameLog) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.String()
	}
	return out
}

// QuietLogger returns a logger that drops everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
