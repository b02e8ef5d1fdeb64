package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/loopsim/internal/engine"
)

// Domain prefixes. The version suffix allows the encoding to change without
// colliding with old digests.
const (
	DomainTimeline = "loopsim/timeline/v1"
	DomainSource   = "loopsim/source/v1"
)

// hashWithDomain returns hex(SHA256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Timeline fingerprints a run: its variant and every frame log entry.
// Task ids never appear in logs, so the digest is stable across processes.
func Timeline(variant engine.Variant, logs []engine.FrameLog) (string, error) {
	entries := make([]any, len(logs))
	for i, l := range logs {
		entry := map[string]any{
			"tick":   l.Tick,
			"action": string(l.Action),
		}
		if l.Detail != "" {
			entry["detail"] = l.Detail
		}
		entries[i] = entry
	}

	canonical, err := Canonical(map[string]any{
		"variant": string(variant),
		"logs":    entries,
	})
	if err != nil {
		return "", fmt.Errorf("timeline digest: %w", err)
	}
	return hashWithDomain(DomainTimeline, canonical), nil
}

// Source fingerprints scenario text after NFC normalization.
func Source(text string) (string, error) {
	canonical, err := Canonical(text)
	if err != nil {
		return "", fmt.Errorf("source digest: %w", err)
	}
	return hashWithDomain(DomainSource, canonical), nil
}
