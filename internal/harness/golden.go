package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTimeline renders a run as golden file text: a short header followed
// by one timeline entry per line.
func RenderTimeline(name string, res *Result) []byte {
	var buf strings.Builder
	fmt.Fprintf(&buf, "scenario: %s\n", name)
	fmt.Fprintf(&buf, "variant: %s\n", res.Variant)
	fmt.Fprintf(&buf, "status: %s\n", res.Status)
	fmt.Fprintf(&buf, "ticks: %d\n", res.Ticks)
	buf.WriteString("\n")
	for _, l := range res.Timeline {
		buf.WriteString(l.String())
		buf.WriteString("\n")
	}
	return []byte(buf.String())
}

// RunWithGolden executes a scenario and compares the timeline against a
// golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the timeline doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, RenderTimeline(name, result))
}
