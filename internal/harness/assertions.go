package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/loopsim/internal/engine"
)

// AssertionError is returned when an assertion fails.
// It includes the full timeline to help debug the failure.
type AssertionError struct {
	Type     string            // Assertion type for categorization
	Expected string            // Human-readable expected outcome
	Actual   string            // Human-readable actual outcome
	Timeline []engine.FrameLog // Full timeline for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull timeline:\n")
	for _, l := range e.Timeline {
		fmt.Fprintf(&buf, "  %s\n", l)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against res and returns one
// message per failure.
func EvaluateAssertions(res *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(res, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(res *Result, a Assertion) error {
	switch a.Type {
	case AssertTimelineOrder:
		return assertTimelineOrder(res.Timeline, a)
	case AssertLogCount:
		return assertLogCount(res.Timeline, a)
	case AssertFinalTick:
		return assertFinalTick(res, a)
	case AssertNoErrors:
		return assertNoErrors(res.Timeline)
	case AssertStatus:
		return assertStatus(res, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTimelineOrder checks that the entries appear as a subsequence of the
// rendered timeline. Intervening entries are allowed.
func assertTimelineOrder(timeline []engine.FrameLog, a Assertion) error {
	next := 0
	for _, l := range timeline {
		if next < len(a.Entries) && l.String() == a.Entries[next] {
			next++
		}
	}
	if next == len(a.Entries) {
		return nil
	}

	actual := fmt.Sprintf("missing or out of order: %q", a.Entries[next])
	if next > 0 {
		actual = fmt.Sprintf("%s (after %q)", actual, a.Entries[next-1])
	}
	return &AssertionError{
		Type:     AssertTimelineOrder,
		Expected: fmt.Sprintf("entries in order: %q", a.Entries),
		Actual:   actual,
		Timeline: timeline,
	}
}

// assertLogCount checks that exactly Count entries match Action and, when
// set, Detail.
func assertLogCount(timeline []engine.FrameLog, a Assertion) error {
	count := 0
	for _, l := range timeline {
		if string(l.Action) != a.Action {
			continue
		}
		if a.Detail != "" && l.Detail != a.Detail {
			continue
		}
		count++
	}
	if count == a.Count {
		return nil
	}

	what := a.Action
	if a.Detail != "" {
		what = fmt.Sprintf("%s %s", a.Action, a.Detail)
	}
	return &AssertionError{
		Type:     AssertLogCount,
		Expected: fmt.Sprintf("%d entries of %q", a.Count, what),
		Actual:   fmt.Sprintf("%d entries", count),
		Timeline: timeline,
	}
}

func assertFinalTick(res *Result, a Assertion) error {
	if got := res.final.Tick(); got != a.Tick {
		return &AssertionError{
			Type:     AssertFinalTick,
			Expected: fmt.Sprintf("final tick %d", a.Tick),
			Actual:   fmt.Sprintf("final tick %d", got),
			Timeline: res.Timeline,
		}
	}
	return nil
}

func assertNoErrors(timeline []engine.FrameLog) error {
	var failures []string
	for _, l := range timeline {
		if l.Action == engine.LogError {
			failures = append(failures, l.String())
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertNoErrors,
		Expected: "no error entries",
		Actual:   strings.Join(failures, "; "),
		Timeline: timeline,
	}
}

func assertStatus(res *Result, a Assertion) error {
	if res.Status != a.Status {
		return &AssertionError{
			Type:     AssertStatus,
			Expected: fmt.Sprintf("status %s", a.Status),
			Actual:   fmt.Sprintf("status %s", res.Status),
			Timeline: res.Timeline,
		}
	}
	return nil
}

// checkQueues compares the seeded state against the expectation.
func checkQueues(initial engine.LoopState, want QueueExpectation) []string {
	var errs []string
	for _, q := range engine.QueueTypes {
		expected := want.byQueue()[q]
		got := engine.Labels(initial.Queue(q))
		if !slices.Equal(expected, got) {
			errs = append(errs, fmt.Sprintf("queues.%s: expected %q, got %q", q.Prefix(), expected, got))
		}
	}
	return errs
}
