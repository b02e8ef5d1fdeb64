package compiler

import (
	"testing"

	"go.uber.org/goleak"
)

// Patterns carry a match timeout, so regexp2 runs a shared clock goroutine
// that outlives the last match by about a second.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m, goleak.IgnoreAnyFunction("github.com/dlclark/regexp2.runClock"))
}
