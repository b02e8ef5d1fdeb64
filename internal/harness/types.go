package harness

import "github.com/roach88/loopsim/internal/engine"

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every queue expectation and assertion held.
	Pass bool `json:"pass"`

	Variant  string            `json:"variant"`
	Status   string            `json:"status"`
	Ticks    int               `json:"ticks"`
	Digest   string            `json:"digest"`
	Timeline []engine.FrameLog `json:"timeline"`

	// Errors holds one message per failed check. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	final engine.LoopState
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Timeline: []engine.FrameLog{},
		Errors:   []string{},
	}
}

// AddError records a failed check and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Final returns the state the run ended in.
func (r *Result) Final() engine.LoopState {
	return r.final
}
