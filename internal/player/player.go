// Package player drives an engine headlessly, the way the interactive
// autoplay does: step, check for a drained loop, repeat.
package player

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/loopsim/internal/engine"
)

// Options configures Play.
type Options struct {
	// MaxTicks bounds the run. Zero means DefaultMaxTicks.
	MaxTicks int

	// OnTick is called after every step with the new state.
	OnTick func(engine.LoopState)

	// Logger receives per-run debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// Result is the outcome of a Play call.
type Result struct {
	Final engine.LoopState

	// History holds every state from the starting state to Final, one per
	// tick. It backs step-back and replay.
	History []engine.LoopState

	Ticks int
}

// Timeline returns the final frame log.
func (r Result) Timeline() []engine.FrameLog {
	return r.Final.Logs()
}

// Play steps eng from start until a step leaves nothing to run, the tick
// budget is exhausted, or ctx is cancelled.
//
// The stop check runs after each step, so Play always steps at least once.
// On budget exhaustion or cancellation the partial Result is returned along
// with the error.
func Play(ctx context.Context, eng *engine.Engine, start engine.LoopState, opts Options) (Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := newBudget(opts.MaxTicks)

	res := Result{
		Final:   start,
		History: []engine.LoopState{start},
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("play cancelled after %d ticks: %w", res.Ticks, err)
		}
		if err := b.spend(res.Final); err != nil {
			logger.Warn("tick budget exhausted",
				"ticks", res.Ticks,
				"limit", b.limit,
				"pending", res.Final.Pending(),
			)
			return res, err
		}

		next := eng.Step(res.Final)
		res.Final = next
		res.History = append(res.History, next)
		res.Ticks++

		if opts.OnTick != nil {
			opts.OnTick(next)
		}

		if eng.Drained(next) {
			logger.Debug("loop drained",
				"ticks", res.Ticks,
				"tick", next.Tick(),
				"logs", len(next.Logs()),
			)
			return res, nil
		}
	}
}

// StepN steps eng exactly n times and returns every intermediate state,
// starting with s. n <= 0 returns just s.
func StepN(eng *engine.Engine, s engine.LoopState, n int) []engine.LoopState {
	out := []engine.LoopState{s}
	for i := 0; i < n; i++ {
		s = eng.Step(s)
		out = append(out, s)
	}
	return out
}
