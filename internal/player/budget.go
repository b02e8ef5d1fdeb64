package player

import "github.com/roach88/loopsim/internal/engine"

// DefaultMaxTicks bounds a Play call when Options.MaxTicks is zero.
const DefaultMaxTicks = 1000

// budget counts ticks and enforces the per-run limit.
//
// A scenario whose tasks keep re-enqueueing macrotasks never drains; the
// budget turns that into a TickBudgetError instead of an endless loop.
type budget struct {
	limit   int
	current int
}

func newBudget(limit int) *budget {
	if limit <= 0 {
		limit = DefaultMaxTicks
	}
	return &budget{limit: limit}
}

// spend records one tick. It fails once the limit has been used up, before
// the tick runs.
func (b *budget) spend(s engine.LoopState) error {
	if b.current >= b.limit {
		return &engine.TickBudgetError{
			Ticks:   b.current,
			Limit:   b.limit,
			Pending: s.Pending(),
		}
	}
	b.current++
	return nil
}
