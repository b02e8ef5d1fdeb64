package engine

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator mints task ids.
//
// Implementations must return a value never returned before within the
// lifetime of the generator.
type IDGenerator interface {
	NextID() string
}

// SeqIDs is a monotonic counter producing ids "t1", "t2", ...
//
// Thread-safety: NextID is safe for concurrent use (atomic add). The engine's
// single-writer design means one driver normally calls it, but two drivers
// sharing DefaultIDs still never see the same id.
type SeqIDs struct {
	seq atomic.Int64
}

// NewSeqIDs creates a generator whose first id is "t1".
func NewSeqIDs() *SeqIDs {
	return &SeqIDs{}
}

// NewSeqIDsAt creates a generator that continues after start.
// Used to resume numbering when a recorded session is replayed.
func NewSeqIDsAt(start int64) *SeqIDs {
	g := &SeqIDs{}
	g.seq.Store(start)
	return g
}

// NextID increments the counter and returns the id.
func (g *SeqIDs) NextID() string {
	return "t" + strconv.FormatInt(g.seq.Add(1), 10)
}

// Current returns the last issued sequence number without incrementing.
func (g *SeqIDs) Current() int64 {
	return g.seq.Load()
}

// DefaultIDs is the process-wide task id counter.
//
// It starts at process start and is never reset, so task ids are unique for
// the process lifetime. Engines built without WithIDs share it.
var DefaultIDs = NewSeqIDs()
