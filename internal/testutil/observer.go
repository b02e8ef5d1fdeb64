// Package testutil holds helpers shared by package tests.
package testutil

import (
	"sync"

	"github.com/roach88/loopsim/internal/engine"
)

// RecordingObserver is an engine.Observer that counts every callback.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type RecordingObserver struct {
	mu        sync.Mutex
	ran       map[engine.QueueType]int
	failures  []error
	workTicks int
	idleTicks int
}

// NewRecordingObserver creates an observer with zeroed counts.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{ran: make(map[engine.QueueType]int)}
}

// TaskRan implements engine.Observer.
func (o *RecordingObserver) TaskRan(q engine.QueueType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ran[q]++
}

// TaskFailed implements engine.Observer.
func (o *RecordingObserver) TaskFailed(_ engine.QueueType, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, err)
}

// Ticked implements engine.Observer.
func (o *RecordingObserver) Ticked(idle bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if idle {
		o.idleTicks++
	} else {
		o.workTicks++
	}
}

// Ran returns how many tasks from q completed.
func (o *RecordingObserver) Ran(q engine.QueueType) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ran[q]
}

// Failures returns a copy of the reported task errors in order.
func (o *RecordingObserver) Failures() []error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]error(nil), o.failures...)
}

// Ticks returns the number of work and idle ticks seen.
func (o *RecordingObserver) Ticks() (work, idle int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.workTicks, o.idleTicks
}

// Reset zeroes every count so the observer can be reused.
func (o *RecordingObserver) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ran = make(map[engine.QueueType]int)
	o.failures = nil
	o.workTicks = 0
	o.idleTicks = 0
}
