// Package engine implements the loopsim phase scheduler.
//
// The engine models the execution order of a cooperative, browser-style event
// loop. State is an immutable LoopState value; Step derives the next value by
// advancing exactly one tick.
//
// ARCHITECTURE:
//
// Pull-Based Single Writer:
// Nothing runs unless a driver calls Step. There are no goroutines, timers or
// background work inside the engine. A single driver owns the sequence of
// states and is the only caller of Step for that sequence.
//
// Tick Phases (enhanced variant):
//  1. Script drain: every queued sync task runs, FIFO.
//  2. Microtask drain: every microtask runs, including microtasks enqueued by
//     microtasks during the same phase.
//  3. One macrotask.
//  4. One render task.
//
// The base variant skips the script phase and never records a last-run id.
//
// Staging:
// A LoopState is never mutated after it has been returned to a caller. All
// mutation goes through a Builder, a private deep copy that is sealed once it
// is published. Task actions receive the Builder of the tick they run in, so
// anything they enqueue lands in the state that Step is about to return.
//
// Identity:
// Task ids come from an IDGenerator owned by the Engine. The process-wide
// DefaultIDs counter is never reset mid-run, so ids are unique for the
// lifetime of the process.
//
// Failure Containment:
// An action that returns an error or panics is recorded as an "error" frame
// log. Sibling tasks and later phases still run; nothing is fatal to the
// engine.
package engine
