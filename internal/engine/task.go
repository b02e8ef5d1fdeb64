package engine

import "fmt"

// QueueType is the category of a Task. It decides which queue holds the task
// and in which phase it runs.
type QueueType string

const (
	QueueSync      QueueType = "sync"
	QueueMicrotask QueueType = "microtask"
	QueueMacrotask QueueType = "macrotask"
	QueueRender    QueueType = "render"
)

// QueueTypes lists every category in phase order.
var QueueTypes = []QueueType{QueueSync, QueueMicrotask, QueueMacrotask, QueueRender}

// Prefix returns the short tag used in run log details, e.g. "[micro] label".
func (q QueueType) Prefix() string {
	switch q {
	case QueueSync:
		return "sync"
	case QueueMicrotask:
		return "micro"
	case QueueMacrotask:
		return "macro"
	case QueueRender:
		return "render"
	default:
		return string(q)
	}
}

// Valid reports whether q is one of the four known categories.
func (q QueueType) Valid() bool {
	switch q {
	case QueueSync, QueueMicrotask, QueueMacrotask, QueueRender:
		return true
	}
	return false
}

// ParseQueueType accepts both the full names ("microtask") and the short
// prefixes ("micro").
func ParseQueueType(s string) (QueueType, error) {
	for _, q := range QueueTypes {
		if s == string(q) || s == q.Prefix() {
			return q, nil
		}
	}
	return "", fmt.Errorf("unknown queue type %q", s)
}

// Action is the deferred work carried by a Task.
//
// The Builder is the staging state of the tick the task runs in. Tasks
// enqueued through it are visible to later phases of the same tick (for
// microtasks) or wait for later ticks (macrotasks and render tasks).
// Returning an error or panicking records an "error" frame log; it never
// aborts the tick.
//
// A nil Action is a no-op.
type Action func(b *Builder) error

// Task is a unit of deferred work.
//
// Tasks are immutable once created. A task is held by exactly one queue until
// it is dequeued and executed, then discarded.
type Task struct {
	ID            string
	Label         string
	Type          QueueType
	Action        Action
	CreatedAtTick int
}

// MakeTask creates a Task with a fresh id from ids.
func MakeTask(ids IDGenerator, label string, typ QueueType, action Action, tick int) Task {
	return Task{
		ID:            ids.NextID(),
		Label:         label,
		Type:          typ,
		Action:        action,
		CreatedAtTick: tick,
	}
}

// Noop is an Action that does nothing. The scenario compiler queues it as the
// placeholder behind every recognized print call.
func Noop(*Builder) error { return nil }
