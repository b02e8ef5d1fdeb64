package engine

// taskQueue is a FIFO of tasks: push appends to the tail, shift removes the
// head.
//
// A taskQueue inside a published LoopState may share its backing array with
// other states, so it is only ever mutated after clone.
type taskQueue []Task

// clone returns a queue with its own backing array.
func (q taskQueue) clone() taskQueue {
	if len(q) == 0 {
		return nil
	}
	out := make(taskQueue, len(q))
	copy(out, q)
	return out
}

func (q *taskQueue) push(t Task) {
	*q = append(*q, t)
}

// shift removes and returns the head task. The queue must be non-empty.
func (q *taskQueue) shift() Task {
	old := *q
	t := old[0]

	// Clear the slot so the action closure can be collected once the task
	// has run; the backing array outlives the dequeue.
	old[0] = Task{}

	if len(old) == 1 {
		*q = old[:0]
	} else {
		*q = old[1:]
	}
	return t
}

func (q taskQueue) len() int {
	return len(q)
}

// tasks returns a copy safe to hand to callers.
func (q taskQueue) tasks() []Task {
	out := make([]Task, len(q))
	copy(out, q)
	return out
}
