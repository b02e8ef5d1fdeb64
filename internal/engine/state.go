package engine

import "fmt"

// LogAction tags a FrameLog entry.
type LogAction string

const (
	LogScriptDrain     LogAction = "script:drain"
	LogMicrotasksDrain LogAction = "microtasks:drain"
	LogRun             LogAction = "run"
	LogRender          LogAction = "render"
	LogIdle            LogAction = "idle"
	LogError           LogAction = "error"
)

// FrameLog is one entry of the append-only audit trail.
type FrameLog struct {
	Tick   int       `json:"tick" yaml:"tick"`
	Action LogAction `json:"action" yaml:"action"`
	Detail string    `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// String renders the entry as a timeline line: "#3 run [macro] label".
func (l FrameLog) String() string {
	if l.Detail == "" {
		return fmt.Sprintf("#%d %s", l.Tick, l.Action)
	}
	return fmt.Sprintf("#%d %s %s", l.Tick, l.Action, l.Detail)
}

// LoopState is an immutable snapshot of the simulated event loop.
//
// The zero value is the initial state. Accessors return copies; the only way
// to derive a different state is through a Builder (Engine.Step,
// Engine.Builder, NewBuilder).
type LoopState struct {
	tick      int
	running   bool
	callStack []string

	syncQueue   taskQueue
	microtasks  taskQueue
	macrotasks  taskQueue
	renderQueue taskQueue

	logs      []FrameLog
	wasIdle   bool
	lastRunID string
}

// InitialState returns the state at tick 0 with every queue empty.
func InitialState() LoopState {
	return LoopState{}
}

// Tick returns the simulated clock.
func (s LoopState) Tick() int { return s.tick }

// Running returns the player flag carried for the presentation layer.
func (s LoopState) Running() bool { return s.running }

// WasIdle reports whether the last Step found every queue empty.
func (s LoopState) WasIdle() bool { return s.wasIdle }

// LastRunID returns the id of the last task executed by the most recent Step.
func (s LoopState) LastRunID() (string, bool) {
	return s.lastRunID, s.lastRunID != ""
}

// CallStack returns the labels of the currently executing tasks, outermost
// first. It is always empty on a published state.
func (s LoopState) CallStack() []string {
	out := make([]string, len(s.callStack))
	copy(out, s.callStack)
	return out
}

// Queue returns a copy of the queue holding tasks of type q.
func (s LoopState) Queue(q QueueType) []Task {
	return s.queue(q).tasks()
}

// SyncQueue returns a copy of the script queue.
func (s LoopState) SyncQueue() []Task { return s.syncQueue.tasks() }

// Microtasks returns a copy of the microtask queue.
func (s LoopState) Microtasks() []Task { return s.microtasks.tasks() }

// Macrotasks returns a copy of the macrotask queue.
func (s LoopState) Macrotasks() []Task { return s.macrotasks.tasks() }

// RenderQueue returns a copy of the render queue.
func (s LoopState) RenderQueue() []Task { return s.renderQueue.tasks() }

// Len returns the number of tasks waiting in queue q.
func (s LoopState) Len(q QueueType) int {
	return s.queue(q).len()
}

// Pending returns the number of tasks waiting across all four queues.
func (s LoopState) Pending() int {
	return s.syncQueue.len() + s.microtasks.len() + s.macrotasks.len() + s.renderQueue.len()
}

// Logs returns a copy of the frame log.
func (s LoopState) Logs() []FrameLog {
	out := make([]FrameLog, len(s.logs))
	copy(out, s.logs)
	return out
}

// Cleared returns a state with the same tick, running flag and logs but with
// every queue and the call stack emptied, the idle flag reset and no last-run
// id. It is the starting point of a fresh scenario compile.
func (s LoopState) Cleared() LoopState {
	logs := make([]FrameLog, len(s.logs))
	copy(logs, s.logs)
	return LoopState{
		tick:    s.tick,
		running: s.running,
		logs:    logs,
	}
}

// queue maps a category to its queue. Unknown categories map to the script
// queue.
func (s *LoopState) queue(q QueueType) *taskQueue {
	switch q {
	case QueueMicrotask:
		return &s.microtasks
	case QueueMacrotask:
		return &s.macrotasks
	case QueueRender:
		return &s.renderQueue
	default:
		return &s.syncQueue
	}
}

// clone deep-copies every slice so the result can be mutated freely.
func (s LoopState) clone() LoopState {
	c := s
	c.callStack = append([]string(nil), s.callStack...)
	c.syncQueue = s.syncQueue.clone()
	c.microtasks = s.microtasks.clone()
	c.macrotasks = s.macrotasks.clone()
	c.renderQueue = s.renderQueue.clone()
	c.logs = append([]FrameLog(nil), s.logs...)
	return c
}

// TaskView is the serializable form of a Task.
type TaskView struct {
	ID            string `json:"id" yaml:"id"`
	Label         string `json:"label" yaml:"label"`
	Type          string `json:"type" yaml:"type"`
	CreatedAtTick int    `json:"created_at_tick" yaml:"created_at_tick"`
}

// Snapshot is the read-only, serializable view of a LoopState consumed by
// the CLI and the harness.
type Snapshot struct {
	Tick        int        `json:"tick"`
	Running     bool       `json:"running"`
	CallStack   []string   `json:"call_stack"`
	SyncQueue   []TaskView `json:"sync_queue"`
	Microtasks  []TaskView `json:"microtasks"`
	Macrotasks  []TaskView `json:"macrotasks"`
	RenderQueue []TaskView `json:"render_queue"`
	Logs        []FrameLog `json:"logs"`
	WasIdle     bool       `json:"was_idle"`
	LastRunID   string     `json:"last_run_id,omitempty"`
}

// Snapshot returns the serializable view of s.
func (s LoopState) Snapshot() Snapshot {
	return Snapshot{
		Tick:        s.tick,
		Running:     s.running,
		CallStack:   s.CallStack(),
		SyncQueue:   views(s.syncQueue),
		Microtasks:  views(s.microtasks),
		Macrotasks:  views(s.macrotasks),
		RenderQueue: views(s.renderQueue),
		Logs:        s.Logs(),
		WasIdle:     s.wasIdle,
		LastRunID:   s.lastRunID,
	}
}

func views(q taskQueue) []TaskView {
	out := make([]TaskView, len(q))
	for i, t := range q {
		out[i] = TaskView{
			ID:            t.ID,
			Label:         t.Label,
			Type:          string(t.Type),
			CreatedAtTick: t.CreatedAtTick,
		}
	}
	return out
}

// Labels returns the labels of tasks in queue order.
func Labels(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Label
	}
	return out
}
