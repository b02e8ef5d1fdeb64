package engine

// Builder is the mutable staging value behind every state transition.
//
// A Builder owns a private deep copy of its base state. Enqueue helpers
// append to that copy; Build publishes it as a LoopState and seals the
// builder. Any use after Build panics, so a published state can never be
// reached through an old builder.
//
// Builders are not safe for concurrent use.
type Builder struct {
	st     LoopState
	ids    IDGenerator
	sealed bool

	// stepping is set while Engine.Step runs task actions; actions must not
	// publish the state Step is assembling.
	stepping bool
}

// NewBuilder stages a copy of base. Tasks get ids from ids, or from
// DefaultIDs when ids is nil.
func NewBuilder(base LoopState, ids IDGenerator) *Builder {
	if ids == nil {
		ids = DefaultIDs
	}
	return &Builder{st: base.clone(), ids: ids}
}

// EnqueueSync appends a task to the script queue.
func (b *Builder) EnqueueSync(label string, action Action) Task {
	return b.Enqueue(QueueSync, label, action)
}

// EnqueueMicro appends a task to the microtask queue.
func (b *Builder) EnqueueMicro(label string, action Action) Task {
	return b.Enqueue(QueueMicrotask, label, action)
}

// EnqueueMacro appends a task to the macrotask queue.
func (b *Builder) EnqueueMacro(label string, action Action) Task {
	return b.Enqueue(QueueMacrotask, label, action)
}

// EnqueueRender appends a task to the render queue.
func (b *Builder) EnqueueRender(label string, action Action) Task {
	return b.Enqueue(QueueRender, label, action)
}

// Enqueue appends a new task of type q, stamped with the staged tick. Only
// the queue q maps to changes.
func (b *Builder) Enqueue(q QueueType, label string, action Action) Task {
	b.mustBeOpen()
	if !q.Valid() {
		panic("engine: enqueue with unknown queue type " + string(q))
	}
	t := MakeTask(b.ids, label, q, action, b.st.tick)
	b.st.queue(q).push(t)
	return t
}

// SetRunning sets the player flag carried for the presentation layer.
func (b *Builder) SetRunning(running bool) {
	b.mustBeOpen()
	b.st.running = running
}

// Tick returns the staged tick.
func (b *Builder) Tick() int {
	return b.st.tick
}

// CallStack returns the labels of the tasks currently executing. Inside an
// action the running task's label is last.
func (b *Builder) CallStack() []string {
	return b.st.CallStack()
}

// Len returns the number of staged tasks waiting in queue q.
func (b *Builder) Len(q QueueType) int {
	return b.st.Len(q)
}

// Build publishes the staged state and seals the builder.
func (b *Builder) Build() LoopState {
	if b.stepping {
		panic("engine: Build called from inside a task action")
	}
	return b.publish()
}

func (b *Builder) publish() LoopState {
	b.mustBeOpen()
	b.sealed = true
	st := b.st
	b.st = LoopState{}
	return st
}

func (b *Builder) log(action LogAction, detail string) {
	b.st.logs = append(b.st.logs, FrameLog{Tick: b.st.tick, Action: action, Detail: detail})
}

func (b *Builder) mustBeOpen() {
	if b.sealed {
		panic("engine: builder used after Build")
	}
}
