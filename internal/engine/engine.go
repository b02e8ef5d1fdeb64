package engine

import (
	"fmt"
	"log/slog"
)

// Variant selects the phase algorithm.
type Variant string

const (
	// VariantEnhanced runs script drain, microtask drain, one macrotask and
	// one render task per tick, and records the last-run task id.
	VariantEnhanced Variant = "enhanced"

	// VariantBase has no script phase: the idle check ignores the script
	// queue and sync tasks are never run. It does not record a last-run id.
	VariantBase Variant = "base"
)

// ParseVariant validates a variant name. The empty string selects
// VariantEnhanced.
func ParseVariant(s string) (Variant, error) {
	switch Variant(s) {
	case "", VariantEnhanced:
		return VariantEnhanced, nil
	case VariantBase:
		return VariantBase, nil
	default:
		return "", fmt.Errorf("unknown variant %q: must be %q or %q", s, VariantEnhanced, VariantBase)
	}
}

// Observer receives a callback for every task outcome and every tick.
// Implementations must not block; they run inside Step.
type Observer interface {
	TaskRan(queue QueueType)
	TaskFailed(queue QueueType, err error)
	Ticked(idle bool)
}

type nopObserver struct{}

func (nopObserver) TaskRan(QueueType)           {}
func (nopObserver) TaskFailed(QueueType, error) {}
func (nopObserver) Ticked(bool)                 {}

// Engine advances LoopState values one tick at a time.
//
// An Engine holds configuration only (variant, id generator, logger,
// observer); it keeps no loop state between calls. Step is safe to call from
// one driver at a time per state sequence.
type Engine struct {
	ids      IDGenerator
	variant  Variant
	logger   *slog.Logger
	observer Observer
}

// Option configures an Engine.
type Option func(*Engine)

// WithIDs sets the task id generator. Default: DefaultIDs.
func WithIDs(ids IDGenerator) Option {
	return func(e *Engine) {
		e.ids = ids
	}
}

// WithVariant selects the phase algorithm. Default: VariantEnhanced.
func WithVariant(v Variant) Option {
	return func(e *Engine) {
		e.variant = v
	}
}

// WithLogger sets the logger. Default: slog.Default() at the time of each
// call.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithObserver registers an observer for task and tick outcomes.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		ids:      DefaultIDs,
		variant:  VariantEnhanced,
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ids == nil {
		e.ids = DefaultIDs
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	return e
}

// IDs returns the engine's task id generator.
func (e *Engine) IDs() IDGenerator {
	return e.ids
}

// Variant returns the configured phase algorithm.
func (e *Engine) Variant() Variant {
	return e.variant
}

// Builder stages a copy of s whose tasks get ids from the engine.
func (e *Engine) Builder(s LoopState) *Builder {
	return NewBuilder(s, e.ids)
}

// Drained reports whether s has nothing left for this engine to run: every
// queue the variant consults is empty and nothing is executing.
func (e *Engine) Drained(s LoopState) bool {
	return e.idle(&s) && len(s.callStack) == 0
}

// Step advances s by exactly one tick and returns the new state. s itself is
// never modified.
//
// Phase order is fixed: script drain (enhanced only), microtask drain, one
// macrotask, one render task. An idle tick logs "idle" only on the first tick
// of an idle streak.
func (e *Engine) Step(s LoopState) LoopState {
	b := e.Builder(s)
	b.st.tick++
	b.st.lastRunID = ""

	if e.idle(&b.st) {
		if !b.st.wasIdle {
			b.log(LogIdle, "")
			b.st.wasIdle = true
		}
		e.observer.Ticked(true)
		return b.publish()
	}
	b.st.wasIdle = false

	b.stepping = true
	if e.variant != VariantBase {
		e.drain(b, QueueSync, LogScriptDrain)
	}
	e.drain(b, QueueMicrotask, LogMicrotasksDrain)
	e.runOne(b, QueueMacrotask, LogRun)
	e.runOne(b, QueueRender, LogRender)
	b.stepping = false

	e.observer.Ticked(false)
	e.log().Debug("tick complete",
		"tick", b.st.tick,
		"variant", e.variant,
		"pending", b.st.Pending(),
		"last_run_id", b.st.lastRunID,
	)
	return b.publish()
}

// idle reports whether every queue the variant consults is empty.
func (e *Engine) idle(s *LoopState) bool {
	empty := s.microtasks.len() == 0 && s.macrotasks.len() == 0 && s.renderQueue.len() == 0
	if e.variant == VariantBase {
		return empty
	}
	return empty && s.syncQueue.len() == 0
}

// drain runs queue q until it is empty, re-checking the length after every
// task so that tasks enqueued by the phase itself also run.
func (e *Engine) drain(b *Builder, q QueueType, marker LogAction) {
	queue := b.st.queue(q)
	if queue.len() == 0 {
		return
	}
	b.log(marker, "")
	for queue.len() > 0 {
		e.execute(b, queue.shift(), LogRun)
	}
}

// runOne runs the head of queue q, if any. Tasks the action enqueues onto q
// wait for a later tick.
func (e *Engine) runOne(b *Builder, q QueueType, action LogAction) {
	queue := b.st.queue(q)
	if queue.len() == 0 {
		return
	}
	e.execute(b, queue.shift(), action)
}

// execute runs one task with its label on the call stack and records the
// outcome.
func (e *Engine) execute(b *Builder, t Task, action LogAction) {
	b.st.callStack = append(b.st.callStack, t.Label)
	err := invoke(t, b)
	b.st.callStack = b.st.callStack[:len(b.st.callStack)-1]

	if err != nil {
		b.log(LogError, err.Error())
		terr := &TaskError{
			TaskID: t.ID,
			Label:  t.Label,
			Queue:  t.Type,
			Tick:   b.st.tick,
			Err:    err,
		}
		e.observer.TaskFailed(t.Type, terr)
		e.log().Warn("task failed",
			"task_id", t.ID,
			"label", t.Label,
			"queue", t.Type,
			"tick", b.st.tick,
			"error", err,
		)
		return
	}

	if e.variant != VariantBase {
		b.st.lastRunID = t.ID
	}
	b.log(action, fmt.Sprintf("[%s] %s", t.Type.Prefix(), t.Label))
	e.observer.TaskRan(t.Type)
}

// invoke calls the task's action, converting a panic into a PanicError.
func invoke(t Task, b *Builder) (err error) {
	if t.Action == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return t.Action(b)
}

func (e *Engine) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}

var defaultEngine = New()

// Step advances s by one tick with the default enhanced engine and the
// process-wide DefaultIDs.
func Step(s LoopState) LoopState {
	return defaultEngine.Step(s)
}
