package engine

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_New_Defaults(t *testing.T) {
	e := New()

	assert.Equal(t, VariantEnhanced, e.Variant())
	assert.Same(t, DefaultIDs, e.IDs())
}

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("")
	require.NoError(t, err)
	assert.Equal(t, VariantEnhanced, v)

	v, err = ParseVariant("base")
	require.NoError(t, err)
	assert.Equal(t, VariantBase, v)

	_, err = ParseVariant("turbo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "turbo")
}

func TestStep_IdleLoggedOncePerStreak(t *testing.T) {
	e := newTestEngine()

	s := e.Step(InitialState())
	assert.Equal(t, []FrameLog{{Tick: 1, Action: LogIdle}}, s.Logs())
	assert.True(t, s.WasIdle())

	s = e.Step(s)
	s = e.Step(s)
	assert.Len(t, s.Logs(), 1, "repeated idle ticks must not log again")
	assert.Equal(t, 3, s.Tick())

	b := e.Builder(s)
	b.EnqueueMicro("work", nil)
	s = e.Step(b.Build())
	assert.False(t, s.WasIdle())

	s = e.Step(s)
	assert.Equal(t, []FrameLog{
		{Tick: 1, Action: LogIdle},
		{Tick: 4, Action: LogMicrotasksDrain},
		{Tick: 4, Action: LogRun, Detail: "[micro] work"},
		{Tick: 5, Action: LogIdle},
	}, s.Logs())
}

func TestStep_PhaseOrder(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	b.EnqueueSync("A", nil)
	b.EnqueueMacro("B", nil)
	b.EnqueueMicro("C", nil)
	b.EnqueueSync("D", nil)
	render := b.EnqueueRender("R", nil)

	s := e.Step(b.Build())

	assert.Equal(t, []FrameLog{
		{Tick: 1, Action: LogScriptDrain},
		{Tick: 1, Action: LogRun, Detail: "[sync] A"},
		{Tick: 1, Action: LogRun, Detail: "[sync] D"},
		{Tick: 1, Action: LogMicrotasksDrain},
		{Tick: 1, Action: LogRun, Detail: "[micro] C"},
		{Tick: 1, Action: LogRun, Detail: "[macro] B"},
		{Tick: 1, Action: LogRender, Detail: "[render] R"},
	}, s.Logs())

	id, ok := s.LastRunID()
	require.True(t, ok)
	assert.Equal(t, render.ID, id, "render ran last")
	assert.Equal(t, 0, s.Pending())
}

func TestStep_MicrotasksSpawnedDuringDrainRunSameTick(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	b.EnqueueMacro("M", nil)
	b.EnqueueMicro("then outer", func(b *Builder) error {
		b.EnqueueMicro("then inner", func(b *Builder) error {
			b.EnqueueMicro("then inner-2", nil)
			return nil
		})
		return nil
	})

	s := e.Step(b.Build())

	assert.Equal(t, []string{
		"#1 microtasks:drain",
		"#1 run [micro] then outer",
		"#1 run [micro] then inner",
		"#1 run [micro] then inner-2",
		"#1 run [macro] M",
	}, timeline(s))
	assert.Equal(t, 0, s.Len(QueueMicrotask))
}

func TestStep_OneMacrotaskPerTick(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	b.EnqueueMacro("M1", func(b *Builder) error {
		b.EnqueueMacro("M3", nil)
		return nil
	})
	b.EnqueueMacro("M2", nil)

	s := e.Step(b.Build())
	assert.Equal(t, []string{"#1 run [macro] M1"}, timeline(s))
	assert.Equal(t, []string{"M2", "M3"}, Labels(s.Macrotasks()))

	s = e.Step(s)
	s = e.Step(s)
	assert.Equal(t, []string{
		"#1 run [macro] M1",
		"#2 run [macro] M2",
		"#3 run [macro] M3",
	}, timeline(s))
}

func TestStep_MicrotaskFromMacrotaskWaitsForNextTick(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	b.EnqueueMacro("setTimeout(cb)", func(b *Builder) error {
		b.EnqueueMicro("Promise.then A", nil)
		b.EnqueueMicro("Promise.then B", nil)
		return nil
	})
	b.EnqueueMicro("Promise.then 1", func(b *Builder) error {
		b.EnqueueMicro("queueMicrotask X", nil)
		return nil
	})

	s := e.Step(b.Build())
	assert.Equal(t, []string{"Promise.then A", "Promise.then B"}, Labels(s.Microtasks()))

	s = e.Step(s)
	assert.Equal(t, []string{
		"#1 microtasks:drain",
		"#1 run [micro] Promise.then 1",
		"#1 run [micro] queueMicrotask X",
		"#1 run [macro] setTimeout(cb)",
		"#2 microtasks:drain",
		"#2 run [micro] Promise.then A",
		"#2 run [micro] Promise.then B",
	}, timeline(s))
}

func TestStep_OneRenderPerTick(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	b.EnqueueRender("Frame 1", nil)
	b.EnqueueRender("Frame 2", nil)

	s := e.Step(b.Build())
	assert.Equal(t, []string{"#1 render [render] Frame 1"}, timeline(s))

	s = e.Step(s)
	assert.Equal(t, []string{"#1 render [render] Frame 1", "#2 render [render] Frame 2"}, timeline(s))
}

func TestStep_FailingTaskDoesNotStopPhase(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	b.EnqueueSync("A", nil)
	b.EnqueueSync("B", func(*Builder) error { return errors.New("boom") })
	b.EnqueueSync("C", nil)
	b.EnqueueMicro("P", func(*Builder) error { panic("kaboom") })
	last := b.EnqueueMicro("Q", nil)

	s := e.Step(b.Build())

	assert.Equal(t, []string{
		"#1 script:drain",
		"#1 run [sync] A",
		"#1 error boom",
		"#1 run [sync] C",
		"#1 microtasks:drain",
		"#1 error panic: kaboom",
		"#1 run [micro] Q",
	}, timeline(s))

	id, ok := s.LastRunID()
	require.True(t, ok)
	assert.Equal(t, last.ID, id)
	assert.Empty(t, s.CallStack(), "call stack is unwound after a panic")
}

func TestStep_LastRunIDIsLastSuccessfulTask(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	ok := b.EnqueueSync("ok", nil)
	b.EnqueueSync("bad", func(*Builder) error { return errors.New("nope") })

	s := e.Step(b.Build())
	id, found := s.LastRunID()
	require.True(t, found)
	assert.Equal(t, ok.ID, id)

	s = e.Step(s)
	_, found = s.LastRunID()
	assert.False(t, found, "idle tick clears last run id")
}

func TestStep_CallStackHoldsRunningLabel(t *testing.T) {
	e := newTestEngine()

	var seen []string
	b := e.Builder(InitialState())
	b.EnqueueSync("outer", func(b *Builder) error {
		seen = b.CallStack()
		return nil
	})

	s := e.Step(b.Build())
	assert.Equal(t, []string{"outer"}, seen)
	assert.Empty(t, s.CallStack())
}

func TestStep_TickIncrementsByOne(t *testing.T) {
	e := newTestEngine()

	s := InitialState()
	for i := 1; i <= 10; i++ {
		b := e.Builder(s)
		if i%3 == 0 {
			b.EnqueueMacro("m", nil)
		}
		s = e.Step(b.Build())
		assert.Equal(t, i, s.Tick())
	}
}

func TestStep_DoesNotMutateInput(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	b.EnqueueSync("A", nil)
	b.EnqueueMicro("B", func(b *Builder) error {
		b.EnqueueMicro("B2", nil)
		b.EnqueueMacro("B3", nil)
		return nil
	})
	b.EnqueueMacro("C", nil)
	b.EnqueueRender("D", nil)
	before := b.Build()
	snap := before.Snapshot()

	after := e.Step(before)
	_ = e.Step(after)

	if diff := cmp.Diff(snap, before.Snapshot()); diff != "" {
		t.Errorf("input state changed (-before +after):\n%s", diff)
	}
}

func TestStep_TaskCreatedAtTick(t *testing.T) {
	e := newTestEngine()

	s := e.Step(e.Step(InitialState()))
	b := e.Builder(s)
	b.EnqueueMacro("spawner", func(b *Builder) error {
		b.EnqueueMacro("child", nil)
		return nil
	})
	s = e.Step(b.Build())

	require.Len(t, s.Macrotasks(), 1)
	assert.Equal(t, 3, s.Macrotasks()[0].CreatedAtTick)
}

func TestStep_BuildInsideActionIsContained(t *testing.T) {
	e := newTestEngine()

	b := e.Builder(InitialState())
	b.EnqueueSync("publisher", func(b *Builder) error {
		b.Build()
		return nil
	})
	b.EnqueueSync("after", nil)

	s := e.Step(b.Build())
	assert.Equal(t, []string{
		"#1 script:drain",
		"#1 error panic: engine: Build called from inside a task action",
		"#1 run [sync] after",
	}, timeline(s))
}

func TestStep_BaseVariantSkipsScriptPhase(t *testing.T) {
	e := newTestEngine(WithVariant(VariantBase))

	b := e.Builder(InitialState())
	b.EnqueueSync("ignored", nil)
	s := e.Step(b.Build())

	assert.Equal(t, []string{"#1 idle"}, timeline(s))
	assert.Equal(t, 1, s.Len(QueueSync))
	assert.True(t, e.Drained(s))

	b = e.Builder(s)
	b.EnqueueMicro("C", nil)
	b.EnqueueMacro("B", nil)
	s = e.Step(b.Build())

	assert.Equal(t, []string{
		"#1 idle",
		"#2 microtasks:drain",
		"#2 run [micro] C",
		"#2 run [macro] B",
	}, timeline(s))
	_, ok := s.LastRunID()
	assert.False(t, ok, "base variant does not track the last run id")
}

func TestEngine_Drained(t *testing.T) {
	e := newTestEngine()

	assert.True(t, e.Drained(InitialState()))

	b := e.Builder(InitialState())
	b.EnqueueSync("A", nil)
	s := b.Build()
	assert.False(t, e.Drained(s))
	assert.True(t, e.Drained(e.Step(s)))
}

type recordingObserver struct {
	ran    map[QueueType]int
	failed map[QueueType]int
	idle   int
	work   int
	errs   []error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{ran: map[QueueType]int{}, failed: map[QueueType]int{}}
}

func (o *recordingObserver) TaskRan(q QueueType) { o.ran[q]++ }
func (o *recordingObserver) TaskFailed(q QueueType, err error) {
	o.failed[q]++
	o.errs = append(o.errs, err)
}
func (o *recordingObserver) Ticked(idle bool) {
	if idle {
		o.idle++
	} else {
		o.work++
	}
}

func TestStep_Observer(t *testing.T) {
	obs := newRecordingObserver()
	e := newTestEngine(WithObserver(obs))

	b := e.Builder(InitialState())
	b.EnqueueSync("A", nil)
	b.EnqueueMicro("B", func(*Builder) error { return errors.New("bad") })
	b.EnqueueRender("R", nil)

	s := e.Step(b.Build())
	e.Step(e.Step(s))

	assert.Equal(t, 1, obs.ran[QueueSync])
	assert.Equal(t, 1, obs.ran[QueueRender])
	assert.Equal(t, 1, obs.failed[QueueMicrotask])
	assert.Equal(t, 1, obs.work)
	assert.Equal(t, 2, obs.idle)

	require.Len(t, obs.errs, 1)
	var te *TaskError
	require.ErrorAs(t, obs.errs[0], &te)
	assert.Equal(t, "B", te.Label)
	assert.Equal(t, 1, te.Tick)
	assert.EqualError(t, errors.Unwrap(te), "bad")
}

func TestStep_PackageLevelUsesDefaultIDs(t *testing.T) {
	before := DefaultIDs.Current()

	b := NewBuilder(InitialState(), nil)
	b.EnqueueSync("x", nil)
	s := Step(b.Build())

	assert.Greater(t, DefaultIDs.Current(), before)
	assert.Equal(t, 1, s.Tick())
}

// timeline renders the frame log one line per entry.
func timeline(s LoopState) []string {
	logs := s.Logs()
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.String()
	}
	return out
}
