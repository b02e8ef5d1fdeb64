package player

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopsim/internal/engine"
	"github.com/roach88/loopsim/internal/testutil"
)

func newTestEngine(opts ...engine.Option) *engine.Engine {
	base := []engine.Option{
		engine.WithIDs(engine.NewSeqIDs()),
		engine.WithLogger(testutil.QuietLogger()),
	}
	return engine.New(append(base, opts...)...)
}

func TestPlay_EmptyStateStopsAfterIdleTick(t *testing.T) {
	eng := newTestEngine()

	res, err := Play(context.Background(), eng, engine.InitialState(), Options{Logger: testutil.QuietLogger()})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Ticks)
	assert.Equal(t, []engine.FrameLog{{Tick: 1, Action: engine.LogIdle}}, res.Timeline())
	assert.Len(t, res.History, 2)
}

func TestPlay_StopsWhenDrained(t *testing.T) {
	eng := newTestEngine()
	b := eng.Builder(engine.InitialState())
	b.EnqueueMacro("m1", nil)
	b.EnqueueMacro("m2", nil)
	b.EnqueueRender("paint", nil)

	res, err := Play(context.Background(), eng, b.Build(), Options{Logger: testutil.QuietLogger()})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Ticks)
	assert.Equal(t, 2, res.Final.Tick())
	assert.Equal(t, 0, res.Final.Pending())
	require.Len(t, res.History, 3)
	assert.Equal(t, 0, res.History[0].Tick())
	assert.Equal(t, 1, res.History[1].Tick())
}

func TestPlay_TickBudget(t *testing.T) {
	eng := newTestEngine()

	var forever engine.Action
	forever = func(b *engine.Builder) error {
		b.EnqueueMacro("again", forever)
		return nil
	}
	b := eng.Builder(engine.InitialState())
	b.EnqueueMacro("again", forever)

	res, err := Play(context.Background(), eng, b.Build(), Options{MaxTicks: 3, Logger: testutil.QuietLogger()})

	require.Error(t, err)
	assert.True(t, engine.IsTickBudgetError(err))
	var be *engine.TickBudgetError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 3, be.Ticks)
	assert.Equal(t, 3, be.Limit)
	assert.Equal(t, 1, be.Pending)
	assert.Equal(t, 3, res.Ticks)
	assert.Len(t, res.History, 4)
}

func TestPlay_DefaultBudget(t *testing.T) {
	b := newBudget(0)
	assert.Equal(t, DefaultMaxTicks, b.limit)
}

func TestPlay_CancelledContext(t *testing.T) {
	eng := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Play(ctx, eng, engine.InitialState(), Options{Logger: testutil.QuietLogger()})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, res.Ticks)
	assert.Len(t, res.History, 1)
}

func TestPlay_CancelFromOnTick(t *testing.T) {
	eng := newTestEngine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := eng.Builder(engine.InitialState())
	for i := 0; i < 5; i++ {
		b.EnqueueMacro("m", nil)
	}

	calls := 0
	res, err := Play(ctx, eng, b.Build(), Options{
		Logger: testutil.QuietLogger(),
		OnTick: func(s engine.LoopState) {
			calls++
			if s.Tick() == 2 {
				cancel()
			}
		},
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, res.Ticks)
	assert.Equal(t, 3, res.Final.Pending())
}

func TestPlay_BaseVariantIgnoresScriptQueue(t *testing.T) {
	eng := newTestEngine(engine.WithVariant(engine.VariantBase))
	b := eng.Builder(engine.InitialState())
	b.EnqueueSync("never", nil)
	b.EnqueueMicro("micro", nil)

	res, err := Play(context.Background(), eng, b.Build(), Options{Logger: testutil.QuietLogger()})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Ticks)
	assert.Equal(t, []string{"never"}, engine.Labels(res.Final.SyncQueue()))
}

func TestStepN(t *testing.T) {
	eng := newTestEngine()

	states := StepN(eng, engine.InitialState(), 3)

	require.Len(t, states, 4)
	for i, s := range states {
		assert.Equal(t, i, s.Tick())
	}
	assert.Len(t, StepN(eng, engine.InitialState(), 0), 1)
}
