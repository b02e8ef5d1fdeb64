package digest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopsim/internal/engine"
)

var sampleLogs = []engine.FrameLog{
	{Tick: 1, Action: engine.LogScriptDrain},
	{Tick: 1, Action: engine.LogRun, Detail: `[sync] console.log("A")`},
	{Tick: 2, Action: engine.LogIdle},
}

func TestTimeline_Deterministic(t *testing.T) {
	a, err := Timeline(engine.VariantEnhanced, sampleLogs)
	require.NoError(t, err)
	b, err := Timeline(engine.VariantEnhanced, append([]engine.FrameLog(nil), sampleLogs...))
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestTimeline_SensitiveToContent(t *testing.T) {
	base, err := Timeline(engine.VariantEnhanced, sampleLogs)
	require.NoError(t, err)

	changed := append([]engine.FrameLog(nil), sampleLogs...)
	changed[1].Detail = `[sync] console.log("B")`
	other, err := Timeline(engine.VariantEnhanced, changed)
	require.NoError(t, err)
	assert.NotEqual(t, base, other)

	variant, err := Timeline(engine.VariantBase, sampleLogs)
	require.NoError(t, err)
	assert.NotEqual(t, base, variant)

	reordered := []engine.FrameLog{sampleLogs[1], sampleLogs[0], sampleLogs[2]}
	swapped, err := Timeline(engine.VariantEnhanced, reordered)
	require.NoError(t, err)
	assert.NotEqual(t, base, swapped)
}

func TestTimeline_Empty(t *testing.T) {
	a, err := Timeline(engine.VariantEnhanced, nil)
	require.NoError(t, err)
	b, err := Timeline(engine.VariantEnhanced, []engine.FrameLog{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSource_DomainSeparated(t *testing.T) {
	src, err := Source("console.log('A');")
	require.NoError(t, err)
	again, err := Source("console.log('A');")
	require.NoError(t, err)
	assert.Equal(t, src, again)

	tl, err := Timeline(engine.VariantEnhanced, nil)
	require.NoError(t, err)
	assert.NotEqual(t, src, tl)
}

func TestHashWithDomain_Separator(t *testing.T) {
	// "ab" + "c" and "a" + "bc" must not collide.
	assert.NotEqual(t, hashWithDomain("ab", []byte("c")), hashWithDomain("a", []byte("bc")))
}
