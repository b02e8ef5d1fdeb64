package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/loopsim/internal/engine"
)

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse("empty.cue", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Values(t *testing.T) {
	cfg, err := Parse("loopsim.cue", []byte(`
variant:  "base"
maxTicks: 25
db:       "runs.db"
logLevel: "debug"
`))
	require.NoError(t, err)
	assert.Equal(t, Config{Variant: "base", MaxTicks: 25, DB: "runs.db", LogLevel: "debug"}, cfg)

	v, err := cfg.EngineVariant()
	require.NoError(t, err)
	assert.Equal(t, engine.VariantBase, v)
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse("loopsim.cue", []byte(`maxTicks: 7`))
	require.NoError(t, err)
	assert.Equal(t, "enhanced", cfg.Variant)
	assert.Equal(t, 7, cfg.MaxTicks)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParse_InvalidVariant(t *testing.T) {
	_, err := Parse("loopsim.cue", []byte(`variant: "turbo"`))
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "variant")
}

func TestParse_NonPositiveMaxTicks(t *testing.T) {
	_, err := Parse("loopsim.cue", []byte(`maxTicks: 0`))
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "maxTicks")
}

func TestParse_UnknownField(t *testing.T) {
	_, err := Parse("loopsim.cue", []byte(`speed: 3`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "speed")
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse("broken.cue", []byte(`variant: "base`))
	require.Error(t, err)

	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loopsim.cue")
	require.NoError(t, os.WriteFile(path, []byte(`db: "x.db"`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "x.db", cfg.DB)

	_, err = Load(filepath.Join(t.TempDir(), "missing.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestError_Format(t *testing.T) {
	assert.Equal(t, "f.cue: bad", (&Error{File: "f.cue", Message: "bad"}).Error())
}
