// Package config loads loopsim configuration files written in CUE.
//
// A file is unified with the embedded #Config schema, so defaults come from
// the schema and constraint violations are reported with CUE positions:
//
//	variant:  "base"
//	maxTicks: 200
//	db:       "sessions.db"
package config

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/loopsim/internal/engine"
)

//go:embed schema.cue
var schemaSource string

// Config is the decoded configuration.
type Config struct {
	Variant  string `json:"variant"`
	MaxTicks int    `json:"maxTicks"`
	DB       string `json:"db"`
	LogLevel string `json:"logLevel"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Variant:  string(engine.VariantEnhanced),
		MaxTicks: 1000,
		LogLevel: "info",
	}
}

// EngineVariant parses the configured variant.
func (c Config) EngineVariant() (engine.Variant, error) {
	return engine.ParseVariant(c.Variant)
}

// Error is a configuration error, positioned when CUE knows where it happened.
type Error struct {
	File    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Load reads and validates the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, data)
}

// Parse validates data against the schema. name is used in positions.
func Parse(name string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Config{}, fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	v := ctx.CompileBytes(data, cue.Filename(name))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(name, err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(name, err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(name, err)
	}
	return cfg, nil
}

// formatCUEError keeps the first error and its first position.
func formatCUEError(name string, err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{File: name, Message: err.Error()}
	}

	first := errs[0]
	out := &Error{File: name, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}
