// Package presets holds built-in scenarios that enqueue tasks directly
// instead of going through the compiler. They exercise nested enqueues that
// scenario text cannot express.
package presets

import (
	"fmt"
	"sort"

	"github.com/roach88/loopsim/internal/engine"
)

// Preset is a named seeding function.
type Preset struct {
	Name        string
	Description string
	Seed        func(b *engine.Builder)
}

// Apply enqueues the preset's tasks on top of s. Existing queue contents are
// kept.
func (p Preset) Apply(eng *engine.Engine, s engine.LoopState) engine.LoopState {
	b := eng.Builder(s)
	p.Seed(b)
	return b.Build()
}

var registry = map[string]Preset{}

func register(p Preset) {
	if _, dup := registry[p.Name]; dup {
		panic("presets: duplicate preset " + p.Name)
	}
	registry[p.Name] = p
}

func init() {
	register(Preset{
		Name:        "timeout-vs-promise",
		Description: "setTimeout callback spawning microtasks versus an already queued promise chain",
		Seed: func(b *engine.Builder) {
			b.EnqueueMacro("setTimeout(cb)", func(b *engine.Builder) error {
				b.EnqueueMicro("Promise.then A", engine.Noop)
				b.EnqueueMicro("Promise.then B", engine.Noop)
				return nil
			})
			b.EnqueueMicro("Promise.then 1", func(b *engine.Builder) error {
				b.EnqueueMicro("queueMicrotask X", engine.Noop)
				return nil
			})
		},
	})
	register(Preset{
		Name:        "nested-micro",
		Description: "three-level microtask chain drained in a single tick",
		Seed: func(b *engine.Builder) {
			b.EnqueueMicro("then outer", func(b *engine.Builder) error {
				b.EnqueueMicro("then inner", func(b *engine.Builder) error {
					b.EnqueueMicro("then inner-2", engine.Noop)
					return nil
				})
				return nil
			})
		},
	})
	register(Preset{
		Name:        "macro-burst",
		Description: "two macrotasks, one per tick",
		Seed: func(b *engine.Builder) {
			b.EnqueueMacro("MessageChannel task", engine.Noop)
			b.EnqueueMacro("setTimeout 0ms", engine.Noop)
		},
	})
	register(Preset{
		Name:        "render-work",
		Description: "a single render task",
		Seed: func(b *engine.Builder) {
			b.EnqueueRender("Commit UI Frame", engine.Noop)
		},
	})
}

// Lookup returns the preset called name.
func Lookup(name string) (Preset, error) {
	p, ok := registry[name]
	if !ok {
		return Preset{}, fmt.Errorf("unknown preset %q (available: %v)", name, Names())
	}
	return p, nil
}

// All returns every preset sorted by name.
func All() []Preset {
	out := make([]Preset, 0, len(registry))
	for _, p := range registry {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the sorted preset names.
func Names() []string {
	all := All()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name
	}
	return names
}
