package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/loopsim/internal/engine"
	"github.com/roach88/loopsim/internal/presets"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Code is scenario text for the compiler.
	Code string `yaml:"code,omitempty"`

	// Preset names a built-in preset instead of Code.
	Preset string `yaml:"preset,omitempty"`

	// Variant is enhanced (default) or base.
	Variant string `yaml:"variant,omitempty"`

	// MaxTicks bounds the run. Zero means the player default.
	MaxTicks int `yaml:"max_ticks,omitempty"`

	// Queues, when set, is compared with the seeded state before stepping.
	Queues *QueueExpectation `yaml:"queues,omitempty"`

	// Assertions validate the finished run.
	Assertions []Assertion `yaml:"assertions"`
}

// QueueExpectation lists the expected task labels per queue. Every queue is
// compared, so an omitted queue must be empty.
type QueueExpectation struct {
	Sync   []string `yaml:"sync,omitempty"`
	Micro  []string `yaml:"micro,omitempty"`
	Macro  []string `yaml:"macro,omitempty"`
	Render []string `yaml:"render,omitempty"`
}

// byQueue maps the expectation onto engine queues.
func (q QueueExpectation) byQueue() map[engine.QueueType][]string {
	return map[engine.QueueType][]string{
		engine.QueueSync:      q.Sync,
		engine.QueueMicrotask: q.Micro,
		engine.QueueMacrotask: q.Macro,
		engine.QueueRender:    q.Render,
	}
}

// Assertion validates the timeline or final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Entries are rendered timeline lines (timeline_order).
	Entries []string `yaml:"entries,omitempty"`

	// Action and Detail select log entries (log_count). An empty Detail
	// matches any detail.
	Action string `yaml:"action,omitempty"`
	Detail string `yaml:"detail,omitempty"`

	// Count is the expected number of matches (log_count).
	Count int `yaml:"count,omitempty"`

	// Tick is the expected final tick (final_tick).
	Tick int `yaml:"tick,omitempty"`

	// Status is the expected run status (status).
	Status string `yaml:"status,omitempty"`
}

// Assertion type constants.
const (
	AssertTimelineOrder = "timeline_order"
	AssertLogCount      = "log_count"
	AssertFinalTick     = "final_tick"
	AssertNoErrors      = "no_errors"
	AssertStatus        = "status"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads path, or every .yaml and .yml file directly inside it
// when path is a directory, sorted by file name.
func LoadScenarios(path string) ([]*Scenario, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios: %w", err)
	}
	if !info.IsDir() {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []*Scenario{s}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		ext := filepath.Ext(e.Name())
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", path)
	}

	out := make([]*Scenario, 0, len(files))
	for _, f := range files {
		s, err := LoadScenario(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Code == "" && s.Preset == "":
		return fmt.Errorf("one of code or preset is required")
	case s.Code != "" && s.Preset != "":
		return fmt.Errorf("code and preset are mutually exclusive")
	}
	if s.Preset != "" {
		if _, err := presets.Lookup(s.Preset); err != nil {
			return err
		}
	}

	if _, err := engine.ParseVariant(s.Variant); err != nil {
		return err
	}
	if s.MaxTicks < 0 {
		return fmt.Errorf("max_ticks must be non-negative")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTimelineOrder:
		if len(a.Entries) == 0 {
			return fmt.Errorf("assertions[%d]: entries list is required for timeline_order", index)
		}
	case AssertLogCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for log_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for log_count", index)
		}
	case AssertFinalTick:
		if a.Tick < 0 {
			return fmt.Errorf("assertions[%d]: tick must be non-negative for final_tick", index)
		}
	case AssertNoErrors:
	case AssertStatus:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for status", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
