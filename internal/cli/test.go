package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/loopsim/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update    bool   // regenerate golden files
	Filter    string // scenario filter (glob pattern)
	GoldenDir string // golden file directory
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Digest string   `json:"digest,omitempty"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <scenarios>",
		Short: "Run conformance scenarios",
		Long: `Run YAML conformance scenarios through the simulator.

Each scenario is compiled (or seeded from a preset), played to
completion, checked against its assertions and, when a golden file
exists, compared with the recorded timeline. Golden files live in a
"golden" directory next to the scenarios directory unless --golden is
given.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  loopsim test ./testdata/scenarios
  loopsim test ./testdata/scenarios --filter "timeout-*"
  loopsim test ./testdata/scenarios --update
  loopsim test ./testdata/scenarios/ordering.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")
	cmd.Flags().StringVar(&opts.GoldenDir, "golden", "", "golden file directory")

	return cmd
}

func runTests(opts *TestOptions, path string, cmd *cobra.Command) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("scenarios path not found: %s", path))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read scenarios", err)
	}

	goldenDir := opts.GoldenDir
	if goldenDir == "" {
		goldenDir = defaultGoldenDir(path, info.IsDir())
	}

	// Find scenario files
	scenarioFiles, err := findScenarioFiles(path, info.IsDir(), opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find scenarios", err)
	}

	if len(scenarioFiles) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(cmd, TestResult{
				Scenarios: []ScenarioResult{},
				Total:     0,
			})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "No scenarios found.")
		return nil
	}

	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	for _, scenarioFile := range scenarioFiles {
		scenResult := runScenario(scenarioFile, goldenDir, opts, cmd)
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(cmd, result)
	}

	return outputTestText(cmd, result)
}

// defaultGoldenDir places golden files in a "golden" directory beside the
// scenarios directory: testdata/scenarios pairs with testdata/golden.
func defaultGoldenDir(path string, isDir bool) string {
	dir := filepath.Clean(path)
	if !isDir {
		dir = filepath.Dir(dir)
	}
	return filepath.Join(filepath.Dir(dir), "golden")
}

// findScenarioFiles lists the YAML scenario files at path, sorted, keeping
// those whose base name matches filter.
func findScenarioFiles(path string, isDir bool, filter string) ([]string, error) {
	var candidates []string
	if isDir {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() {
				candidates = append(candidates, filepath.Join(path, e.Name()))
			}
		}
	} else {
		candidates = []string{path}
	}

	var files []string
	for _, f := range candidates {
		// Only process .yaml and .yml files
		ext := filepath.Ext(f)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		// Apply filter if specified
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(f), ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return nil, fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				continue
			}
		}

		files = append(files, f)
	}
	// os.ReadDir already returns entries sorted by file name.
	return files, nil
}

// runScenario executes a single scenario and returns the result.
func runScenario(scenarioFile, goldenDir string, opts *TestOptions, cmd *cobra.Command) ScenarioResult {
	w := cmd.OutOrStdout()
	text := opts.Format != "json"

	fail := func(name string, msgs ...string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "✗ %s\n", name)
			for _, m := range msgs {
				fmt.Fprintf(w, "  %s\n", m)
			}
		}
		return ScenarioResult{Name: name, Pass: false, Errors: msgs}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return fail(filepath.Base(scenarioFile), fmt.Sprintf("failed to load scenario: %v", err))
	}
	opts.logger().Debug("running scenario", "name", scenario.Name, "file", scenarioFile)

	result, err := harness.RunContext(cmd.Context(), scenario)
	if err != nil {
		return fail(scenario.Name, fmt.Sprintf("execution failed: %v", err))
	}

	rendered := harness.RenderTimeline(scenario.Name, result)
	goldenPath := filepath.Join(goldenDir, scenario.Name+".golden")

	// Handle golden file regeneration
	if opts.Update {
		if err := writeGoldenFile(goldenPath, rendered); err != nil {
			return fail(scenario.Name, fmt.Sprintf("failed to update golden file: %v", err))
		}
		if text {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", scenario.Name)
		}
		return ScenarioResult{Name: scenario.Name, Pass: true, Digest: result.Digest}
	}

	errs := append([]string(nil), result.Errors...)

	// Compare against golden file when one exists; otherwise assertions only
	golden, err := os.ReadFile(goldenPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		errs = append(errs, fmt.Sprintf("golden comparison failed: %v", err))
	case !bytes.Equal(golden, rendered):
		errs = append(errs, "timeline does not match golden file (run with --update to regenerate)")
	}

	if len(errs) > 0 {
		res := fail(scenario.Name, errs...)
		res.Digest = result.Digest
		return res
	}

	if text {
		fmt.Fprintf(w, "✓ %s\n", scenario.Name)
	}
	return ScenarioResult{Name: scenario.Name, Pass: true, Digest: result.Digest}
}

// writeGoldenFile writes the rendered timeline as the golden file.
func writeGoldenFile(goldenPath string, rendered []byte) error {
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(goldenPath, rendered, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(cmd *cobra.Command, result TestResult) error {
	status := "ok"
	if result.Failed > 0 {
		status = "error"
	}

	response := CLIResponse{
		Status: status,
		Data:   result,
	}
	if result.Failed > 0 {
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(cmd *cobra.Command, result TestResult) error {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All scenarios passed")
	return nil
}
