package harness

import (
	"context"
	"fmt"

	"github.com/roach88/loopsim/internal/engine"
	"github.com/roach88/loopsim/internal/runner"
	"github.com/roach88/loopsim/internal/telemetry"
)

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Seed a state from the scenario's code or preset
//  2. Check the queue expectation, if any
//  3. Play until drained or out of budget
//  4. Evaluate assertions
//
// The returned error covers scenarios that cannot run at all; failed checks
// are reported through Result.Pass and Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	variant, err := engine.ParseVariant(scenario.Variant)
	if err != nil {
		return nil, err
	}

	r := runner.New(
		runner.WithSessionIDs(runner.NewFixedGenerator(scenario.Name)),
		runner.WithLogger(telemetry.Discard()),
	)
	rec, err := r.Run(ctx, runner.Request{
		Source:   scenario.Code,
		Preset:   scenario.Preset,
		Variant:  variant,
		MaxTicks: scenario.MaxTicks,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run scenario %s: %w", scenario.Name, err)
	}

	result := NewResult()
	result.Variant = rec.Session.Variant
	result.Status = rec.Session.Status
	result.Ticks = rec.Session.Ticks
	result.Digest = rec.Session.Digest
	result.Timeline = rec.Logs()
	result.final = rec.Result.Final

	if scenario.Queues != nil {
		for _, msg := range checkQueues(rec.Initial, *scenario.Queues) {
			result.AddError(msg)
		}
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}
