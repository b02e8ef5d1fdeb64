// Package harness provides conformance testing for event loop scenarios.
//
// A scenario seeds a loop from scenario text or a preset, plays it to
// completion and checks the resulting timeline.
//
// # Scenario Format
//
// Scenarios are YAML files decoded strictly (unknown fields are errors):
//
//	name: ordering
//	description: "sync before micro before macro"
//	code: |
//	  console.log('A');
//	  setTimeout(() => { console.log('B'); }, 0);
//	variant: enhanced        # optional, enhanced or base
//	max_ticks: 50            # optional, default 1000
//	queues:                  # optional, checked right after seeding
//	  sync: ['console.log("A")']
//	  macro: ['console.log("B")']
//	assertions:
//	  - type: timeline_order
//	    entries:
//	      - '#1 run [sync] console.log("A")'
//	      - '#1 run [macro] console.log("B")'
//	  - type: log_count
//	    action: run
//	    count: 2
//	  - type: final_tick
//	    tick: 1
//	  - type: no_errors
//
// Exactly one of code and preset is set.
//
// # Assertion Types
//
//   - timeline_order: entries appear in the timeline in this order, gaps allowed
//   - log_count: exactly count entries with the given action (and detail, if set)
//   - final_tick: the last state's tick
//   - no_errors: no error entries
//   - status: drained or budget_exhausted
//
// # Golden Files
//
// RunWithGolden renders the timeline as text and compares it with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
