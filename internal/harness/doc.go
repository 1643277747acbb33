// Package harness runs conformance scenarios against a model runtime.
//
// A scenario is a YAML list of FMI calls made against one
// runtime.Definition, with the status and values each call is expected to
// produce, followed by assertions over the resulting trace.
//
// # Scenario Format
//
//	name: oscillator_lifecycle
//	description: "Instantiate, initialize, step and terminate"
//	steps:
//	  - call: instantiate
//	    instance: main
//	  - call: setup_experiment
//	    time: 0
//	  - call: enter_initialization_mode
//	  - call: set_real
//	    refs: [0]
//	    values: [2.5]
//	  - call: exit_initialization_mode
//	  - call: do_step
//	    time: 0
//	    step: 0.125
//	  - call: get_integer
//	    refs: [3]
//	    expect:
//	      values: [1]
//	  - call: terminate
//	    expect:
//	      state: terminated
//	assertions:
//	  - type: trace_count
//	    call: do_step
//	    count: 1
//	  - type: final_state
//	    instance: main
//	    state: terminated
//
// Steps address instances by alias; the alias defaults to "main". A step
// without expect must return OK. A step whose alias was never instantiated
// is issued with the zero handle, which no instance ever has.
//
// # Golden Traces
//
// RunWithGolden compares the trace of a run against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
