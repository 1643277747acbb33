package harness

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/fmigen/internal/testutil"
	"github.com/roach88/fmigen/pkg/runtime"
)

func negInf() float64 { return math.Inf(-1) }

func oscillator(t *testing.T) *runtime.Definition {
	t.Helper()
	def, err := testutil.OscillatorDefinition()
	require.NoError(t, err)
	return def
}

func mustParse(t *testing.T, doc string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(doc))
	require.NoError(t, err)
	return s
}

func TestRun_OutputValue(t *testing.T) {
	s := mustParse(t, `
name: output
steps:
  - call: instantiate
  - call: set_real
    refs: [0, 1]
    values: [1, 2]
  - call: do_step
    time: 0
    step: 0.25
  - call: get_real
    refs: [2]
    expect:
      values: [2]
      delta: 1e-12
`)
	result, err := Run(oscillator(t), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	got := result.Trace[3].Values[0].(Real)
	assert.InDelta(t, 2.0, float64(got), 1e-12)
}

func TestRun_ReportsMismatches(t *testing.T) {
	s := mustParse(t, `
name: mismatches
steps:
  - call: get_real
    refs: [0]
  - call: instantiate
    expect:
      state: initialized
  - call: get_integer
    refs: [3]
    expect:
      values: [7]
  - call: get_real
    refs: [0, 1]
    expect:
      values: [1]
`)
	result, err := Run(oscillator(t), s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "status error, want ok")
	assert.Contains(t, result.Errors[0], "invalid instance handle")
	assert.Contains(t, result.Errors[1], "state instantiated, want initialized")
	assert.Contains(t, result.Errors[2], "= 0, want 7")
	assert.Contains(t, result.Errors[3], "read 2 values, want 1")
}

func TestRun_DebugLoggingReachesHost(t *testing.T) {
	s := mustParse(t, `
name: logging
steps:
  - call: instantiate
    logging_on: true
  - call: enter_initialization_mode
  - call: set_debug_logging
    logging_on: true
    categories: [logStatusError]
  - call: exit_initialization_mode
  - call: do_step
    time: 0
    step: 0
    expect:
      status: error
assertions:
  - type: log_contains
    message: "instantiated model=Oscillator"
  - type: log_contains
    message: "enterInitializationMode"
  - type: log_contains
    status: error
    message: "step size 0"
`)
	result, err := Run(oscillator(t), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	for _, l := range result.Logs {
		assert.NotContains(t, l.Message, "exitInitializationMode", "filtered by category")
	}
}

func TestRun_QuietByDefault(t *testing.T) {
	s := mustParse(t, `
name: quiet
steps:
  - call: instantiate
  - call: terminate
`)
	result, err := Run(oscillator(t), s)
	require.NoError(t, err)
	assert.Empty(t, result.Logs)
}

func TestRun_InstanceNameAndExperiment(t *testing.T) {
	s := mustParse(t, `
name: experiment
steps:
  - call: instantiate
    name: osc-1
  - call: setup_experiment
    time: 2
    stop_time: 4
    tolerance: 1e-6
  - call: enter_initialization_mode
  - call: setup_experiment
    time: 0
    expect:
      status: error
`)
	result, err := Run(oscillator(t), s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []float64{2}, result.Trace[1].Args)
}

func TestRun_ConversionErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"real from bool", "name: x\nsteps:\n  - call: set_real\n    refs: [0]\n    values: [true]\n"},
		{"integer from fraction", "name: x\nsteps:\n  - call: set_integer\n    refs: [3]\n    values: [1.5]\n"},
		{"integer overflow", "name: x\nsteps:\n  - call: set_integer\n    refs: [3]\n    values: [4294967296]\n"},
		{"boolean from string", "name: x\nsteps:\n  - call: set_boolean\n    refs: [4]\n    values: [yes please]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(oscillator(t), mustParse(t, tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestRun_NilDefinition(t *testing.T) {
	_, err := Run(nil, &Scenario{Name: "x", Steps: []Step{{Call: CallInstantiate}}})
	assert.Error(t, err)
}

func TestRun_LogsSteps(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := mustParse(t, "name: x\nsteps:\n  - call: instantiate\n  - call: free\n")

	_, err := Run(oscillator(t), s, WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, 2, logs.FilterMessage("step executed").Len())
}

func TestMatchValue(t *testing.T) {
	assert.True(t, matchValue(1, Real(1), 0))
	assert.True(t, matchValue(1.05, Real(1), 0.1))
	assert.False(t, matchValue(1.5, Real(1), 0.1))
	assert.True(t, matchValue("nan", Real(math.NaN()), 0))
	assert.True(t, matchValue(3, int32(3), 0))
	assert.False(t, matchValue(3.5, int32(3), 0))
	assert.True(t, matchValue(false, false, 0))
	assert.False(t, matchValue("false", false, 0))
}
