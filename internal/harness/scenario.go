package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Calls understood by the harness.
const (
	CallInstantiate             = "instantiate"
	CallFree                    = "free"
	CallSetDebugLogging         = "set_debug_logging"
	CallSetupExperiment         = "setup_experiment"
	CallEnterInitializationMode = "enter_initialization_mode"
	CallExitInitializationMode  = "exit_initialization_mode"
	CallDoStep                  = "do_step"
	CallTerminate               = "terminate"
	CallReset                   = "reset"
	CallGetReal                 = "get_real"
	CallSetReal                 = "set_real"
	CallGetInteger              = "get_integer"
	CallSetInteger              = "set_integer"
	CallGetBoolean              = "get_boolean"
	CallSetBoolean              = "set_boolean"
	CallGetString               = "get_string"
	CallSetString               = "set_string"
)

var knownCalls = map[string]bool{
	CallInstantiate:             true,
	CallFree:                    true,
	CallSetDebugLogging:         true,
	CallSetupExperiment:         true,
	CallEnterInitializationMode: true,
	CallExitInitializationMode:  true,
	CallDoStep:                  true,
	CallTerminate:               true,
	CallReset:                   true,
	CallGetReal:                 true,
	CallSetReal:                 true,
	CallGetInteger:              true,
	CallSetInteger:              true,
	CallGetBoolean:              true,
	CallSetBoolean:              true,
	CallGetString:               true,
	CallSetString:               true,
}

// DefaultInstance is the alias used by steps that name none.
const DefaultInstance = "main"

// Scenario is a conformance scenario.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	Steps []Step `yaml:"steps"`

	// Assertions are evaluated against the trace after all steps ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one FMI call.
type Step struct {
	Call string `yaml:"call"`

	// Instance is the alias of the target instance.
	Instance string `yaml:"instance,omitempty"`

	// instantiate: instance name passed to the runtime (defaults to the
	// alias), GUID (defaults to the model's) and initial logging flag.
	Name      string  `yaml:"name,omitempty"`
	GUID      *string `yaml:"guid,omitempty"`
	LoggingOn bool    `yaml:"logging_on,omitempty"`

	// set_debug_logging.
	Categories []string `yaml:"categories,omitempty"`

	// setup_experiment and do_step.
	Time      float64  `yaml:"time,omitempty"`
	StepSize  float64  `yaml:"step,omitempty"`
	StopTime  *float64 `yaml:"stop_time,omitempty"`
	Tolerance *float64 `yaml:"tolerance,omitempty"`

	// Value access.
	Refs   []uint32 `yaml:"refs,omitempty"`
	Values []any    `yaml:"values,omitempty"`

	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Status is "ok" or "error"; defaults to "ok".
	Status string `yaml:"status,omitempty"`

	// Values are compared with the values read by a get step.
	Values []any `yaml:"values,omitempty"`

	// Delta is the tolerance for Real comparisons.
	Delta float64 `yaml:"delta,omitempty"`

	// State is the instance state after the call: instantiated,
	// initialized, terminated, error or freed.
	State string `yaml:"state,omitempty"`
}

// Assertion types.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
	AssertLiveInstances = "live_instances"
	AssertLogContains   = "log_contains"
)

// Assertion validates the trace or the runtime after the run.
type Assertion struct {
	Type string `yaml:"type"`

	// trace_contains, trace_count.
	Call   string `yaml:"call,omitempty"`
	Status string `yaml:"status,omitempty"`

	// trace_order.
	Calls []string `yaml:"calls,omitempty"`

	// trace_count, live_instances.
	Count int `yaml:"count,omitempty"`

	// final_state, log_contains, trace_contains.
	Instance string `yaml:"instance,omitempty"`
	State    string `yaml:"state,omitempty"`

	// log_contains.
	Message string `yaml:"message,omitempty"`
}

// LoadScenario reads a scenario file. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario document.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Call == "" {
			return fmt.Errorf("steps[%d]: call is required", i)
		}
		if !knownCalls[step.Call] {
			return fmt.Errorf("steps[%d]: unknown call %q", i, step.Call)
		}
		if isSet(step.Call) && len(step.Values) != len(step.Refs) {
			return fmt.Errorf("steps[%d]: %d refs but %d values", i, len(step.Refs), len(step.Values))
		}
		if e := step.Expect; e != nil {
			if e.Status != "" && e.Status != "ok" && e.Status != "error" {
				return fmt.Errorf("steps[%d].expect: status must be ok or error, got %q", i, e.Status)
			}
			if len(e.Values) > 0 && !isGet(step.Call) {
				return fmt.Errorf("steps[%d].expect: values only apply to get calls", i)
			}
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertTraceContains:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Calls) == 0 {
			return fmt.Errorf("assertions[%d]: calls list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Call == "" {
			return fmt.Errorf("assertions[%d]: call is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertFinalState:
		if a.State == "" {
			return fmt.Errorf("assertions[%d]: state is required for final_state", index)
		}
	case AssertLiveInstances:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for live_instances", index)
		}
	case AssertLogContains:
		if a.Message == "" {
			return fmt.Errorf("assertions[%d]: message is required for log_contains", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

func isSet(call string) bool {
	switch call {
	case CallSetReal, CallSetInteger, CallSetBoolean, CallSetString:
		return true
	}
	return false
}

func isGet(call string) bool {
	switch call {
	case CallGetReal, CallGetInteger, CallGetBoolean:
		return true
	}
	return false
}
