package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s -> %s (%s)\n", ev.Seq, ev.Call, ev.Instance, ev.Status, ev.State)
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure
// messages. h may be nil, in which case state assertions fail.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var failures []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(h, a)
		case AssertLiveInstances:
			err = assertLiveInstances(h, a)
		case AssertLogContains:
			err = assertLogContains(result.Logs, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			failures = append(failures, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return failures
}

func (a Assertion) matches(ev TraceEvent) bool {
	if ev.Call != a.Call {
		return false
	}
	if a.Status != "" && ev.Status != a.Status {
		return false
	}
	if a.Instance != "" && ev.Instance != a.Instance {
		return false
	}
	return a.State == "" || ev.State == a.State
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if a.matches(ev) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: describe(a),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the first occurrences of the calls appear in
// the given order. Other calls may appear in between.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	pos := 0
	for _, want := range a.Calls {
		found := false
		for pos < len(trace) {
			pos++
			if trace[pos-1].Call == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("calls in order: %v", a.Calls),
				Actual:   fmt.Sprintf("%s not found after position %d", want, pos),
				Trace:    trace,
			}
		}
	}
	return nil
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, ev := range trace {
		if a.matches(ev) {
			count++
		}
	}
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%s exactly %d times", describe(a), a.Count),
			Actual:   fmt.Sprintf("found %d times", count),
			Trace:    trace,
		}
	}
	return nil
}

func assertFinalState(h *Harness, a Assertion) error {
	if h == nil {
		return fmt.Errorf("final_state needs a runtime")
	}
	name := a.Instance
	if name == "" {
		name = DefaultInstance
	}
	if got := h.stateOf(name); got != a.State {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("instance %s in state %s", name, a.State),
			Actual:   got,
			Trace:    h.result.Trace,
		}
	}
	return nil
}

func assertLiveInstances(h *Harness, a Assertion) error {
	if h == nil {
		return fmt.Errorf("live_instances needs a runtime")
	}
	if got := h.rt.Instances(); got != a.Count {
		return &AssertionError{
			Type:     AssertLiveInstances,
			Expected: fmt.Sprintf("%d live instances", a.Count),
			Actual:   fmt.Sprintf("%d", got),
		}
	}
	return nil
}

func assertLogContains(logs []LogEvent, a Assertion) error {
	for _, l := range logs {
		if a.Instance != "" && l.Instance != a.Instance {
			continue
		}
		if a.Status != "" && l.Status != a.Status {
			continue
		}
		if strings.Contains(l.Message, a.Message) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertLogContains,
		Expected: fmt.Sprintf("a log message containing %q", a.Message),
		Actual:   fmt.Sprintf("%d messages, none matching", len(logs)),
	}
}

func describe(a Assertion) string {
	s := a.Call
	if a.Instance != "" {
		s += " on " + a.Instance
	}
	if a.Status != "" {
		s += " with status " + a.Status
	}
	if a.State != "" {
		s += " leaving state " + a.State
	}
	return s
}
