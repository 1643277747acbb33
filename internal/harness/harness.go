package harness

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/roach88/fmigen/pkg/ir"
	"github.com/roach88/fmigen/pkg/runtime"
)

// Option configures a run.
type Option func(*Harness)

// WithLogger sets the developer-side logger of the runtime under test.
func WithLogger(l *zap.Logger) Option {
	return func(h *Harness) { h.logger = l }
}

// Harness executes scenario steps against one runtime.
type Harness struct {
	def     *runtime.Definition
	rt      *runtime.Runtime
	handles map[string]runtime.Handle
	seq     int64
	logger  *zap.Logger
	result  *Result
}

// Run executes a scenario against a fresh runtime for def and returns the
// trace. Mismatched expectations and failed assertions are reported in the
// result; an error means the scenario itself could not be executed.
func Run(def *runtime.Definition, s *Scenario, opts ...Option) (*Result, error) {
	if def == nil {
		return nil, errors.New("nil model definition")
	}
	h := &Harness{
		def:     def,
		handles: make(map[string]runtime.Handle),
		logger:  zap.NewNop(),
		result:  NewResult(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.rt = runtime.New(def, runtime.WithLogger(h.logger))

	for i, step := range s.Steps {
		if err := h.execute(i, step); err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i, step.Call, err)
		}
	}

	for _, msg := range EvaluateAssertions(h.result, s.Assertions, h) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func alias(step Step) string {
	if step.Instance == "" {
		return DefaultInstance
	}
	return step.Instance
}

// stateOf names the state of the instance behind an alias.
func (h *Harness) stateOf(name string) string {
	handle, ok := h.handles[name]
	if !ok || handle == 0 {
		return "none"
	}
	st, err := h.rt.State(handle)
	if err != nil {
		return "freed"
	}
	return st.String()
}

func (h *Harness) execute(i int, step Step) error {
	name := alias(step)
	handle := h.handles[name]

	h.seq++
	ev := TraceEvent{Seq: h.seq, Call: step.Call, Instance: name, Refs: step.Refs}
	vrs := make([]ir.ValueReference, len(step.Refs))
	for j, r := range step.Refs {
		vrs[j] = ir.ValueReference(r)
	}

	var (
		err  error
		read []any
	)
	switch step.Call {
	case CallInstantiate:
		req := runtime.InstantiateRequest{
			InstanceName: step.Name,
			GUID:         h.def.Metadata.GUID,
			LoggingOn:    step.LoggingOn,
			Sink:         h.sink(name),
		}
		if req.InstanceName == "" {
			req.InstanceName = name
		}
		if step.GUID != nil {
			req.GUID = *step.GUID
		}
		var nh runtime.Handle
		nh, err = h.rt.Instantiate(req)
		h.handles[name] = nh
	case CallFree:
		err = h.rt.Free(handle)
	case CallSetDebugLogging:
		err = h.rt.SetDebugLogging(handle, step.LoggingOn, step.Categories)
	case CallSetupExperiment:
		e := runtime.Experiment{StartTime: step.Time}
		if step.StopTime != nil {
			e.StopTimeDefined, e.StopTime = true, *step.StopTime
		}
		if step.Tolerance != nil {
			e.ToleranceDefined, e.Tolerance = true, *step.Tolerance
		}
		ev.Args = []float64{step.Time}
		err = h.rt.SetupExperiment(handle, e)
	case CallEnterInitializationMode:
		err = h.rt.EnterInitializationMode(handle)
	case CallExitInitializationMode:
		err = h.rt.ExitInitializationMode(handle)
	case CallDoStep:
		ev.Args = []float64{step.Time, step.StepSize}
		err = h.rt.DoStep(handle, step.Time, step.StepSize)
	case CallTerminate:
		err = h.rt.Terminate(handle)
	case CallReset:
		err = h.rt.Reset(handle)
	case CallGetReal:
		values := make([]float64, len(vrs))
		if err = h.rt.GetReal(handle, vrs, values); err == nil {
			read = realSlice(values)
		}
	case CallGetInteger:
		values := make([]int32, len(vrs))
		if err = h.rt.GetInteger(handle, vrs, values); err == nil {
			read = anySlice(values)
		}
	case CallGetBoolean:
		values := make([]bool, len(vrs))
		if err = h.rt.GetBoolean(handle, vrs, values); err == nil {
			read = anySlice(values)
		}
	case CallSetReal:
		values, cerr := convertAll(step.Values, toReal)
		if cerr != nil {
			return cerr
		}
		ev.Values = realSlice(values)
		err = h.rt.SetReal(handle, vrs, values)
	case CallSetInteger:
		values, cerr := convertAll(step.Values, toInteger)
		if cerr != nil {
			return cerr
		}
		ev.Values = anySlice(values)
		err = h.rt.SetInteger(handle, vrs, values)
	case CallSetBoolean:
		values, cerr := convertAll(step.Values, toBoolean)
		if cerr != nil {
			return cerr
		}
		ev.Values = anySlice(values)
		err = h.rt.SetBoolean(handle, vrs, values)
	case CallGetString:
		err = h.rt.GetString(handle, vrs)
	case CallSetString:
		values := make([]string, len(step.Values))
		for j, v := range step.Values {
			values[j] = fmt.Sprint(v)
		}
		err = h.rt.SetString(handle, vrs, values)
	default:
		return fmt.Errorf("unknown call %q", step.Call)
	}

	if read != nil {
		ev.Values = read
	}
	ev.Status = runtime.StatusOf(err).String()
	ev.State = h.stateOf(name)
	h.result.Trace = append(h.result.Trace, ev)

	h.logger.Debug("step executed",
		zap.Int("step", i),
		zap.String("call", step.Call),
		zap.String("instance", name),
		zap.String("status", ev.Status),
		zap.Error(err))

	h.check(i, step, ev, err)
	return nil
}

// check compares a step's outcome with its expectation.
func (h *Harness) check(i int, step Step, ev TraceEvent, err error) {
	want := Expect{Status: "ok"}
	if step.Expect != nil {
		want = *step.Expect
		if want.Status == "" {
			want.Status = "ok"
		}
	}

	if ev.Status != want.Status {
		msg := fmt.Sprintf("step %d (%s): status %s, want %s", i, step.Call, ev.Status, want.Status)
		if err != nil {
			msg += ": " + err.Error()
		}
		h.result.AddError(msg)
		return
	}
	if want.State != "" && ev.State != want.State {
		h.result.AddError(fmt.Sprintf("step %d (%s): state %s, want %s", i, step.Call, ev.State, want.State))
	}
	if len(want.Values) > 0 {
		if len(want.Values) != len(ev.Values) {
			h.result.AddError(fmt.Sprintf("step %d (%s): read %d values, want %d", i, step.Call, len(ev.Values), len(want.Values)))
			return
		}
		for j := range want.Values {
			if !matchValue(want.Values[j], ev.Values[j], want.Delta) {
				h.result.AddError(fmt.Sprintf("step %d (%s): value %d (ref %d) = %v, want %v",
					i, step.Call, j, step.Refs[j], ev.Values[j], want.Values[j]))
			}
		}
	}
}

func (h *Harness) sink(name string) runtime.LogSink {
	return func(status runtime.Status, category, message string) {
		h.result.Logs = append(h.result.Logs, LogEvent{
			Instance: name,
			Status:   status.String(),
			Category: category,
			Message:  message,
		})
	}
}

func anySlice[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func realSlice(values []float64) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = Real(v)
	}
	return out
}

func convertAll[T any](values []any, conv func(any) (T, error)) ([]T, error) {
	out := make([]T, len(values))
	for i, v := range values {
		c, err := conv(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// toReal accepts YAML numbers and the special names nan, inf and -inf.
func toReal(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		switch v {
		case "nan":
			return math.NaN(), nil
		case "inf":
			return math.Inf(1), nil
		case "-inf":
			return math.Inf(-1), nil
		}
	}
	return 0, fmt.Errorf("%v (%T) is not a real", v, v)
}

func toInteger(v any) (int32, error) {
	switch v := v.(type) {
	case int:
		if v < math.MinInt32 || v > math.MaxInt32 {
			return 0, fmt.Errorf("%d overflows a 32-bit integer", v)
		}
		return int32(v), nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return 0, fmt.Errorf("%v is not a 32-bit integer", v)
		}
		return int32(v), nil
	}
	return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
}

func toBoolean(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("%v (%T) is not a boolean", v, v)
}

// matchValue compares an expected YAML value with a value read from the
// runtime.
func matchValue(want, got any, delta float64) bool {
	switch g := got.(type) {
	case Real:
		w, err := toReal(want)
		if err != nil {
			return false
		}
		if math.IsNaN(w) {
			return math.IsNaN(float64(g))
		}
		return w == float64(g) || math.Abs(w-float64(g)) <= delta
	case int32:
		w, err := toInteger(want)
		return err == nil && w == g
	case bool:
		w, err := toBoolean(want)
		return err == nil && w == g
	}
	return false
}
