package runtime

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fmigen/pkg/description"
	"github.com/roach88/fmigen/pkg/ir"
)

const testGUID = "{8c4e810f-3df3-4a00-8276-176fa3c9f000}"

type counter struct {
	Gain    float64
	Out     float64
	Count   int32
	Enabled bool

	failWith  error
	panicNext bool
}

func (c *counter) DoStep(t, h float64) error {
	if c.panicNext {
		panic("boom")
	}
	if c.failWith != nil {
		err := c.failWith
		c.failWith = nil
		return err
	}
	if c.Enabled {
		c.Out += c.Gain * h
		c.Count++
	}
	return nil
}

func counterModel() *ir.Model {
	gain := ir.RealValue(2)
	enabled := ir.BooleanValue(true)
	return &ir.Model{
		Metadata:   ir.Metadata{Name: "Counter", GUID: testGUID},
		Experiment: ir.DefaultExperiment(),
		Table: ir.NewTable(
			ir.Variable{Name: "gain", Kind: ir.KindReal, Causality: ir.CausalityParameter, ValueReference: 0, Start: &gain},
			ir.Variable{Name: "out", Kind: ir.KindReal, Causality: ir.CausalityOutput, ValueReference: 1},
			ir.Variable{Name: "count", Kind: ir.KindInteger, Causality: ir.CausalityOutput, ValueReference: 2},
			ir.Variable{Name: "enabled", Kind: ir.KindBoolean, Causality: ir.CausalityInput, ValueReference: 3, Start: &enabled},
		),
	}
}

func counterDefinition(t *testing.T) *Definition {
	t.Helper()
	m := counterModel()
	tmpl, err := description.Synthesize(m, description.Options{})
	require.NoError(t, err)

	return &Definition{
		Metadata:  m.Metadata,
		Variables: m.Table,
		Template:  tmpl,
		New:       func() Model { return &counter{Gain: 2, Enabled: true} },
		Reals: map[ir.ValueReference]Accessor[float64]{
			0: {
				Get: func(m Model) float64 { return m.(*counter).Gain },
				Set: func(m Model, v float64) { m.(*counter).Gain = v },
			},
			1: {
				Get: func(m Model) float64 { return m.(*counter).Out },
				Set: func(m Model, v float64) { m.(*counter).Out = v },
			},
		},
		Integers: map[ir.ValueReference]Accessor[int32]{
			2: {Get: func(m Model) int32 { return m.(*counter).Count }},
		},
		Booleans: map[ir.ValueReference]Accessor[bool]{
			3: {
				Get: func(m Model) bool { return m.(*counter).Enabled },
				Set: func(m Model, v bool) { m.(*counter).Enabled = v },
			},
		},
	}
}

func instantiate(t *testing.T, r *Runtime) Handle {
	t.Helper()
	h, err := r.Instantiate(InstantiateRequest{InstanceName: "c1", GUID: testGUID})
	require.NoError(t, err)
	require.NotZero(t, h)
	return h
}

func modelOf(t *testing.T, r *Runtime, h Handle) *counter {
	t.Helper()
	inst, ok := r.instances.Lookup(h)
	require.True(t, ok)
	return inst.model.(*counter)
}

func requireState(t *testing.T, r *Runtime, h Handle, want State) {
	t.Helper()
	got, err := r.State(h)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLifecycle(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)
	requireState(t, r, h, StateInstantiated)

	require.NoError(t, r.SetupExperiment(h, Experiment{StartTime: 0, StopTimeDefined: true, StopTime: 1}))
	require.NoError(t, r.EnterInitializationMode(h))
	requireState(t, r, h, StateInitialized)

	require.NoError(t, r.SetReal(h, []ir.ValueReference{0}, []float64{4}))

	require.NoError(t, r.ExitInitializationMode(h))
	requireState(t, r, h, StateInstantiated)

	require.NoError(t, r.DoStep(h, 0, 0.5))
	require.NoError(t, r.DoStep(h, 0.5, 0.25))

	info, err := r.Info(h)
	require.NoError(t, err)
	assert.Equal(t, "c1", info.Name)
	assert.Equal(t, 0.75, info.Time)
	assert.True(t, info.Experiment.StopTimeDefined)

	out := make([]float64, 1)
	require.NoError(t, r.GetReal(h, []ir.ValueReference{1}, out))
	assert.Equal(t, 3.0, out[0])

	count := make([]int32, 1)
	require.NoError(t, r.GetInteger(h, []ir.ValueReference{2}, count))
	assert.Equal(t, int32(2), count[0])

	require.NoError(t, r.Terminate(h))
	requireState(t, r, h, StateTerminated)

	require.NoError(t, r.Free(h))
	assert.Equal(t, 0, r.Instances())
}

func TestIllegalTransitionsLeaveStateUnchanged(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	err := r.ExitInitializationMode(h)
	assert.ErrorIs(t, err, ErrInvalidState)
	requireState(t, r, h, StateInstantiated)

	require.NoError(t, r.EnterInitializationMode(h))
	assert.ErrorIs(t, r.EnterInitializationMode(h), ErrInvalidState)
	assert.ErrorIs(t, r.SetupExperiment(h, Experiment{}), ErrInvalidState)
	assert.ErrorIs(t, r.DoStep(h, 0, 0.1), ErrInvalidState)
	requireState(t, r, h, StateInitialized)

	require.NoError(t, r.Terminate(h))
	assert.ErrorIs(t, r.DoStep(h, 0, 0.1), ErrInvalidState)
	requireState(t, r, h, StateTerminated)
}

func TestGUIDMismatchCreatesNothing(t *testing.T) {
	var messages []string
	r := New(counterDefinition(t))

	h, err := r.Instantiate(InstantiateRequest{
		InstanceName: "wrong",
		GUID:         "{00000000-0000-0000-0000-000000000000}",
		Sink: func(s Status, category, msg string) {
			messages = append(messages, fmt.Sprintf("%s %s %s", s, category, msg))
		},
	})
	require.ErrorIs(t, err, ErrGUIDMismatch)
	assert.Zero(t, h)
	assert.Equal(t, 0, r.Instances())
	require.Len(t, messages, 1)
	assert.True(t, strings.HasPrefix(messages[0], "error logStatusError"))
}

func TestInstantiateWithoutDefinition(t *testing.T) {
	var messages []string
	r := New(nil)
	_, err := r.Instantiate(InstantiateRequest{
		GUID: testGUID,
		Sink: func(s Status, category, msg string) { messages = append(messages, msg) },
	})
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Equal(t, []string{ErrNotRegistered.Error()}, messages)
}

func TestBatchedSetIsPartiallyApplied(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	err := r.SetReal(h, []ir.ValueReference{0, 99, 1}, []float64{5, 6, 7})
	require.ErrorIs(t, err, ErrInvalidValueReference)
	assert.Equal(t, StatusError, StatusOf(err))

	m := modelOf(t, r, h)
	assert.Equal(t, 5.0, m.Gain, "entries before the invalid reference stay applied")
	assert.Equal(t, 0.0, m.Out, "entries after the invalid reference are not applied")
}

func TestValueAccessErrors(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	// wrong kind: 3 is Boolean
	assert.ErrorIs(t, r.GetReal(h, []ir.ValueReference{3}, make([]float64, 1)), ErrInvalidValueReference)
	// known reference without a setter
	err := r.SetInteger(h, []ir.ValueReference{2}, []int32{1})
	assert.ErrorIs(t, err, ErrReadOnly)
	assert.NotErrorIs(t, err, ErrInvalidValueReference)
	// length mismatch
	assert.ErrorIs(t, r.GetReal(h, []ir.ValueReference{0, 1}, make([]float64, 1)), ErrInvalidArgument)
	// empty batch is a no-op
	assert.NoError(t, r.GetReal(h, nil, nil))
	assert.NoError(t, r.SetBoolean(h, []ir.ValueReference{}, []bool{}))

	require.NoError(t, r.SetBoolean(h, []ir.ValueReference{3}, []bool{false}))
	got := make([]bool, 1)
	require.NoError(t, r.GetBoolean(h, []ir.ValueReference{3}, got))
	assert.False(t, got[0])
}

func TestStringAccessUnsupported(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	assert.ErrorIs(t, r.GetString(h, []ir.ValueReference{0}), ErrUnsupported)
	assert.ErrorIs(t, r.SetString(h, []ir.ValueReference{0}, []string{"x"}), ErrUnsupported)
	requireState(t, r, h, StateInstantiated)
}

func TestStepErrorIsRecoverable(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	modelOf(t, r, h).failWith = errors.New("solver diverged")
	err := r.DoStep(h, 0, 0.1)
	require.ErrorIs(t, err, ErrStepFailed)
	assert.Contains(t, err.Error(), "solver diverged")
	requireState(t, r, h, StateInstantiated)

	assert.NoError(t, r.DoStep(h, 0, 0.1))
}

func TestFatalStepErrorIsSticky(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	modelOf(t, r, h).failWith = fmt.Errorf("lost state: %w", ErrFatal)
	require.ErrorIs(t, r.DoStep(h, 0, 0.1), ErrFatal)
	requireState(t, r, h, StateError)

	assert.ErrorIs(t, r.GetReal(h, []ir.ValueReference{0}, make([]float64, 1)), ErrErrorState)
	assert.ErrorIs(t, r.Reset(h), ErrErrorState)
	assert.ErrorIs(t, r.Terminate(h), ErrErrorState)
	requireState(t, r, h, StateError)

	assert.NoError(t, r.Free(h))
}

func TestPanicMovesToErrorState(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	modelOf(t, r, h).panicNext = true
	err := r.DoStep(h, 0, 0.1)
	require.ErrorIs(t, err, ErrStepFailed)
	assert.Contains(t, err.Error(), "boom")
	requireState(t, r, h, StateError)
}

func TestDoStepRejectsNonPositiveStep(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)
	assert.ErrorIs(t, r.DoStep(h, 0, 0), ErrInvalidArgument)
}

func TestFreeExactlyOnce(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	require.NoError(t, r.Free(h))
	assert.ErrorIs(t, r.Free(h), ErrInvalidHandle)
	assert.ErrorIs(t, r.DoStep(h, 0, 0.1), ErrInvalidHandle)
	_, err := r.State(h)
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestStaleHandleDoesNotReachNewInstance(t *testing.T) {
	r := New(counterDefinition(t))
	old := instantiate(t, r)
	require.NoError(t, r.Free(old))

	fresh := instantiate(t, r)
	assert.ErrorIs(t, r.SetReal(old, []ir.ValueReference{0}, []float64{9}), ErrInvalidHandle)
	assert.Equal(t, 2.0, modelOf(t, r, fresh).Gain)
}

func TestResetRestoresStartValues(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	require.NoError(t, r.SetReal(h, []ir.ValueReference{0}, []float64{10}))
	require.NoError(t, r.DoStep(h, 0, 1))
	require.NoError(t, r.Terminate(h))

	require.NoError(t, r.Reset(h))
	requireState(t, r, h, StateInstantiated)

	values := make([]float64, 2)
	require.NoError(t, r.GetReal(h, []ir.ValueReference{0, 1}, values))
	assert.Equal(t, []float64{2, 0}, values)
}

func TestInstancesAreIndependent(t *testing.T) {
	r := New(counterDefinition(t))
	a := instantiate(t, r)
	b := instantiate(t, r)

	require.NoError(t, r.SetReal(a, []ir.ValueReference{0}, []float64{100}))
	assert.Equal(t, 2.0, modelOf(t, r, b).Gain)
	assert.Equal(t, 2, r.Instances())
}

func TestDescribeUsesConstructorValues(t *testing.T) {
	def := counterDefinition(t)
	def.New = func() Model { return &counter{Gain: 7.5, Enabled: false} }

	doc, err := def.Describe()
	require.NoError(t, err)
	assert.Contains(t, string(doc), `<Real start="7.5"/>`)
	assert.Contains(t, string(doc), `<Boolean start="false"/>`)
	assert.Equal(t, "Counter", def.ModelName())
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, StatusOK, StatusOf(nil))
	for _, err := range []error{ErrInvalidHandle, ErrGUIDMismatch, ErrInvalidState, ErrErrorState, ErrInvalidArgument, ErrInvalidValueReference, ErrUnsupported, ErrStepFailed} {
		assert.Equal(t, StatusError, StatusOf(err), err.Error())
	}
	assert.Equal(t, "error", StatusError.String())
}

func TestSetOutputReference(t *testing.T) {
	r := New(counterDefinition(t))
	h := instantiate(t, r)

	// 1 is an Output; writes reach the field like any other variable
	require.NoError(t, r.SetReal(h, []ir.ValueReference{1}, []float64{5}))
	got := make([]float64, 1)
	require.NoError(t, r.GetReal(h, []ir.ValueReference{1}, got))
	assert.Equal(t, 5.0, got[0])
	requireState(t, r, h, StateInstantiated)
}
