// Package runtime implements the FMI 2.0 co-simulation lifecycle behind a
// generated plugin.
//
// A Runtime owns every instance created by one loaded plugin. Instances are
// addressed by generation-checked handles; the handle table is shared and
// locked, while calls on a single instance are assumed to be serialized by
// the host and are not locked.
//
// Every operation returns an error; StatusOf maps it to the status reported
// across the C boundary. Preconditions that fail (unknown handle, wrong
// state, unknown value reference) never panic.
package runtime

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/roach88/fmigen/pkg/ir"
)

// State is the lifecycle state of an instance.
type State int

const (
	StateInstantiated State = iota
	StateInitialized
	StateTerminated
	StateError
)

var stateNames = map[State]string{
	StateInstantiated: "instantiated",
	StateInitialized:  "initialized",
	StateTerminated:   "terminated",
	StateError:        "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Experiment holds the values passed to SetupExperiment.
type Experiment struct {
	ToleranceDefined bool    `json:"tolerance_defined"`
	Tolerance        float64 `json:"tolerance"`
	StartTime        float64 `json:"start_time"`
	StopTimeDefined  bool    `json:"stop_time_defined"`
	StopTime         float64 `json:"stop_time"`
}

// InstantiateRequest carries the arguments of fmi2Instantiate.
type InstantiateRequest struct {
	InstanceName string
	GUID         string
	LoggingOn    bool
	Sink         LogSink // may be nil
}

// Instance is one live model instance.
type Instance struct {
	name       string
	model      Model
	state      State
	experiment Experiment
	time       float64
	categories map[string]bool
	level      zap.AtomicLevel
	log        *zap.Logger
}

func (i *Instance) acceptCategory(category string) bool {
	if len(i.categories) == 0 {
		return true
	}
	return i.categories[category] || i.categories[CategoryAll]
}

// fail logs err for the host and returns it.
func (i *Instance) fail(op string, err error) error {
	i.log.Error(op+": "+err.Error(), zap.String("state", i.state.String()))
	return err
}

// Runtime dispatches FMI calls to instances of one model definition.
type Runtime struct {
	def       *Definition
	instances *HandleTable[*Instance]
	logger    *zap.Logger
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the developer-side logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// New creates a runtime for def.
func New(def *Definition, opts ...Option) *Runtime {
	r := &Runtime{
		def:       def,
		instances: NewHandleTable[*Instance](),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Definition returns the model definition served by this runtime.
func (r *Runtime) Definition() *Definition {
	return r.def
}

// Instances returns the number of live instances.
func (r *Runtime) Instances() int {
	return r.instances.Len()
}

// Instantiate creates an instance in the Instantiated state. A GUID that
// does not match the model is rejected before anything is allocated.
//
// Every failure is reported once to req.Sink; callers must not forward the
// returned error to the same sink.
func (r *Runtime) Instantiate(req InstantiateRequest) (Handle, error) {
	h, err := r.instantiate(req)
	if err != nil {
		r.logger.Warn("instantiate rejected", zap.String("instance", req.InstanceName), zap.Error(err))
		if req.Sink != nil {
			req.Sink(StatusError, CategoryStatusError, err.Error())
		}
		return 0, err
	}
	return h, nil
}

func (r *Runtime) instantiate(req InstantiateRequest) (Handle, error) {
	if r.def == nil || r.def.New == nil {
		return 0, ErrNotRegistered
	}
	if req.GUID != r.def.Metadata.GUID {
		return 0, fmt.Errorf("%w: got %q, want %q", ErrGUIDMismatch, req.GUID, r.def.Metadata.GUID)
	}

	inst := &Instance{
		name:  req.InstanceName,
		model: r.def.New(),
		state: StateInstantiated,
		level: zap.NewAtomicLevelAt(loggingLevel(req.LoggingOn)),
	}
	inst.log = instanceLogger(r.logger, req.InstanceName, req.Sink, inst.level, inst.acceptCategory)

	h, ok := r.instances.Acquire(inst)
	if !ok {
		return 0, ErrTooManyInstances
	}
	inst.log.Info("instantiated", zap.String("model", r.def.Metadata.Name))
	return h, nil
}

// Free releases an instance. It succeeds exactly once per handle and is the
// only operation accepted in the Error state.
func (r *Runtime) Free(h Handle) error {
	inst, ok := r.instances.Release(h)
	if !ok {
		return ErrInvalidHandle
	}
	inst.log.Debug("freed")
	return nil
}

// State reports the lifecycle state of an instance.
func (r *Runtime) State(h Handle) (State, error) {
	inst, ok := r.instances.Lookup(h)
	if !ok {
		return 0, ErrInvalidHandle
	}
	return inst.state, nil
}

// InstanceInfo is a snapshot of an instance's bookkeeping.
type InstanceInfo struct {
	Name       string     `json:"name"`
	State      State      `json:"-"`
	Experiment Experiment `json:"experiment"`
	Time       float64    `json:"time"` // communication point reached by the last successful step
}

// Info returns a snapshot of an instance, including instances in the Error
// state.
func (r *Runtime) Info(h Handle) (InstanceInfo, error) {
	inst, ok := r.instances.Lookup(h)
	if !ok {
		return InstanceInfo{}, ErrInvalidHandle
	}
	return InstanceInfo{
		Name:       inst.name,
		State:      inst.state,
		Experiment: inst.experiment,
		Time:       inst.time,
	}, nil
}

// live resolves a handle to an instance that is not in the Error state.
func (r *Runtime) live(h Handle) (*Instance, error) {
	inst, ok := r.instances.Lookup(h)
	if !ok {
		return nil, ErrInvalidHandle
	}
	if inst.state == StateError {
		return nil, ErrErrorState
	}
	return inst, nil
}

// SetDebugLogging toggles forwarding of debug messages to the host and
// optionally restricts forwarding to the given categories.
func (r *Runtime) SetDebugLogging(h Handle, on bool, categories []string) error {
	inst, err := r.live(h)
	if err != nil {
		return err
	}
	inst.level.SetLevel(loggingLevel(on))
	inst.categories = nil
	if len(categories) > 0 {
		inst.categories = make(map[string]bool, len(categories))
		for _, c := range categories {
			inst.categories[c] = true
		}
	}
	return nil
}

// SetupExperiment records the experiment parameters. Only accepted before
// initialization.
func (r *Runtime) SetupExperiment(h Handle, e Experiment) error {
	inst, err := r.live(h)
	if err != nil {
		return err
	}
	if inst.state != StateInstantiated {
		return inst.fail("setupExperiment", fmt.Errorf("%w: %s", ErrInvalidState, inst.state))
	}
	inst.experiment = e
	inst.time = e.StartTime
	return nil
}

// EnterInitializationMode moves Instantiated to Initialized.
func (r *Runtime) EnterInitializationMode(h Handle) error {
	return r.transition(h, "enterInitializationMode", StateInstantiated, StateInitialized)
}

// ExitInitializationMode moves Initialized back to Instantiated, where the
// instance is ready to step.
func (r *Runtime) ExitInitializationMode(h Handle) error {
	return r.transition(h, "exitInitializationMode", StateInitialized, StateInstantiated)
}

func (r *Runtime) transition(h Handle, op string, from, to State) error {
	inst, err := r.live(h)
	if err != nil {
		return err
	}
	if inst.state != from {
		return inst.fail(op, fmt.Errorf("%w: %s", ErrInvalidState, inst.state))
	}
	inst.state = to
	inst.log.Debug(op, zap.String("state", to.String()))
	return nil
}

// Terminate moves any live instance to Terminated.
func (r *Runtime) Terminate(h Handle) error {
	inst, err := r.live(h)
	if err != nil {
		return err
	}
	inst.state = StateTerminated
	inst.log.Debug("terminated")
	return nil
}

// Reset restores the model's start values and returns to Instantiated.
func (r *Runtime) Reset(h Handle) error {
	inst, err := r.live(h)
	if err != nil {
		return err
	}
	inst.model = r.def.New()
	inst.state = StateInstantiated
	inst.experiment = Experiment{}
	inst.time = 0
	inst.log.Debug("reset")
	return nil
}

// DoStep advances the model. A step error is reported as an error without
// changing state; an error wrapping ErrFatal, or a panic, moves the instance
// to the Error state.
func (r *Runtime) DoStep(h Handle, currentTime, stepSize float64) (err error) {
	inst, err := r.live(h)
	if err != nil {
		return err
	}
	if inst.state != StateInstantiated {
		return inst.fail("doStep", fmt.Errorf("%w: %s", ErrInvalidState, inst.state))
	}
	if stepSize <= 0 {
		return inst.fail("doStep", fmt.Errorf("%w: step size %g", ErrInvalidArgument, stepSize))
	}

	defer func() {
		if p := recover(); p != nil {
			inst.state = StateError
			err = inst.fail("doStep", fmt.Errorf("%w: panic at t=%g: %v", ErrStepFailed, currentTime, p))
		}
	}()

	if stepErr := inst.model.DoStep(currentTime, stepSize); stepErr != nil {
		if errors.Is(stepErr, ErrFatal) {
			inst.state = StateError
		}
		return inst.fail("doStep", fmt.Errorf("%w at t=%g: %w", ErrStepFailed, currentTime, stepErr))
	}
	inst.time = currentTime + stepSize
	return nil
}

// GetReal reads Real variables into values, in reference order.
func (r *Runtime) GetReal(h Handle, vrs []ir.ValueReference, values []float64) error {
	return get(r, h, "getReal", r.def.Reals, vrs, values)
}

// SetReal writes Real variables in reference order. Entries before the first
// invalid reference remain applied.
func (r *Runtime) SetReal(h Handle, vrs []ir.ValueReference, values []float64) error {
	return set(r, h, "setReal", r.def.Reals, vrs, values)
}

// GetInteger reads Integer variables.
func (r *Runtime) GetInteger(h Handle, vrs []ir.ValueReference, values []int32) error {
	return get(r, h, "getInteger", r.def.Integers, vrs, values)
}

// SetInteger writes Integer variables with the same partial-application
// semantics as SetReal.
func (r *Runtime) SetInteger(h Handle, vrs []ir.ValueReference, values []int32) error {
	return set(r, h, "setInteger", r.def.Integers, vrs, values)
}

// GetBoolean reads Boolean variables.
func (r *Runtime) GetBoolean(h Handle, vrs []ir.ValueReference, values []bool) error {
	return get(r, h, "getBoolean", r.def.Booleans, vrs, values)
}

// SetBoolean writes Boolean variables with the same partial-application
// semantics as SetReal.
func (r *Runtime) SetBoolean(h Handle, vrs []ir.ValueReference, values []bool) error {
	return set(r, h, "setBoolean", r.def.Booleans, vrs, values)
}

// GetString is not supported: models have no String variables.
func (r *Runtime) GetString(h Handle, vrs []ir.ValueReference) error {
	return r.Unsupported(h, "getString")
}

// SetString is not supported.
func (r *Runtime) SetString(h Handle, vrs []ir.ValueReference, values []string) error {
	return r.Unsupported(h, "setString")
}

// Unsupported reports an FMI entry point that this runtime does not
// implement.
func (r *Runtime) Unsupported(h Handle, op string) error {
	err := fmt.Errorf("%s: %w", op, ErrUnsupported)
	if inst, ok := r.instances.Lookup(h); ok {
		inst.log.Error(err.Error())
	}
	return err
}

func get[T any](r *Runtime, h Handle, op string, accessors map[ir.ValueReference]Accessor[T], vrs []ir.ValueReference, values []T) error {
	inst, err := r.live(h)
	if err != nil {
		return err
	}
	if len(vrs) != len(values) {
		return inst.fail(op, fmt.Errorf("%w: %d references, %d values", ErrInvalidArgument, len(vrs), len(values)))
	}
	for i, vr := range vrs {
		acc, ok := accessors[vr]
		if !ok || acc.Get == nil {
			return inst.fail(op, fmt.Errorf("%w: %d", ErrInvalidValueReference, vr))
		}
		values[i] = acc.Get(inst.model)
	}
	return nil
}

func set[T any](r *Runtime, h Handle, op string, accessors map[ir.ValueReference]Accessor[T], vrs []ir.ValueReference, values []T) error {
	inst, err := r.live(h)
	if err != nil {
		return err
	}
	if len(vrs) != len(values) {
		return inst.fail(op, fmt.Errorf("%w: %d references, %d values", ErrInvalidArgument, len(vrs), len(values)))
	}
	for i, vr := range vrs {
		acc, ok := accessors[vr]
		if !ok {
			return inst.fail(op, fmt.Errorf("%w: %d", ErrInvalidValueReference, vr))
		}
		if acc.Set == nil {
			return inst.fail(op, fmt.Errorf("%w: %d", ErrReadOnly, vr))
		}
		acc.Set(inst.model, values[i])
	}
	return nil
}
