package testutil

import (
	"fmt"
	"math"

	"github.com/roach88/fmigen/pkg/description"
	"github.com/roach88/fmigen/pkg/ir"
	"github.com/roach88/fmigen/pkg/runtime"
)

// OscillatorGUID is the GUID of the Oscillator fixture.
const OscillatorGUID = "{6f1d0c52-7a0e-4d8b-9a43-0c1f5e2b7d10}"

// Oscillator is a small sine source used as a model in runtime-level tests.
type Oscillator struct {
	Frequency float64
	Amplitude float64
	Y         float64
	Steps     int32
	Enabled   bool
}

// DoStep computes the output at the end of the step. A negative frequency
// fails the step; a non-finite amplitude is fatal.
func (o *Oscillator) DoStep(t, h float64) error {
	if math.IsNaN(o.Amplitude) || math.IsInf(o.Amplitude, 0) {
		return fmt.Errorf("amplitude %g: %w", o.Amplitude, runtime.ErrFatal)
	}
	if o.Frequency < 0 {
		return fmt.Errorf("negative frequency %g", o.Frequency)
	}
	if o.Enabled {
		o.Y = o.Amplitude * math.Sin(2*math.Pi*o.Frequency*(t+h))
	}
	o.Steps++
	return nil
}

// OscillatorModel returns the compiled model of the Oscillator fixture.
func OscillatorModel() *ir.Model {
	return &ir.Model{
		Metadata: ir.Metadata{
			Name:        "Oscillator",
			Description: "Sine source",
			GUID:        OscillatorGUID,
		},
		Experiment: ir.DefaultExperiment(),
		GoType:     "Oscillator",
		Table: ir.NewTable(
			ir.Variable{Name: "frequency", Field: "Frequency", Kind: ir.KindReal, Causality: ir.CausalityParameter, ValueReference: 0, Unit: "Hz"},
			ir.Variable{Name: "amplitude", Field: "Amplitude", Kind: ir.KindReal, Causality: ir.CausalityParameter, ValueReference: 1},
			ir.Variable{Name: "y", Field: "Y", Kind: ir.KindReal, Causality: ir.CausalityOutput, ValueReference: 2},
			ir.Variable{Name: "steps", Field: "Steps", Kind: ir.KindInteger, Causality: ir.CausalityOutput, ValueReference: 3},
			ir.Variable{Name: "enabled", Field: "Enabled", Kind: ir.KindBoolean, Causality: ir.CausalityInput, ValueReference: 4},
		),
	}
}

// OscillatorDefinition returns a runtime definition for the Oscillator
// fixture, wired the same way generated code wires a user model.
func OscillatorDefinition() (*runtime.Definition, error) {
	m := OscillatorModel()
	tmpl, err := description.Synthesize(m, description.Options{})
	if err != nil {
		return nil, err
	}
	osc := func(m runtime.Model) *Oscillator { return m.(*Oscillator) }
	return &runtime.Definition{
		Metadata:  m.Metadata,
		Variables: m.Table,
		Template:  tmpl,
		New: func() runtime.Model {
			return &Oscillator{Frequency: 1, Amplitude: 1, Enabled: true}
		},
		Reals: map[ir.ValueReference]runtime.Accessor[float64]{
			0: {
				Get: func(m runtime.Model) float64 { return osc(m).Frequency },
				Set: func(m runtime.Model, v float64) { osc(m).Frequency = v },
			},
			1: {
				Get: func(m runtime.Model) float64 { return osc(m).Amplitude },
				Set: func(m runtime.Model, v float64) { osc(m).Amplitude = v },
			},
			2: {
				Get: func(m runtime.Model) float64 { return osc(m).Y },
				Set: func(m runtime.Model, v float64) { osc(m).Y = v },
			},
		},
		Integers: map[ir.ValueReference]runtime.Accessor[int32]{
			3: {
				Get: func(m runtime.Model) int32 { return osc(m).Steps },
				Set: func(m runtime.Model, v int32) { osc(m).Steps = v },
			},
		},
		Booleans: map[ir.ValueReference]runtime.Accessor[bool]{
			4: {
				Get: func(m runtime.Model) bool { return osc(m).Enabled },
				Set: func(m runtime.Model, v bool) { osc(m).Enabled = v },
			},
		},
	}, nil
}
