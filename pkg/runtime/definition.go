package runtime

import (
	"fmt"

	"github.com/roach88/fmigen/pkg/description"
	"github.com/roach88/fmigen/pkg/ir"
)

// Model is the user-supplied simulation model. DoStep advances the model
// from currentTime by stepSize.
type Model interface {
	DoStep(currentTime, stepSize float64) error
}

// Accessor reads and writes one variable of a model. Get and Set are
// independent. Generated code sets both for every variable; a hand-written
// definition can leave Set nil to reject writes with ErrReadOnly.
type Accessor[T any] struct {
	Get func(Model) T
	Set func(Model, T)
}

// Definition is everything the runtime knows about one model type. It is
// produced by generated code and registered once per plugin.
type Definition struct {
	Metadata  ir.Metadata
	Variables *ir.Table
	Template  description.Template

	// New returns a model holding its start values.
	New func() Model

	Reals    map[ir.ValueReference]Accessor[float64]
	Integers map[ir.ValueReference]Accessor[int32]
	Booleans map[ir.ValueReference]Accessor[bool]
}

// ModelName returns the canonical model name.
func (d *Definition) ModelName() string {
	return d.Metadata.Name
}

// Describe renders the model description with start values read from a
// freshly constructed model.
func (d *Definition) Describe() ([]byte, error) {
	if d.New == nil {
		return nil, fmt.Errorf("describe %s: %w", d.Metadata.Name, ErrNotRegistered)
	}
	return d.Template.Render(d.StartValues(d.New()))
}

// StartValues reads the current value of every Parameter and Input variable.
func (d *Definition) StartValues(m Model) description.Values {
	values := make(description.Values)
	for _, v := range d.Variables.Variables() {
		if !v.Causality.HasStart() {
			continue
		}
		switch v.Kind {
		case ir.KindReal:
			if acc, ok := d.Reals[v.ValueReference]; ok && acc.Get != nil {
				values[v.ValueReference] = ir.RealValue(acc.Get(m))
			}
		case ir.KindInteger:
			if acc, ok := d.Integers[v.ValueReference]; ok && acc.Get != nil {
				values[v.ValueReference] = ir.IntegerValue(acc.Get(m))
			}
		case ir.KindBoolean:
			if acc, ok := d.Booleans[v.ValueReference]; ok && acc.Get != nil {
				values[v.ValueReference] = ir.BooleanValue(acc.Get(m))
			}
		}
	}
	return values
}
