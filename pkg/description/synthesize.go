// Package description renders FMI 2.0 modelDescription.xml documents.
//
// Synthesis happens at generation time and produces a Template: the complete
// document with a placeholder in place of every start value. The plugin
// resolves the placeholders at run time from a freshly constructed model, so
// the published start values are whatever the model's constructor produces.
package description

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/fmigen/pkg/ir"
)

// ErrUnresolvedKind is returned when a variable reaches synthesis without a
// resolved FMI type.
var ErrUnresolvedKind = errors.New("variable kind not resolved")

// Options control synthesis.
type Options struct {
	// Encoding is the IANA charset declared in the prolog and used by Render.
	// Defaults to UTF-8.
	Encoding string

	// Capabilities defaults to ir.DefaultCapabilities when nil.
	Capabilities *ir.Capabilities

	// GenerationTool defaults to ir.GenerationTool().
	GenerationTool string
}

const indent = "    "

// Synthesize renders the model description template for m.
//
// Element order is fixed: CoSimulation, UnitDefinitions, DefaultExperiment,
// ModelVariables, ModelStructure. Variables appear in table order; output
// indices are 1-based table positions.
func Synthesize(m *ir.Model, opts Options) (Template, error) {
	encoding := opts.Encoding
	if encoding == "" {
		encoding = "UTF-8"
	}
	if _, err := lookupEncoding(encoding); err != nil {
		return "", err
	}
	caps := ir.DefaultCapabilities()
	if opts.Capabilities != nil {
		caps = *opts.Capabilities
	}
	tool := opts.GenerationTool
	if tool == "" {
		tool = ir.GenerationTool()
	}

	w := &writer{}
	fmt.Fprintf(&w.b, "<?xml version=\"1.0\" encoding=\"%s\"?>\n", encoding)

	w.open("fmiModelDescription",
		attr("fmiVersion", ir.FMIVersion),
		attr("modelName", m.Name),
		attr("guid", m.GUID),
		attr("description", m.Description),
		attr("generationTool", tool),
		attr("variableNamingConvention", "flat"),
		attr("numberOfEventIndicators", "0"),
	)

	w.empty("CoSimulation",
		attr("modelIdentifier", m.Name),
		attr("canHandleVariableCommunicationStepSize", strconv.FormatBool(caps.CanHandleVariableCommunicationStepSize)),
		attr("canGetAndSetFMUstate", strconv.FormatBool(caps.CanGetAndSetFMUState)),
		attr("canSerializeFMUstate", strconv.FormatBool(caps.CanSerializeFMUState)),
		attr("providesDirectionalDerivative", strconv.FormatBool(caps.ProvidesDirectionalDerivative)),
		attr("canInterpolateInputs", strconv.FormatBool(caps.CanInterpolateInputs)),
	)

	units := m.Table.Units()
	if len(units) == 0 {
		w.empty("UnitDefinitions")
	} else {
		w.open("UnitDefinitions")
		for _, u := range units {
			w.empty("Unit", attr("name", u))
		}
		w.close("UnitDefinitions")
	}

	w.empty("DefaultExperiment",
		attr("startTime", ir.FormatReal(m.Experiment.StartTime)),
		attr("stopTime", ir.FormatReal(m.Experiment.StopTime)),
		attr("tolerance", ir.FormatReal(m.Experiment.Tolerance)),
		attr("stepSize", ir.FormatReal(m.Experiment.StepSize)),
	)

	vars := m.Table.Variables()
	if len(vars) == 0 {
		w.empty("ModelVariables")
	} else {
		w.open("ModelVariables")
		for _, v := range vars {
			if err := writeVariable(w, v); err != nil {
				return "", err
			}
		}
		w.close("ModelVariables")
	}

	w.open("ModelStructure")
	outputs := m.Table.Outputs()
	if len(outputs) == 0 {
		w.empty("Outputs")
	} else {
		w.open("Outputs")
		for _, idx := range outputs {
			w.empty("Unknown", attr("index", strconv.Itoa(idx)), attr("dependencies", ""))
		}
		w.close("Outputs")
	}
	w.close("ModelStructure")

	w.close("fmiModelDescription")
	return Template(w.b.String()), nil
}

func writeVariable(w *writer, v ir.Variable) error {
	if !v.Kind.Valid() {
		return fmt.Errorf("%w: %q (value reference %d)", ErrUnresolvedKind, v.Name, v.ValueReference)
	}

	w.open("ScalarVariable",
		attr("name", v.Name),
		attr("valueReference", strconv.FormatUint(uint64(v.ValueReference), 10)),
		attr("description", v.Description),
		attr("causality", v.Causality.String()),
		attr("variability", string(v.Variability())),
	)

	var attrs []attribute
	if v.Kind == ir.KindReal && v.Unit != "" {
		attrs = append(attrs, attr("unit", v.Unit))
	}
	if v.Causality.HasStart() {
		attrs = append(attrs, attribute{name: "start", value: placeholder(v.ValueReference), raw: true})
	}
	w.empty(v.Kind.String(), attrs...)

	w.close("ScalarVariable")
	return nil
}

// writer emits indented XML. encoding/xml cannot produce self-closing empty
// elements, so the few element shapes needed here are written directly.
type writer struct {
	b     strings.Builder
	depth int
}

type attribute struct {
	name  string
	value string
	raw   bool // value is written without escaping
}

func attr(name, value string) attribute {
	return attribute{name: name, value: value}
}

func (w *writer) start(name string, attrs []attribute) {
	w.b.WriteString(strings.Repeat(indent, w.depth))
	w.b.WriteByte('<')
	w.b.WriteString(name)
	for _, a := range attrs {
		w.b.WriteByte(' ')
		w.b.WriteString(a.name)
		w.b.WriteString(`="`)
		if a.raw {
			w.b.WriteString(a.value)
		} else {
			_ = xml.EscapeText(&w.b, []byte(a.value)) // strings.Builder never fails
		}
		w.b.WriteByte('"')
	}
}

func (w *writer) open(name string, attrs ...attribute) {
	w.start(name, attrs)
	w.b.WriteString(">\n")
	w.depth++
}

func (w *writer) empty(name string, attrs ...attribute) {
	w.start(name, attrs)
	w.b.WriteString("/>\n")
}

func (w *writer) close(name string) {
	w.depth--
	w.b.WriteString(strings.Repeat(indent, w.depth))
	w.b.WriteString("</")
	w.b.WriteString(name)
	w.b.WriteString(">\n")
}
