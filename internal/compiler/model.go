package compiler

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"cuelang.org/go/cue"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/fmigen/pkg/ir"
)

// GUIDGenerator produces model GUIDs for models that do not declare one.
type GUIDGenerator interface {
	Generate() string
}

// UUIDGenerator generates random RFC 4122 GUIDs in the braced form used by
// FMI tools, e.g. "{21d9f232-b090-4c79-933f-33da939b5934}".
//
// Thread-safety: UUIDGenerator is stateless and safe for concurrent use.
type UUIDGenerator struct{}

// Generate returns a new braced GUID.
func (UUIDGenerator) Generate() string {
	return "{" + uuid.NewString() + "}"
}

type options struct {
	guids      GUIDGenerator
	experiment ir.Experiment
}

// Option configures CompileModel.
type Option func(*options)

// WithGUIDGenerator overrides the generator used for models without a guid.
func WithGUIDGenerator(g GUIDGenerator) Option {
	return func(o *options) { o.guids = g }
}

// WithExperiment sets the experiment defaults that the model's own
// experiment block is layered on.
func WithExperiment(e ir.Experiment) Option {
	return func(o *options) { o.experiment = e }
}

// CompileModel parses a CUE model value into an ir.Model.
//
// The value should be the model struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`model: Sine: { ... }`)
//	m, err := CompileModel(v.LookupPath(cue.ParsePath("model.Sine")))
//
// Variables are allocated with BuildTable in CUE field order. A model
// without a guid gets a generated one.
func CompileModel(v cue.Value, opts ...Option) (*ir.Model, error) {
	o := options{guids: UUIDGenerator{}, experiment: ir.DefaultExperiment()}
	for _, opt := range opts {
		opt(&o)
	}

	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	m := &ir.Model{Experiment: o.experiment}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		m.Name = norm.NFC.String(labels[len(labels)-1].String())
	}

	var err error
	if m.Description, err = optionalString(v, "description"); err != nil {
		return nil, err
	}
	m.Description = norm.NFC.String(m.Description)

	if m.GUID, err = optionalString(v, "guid"); err != nil {
		return nil, err
	}
	if m.GUID == "" {
		m.GUID = o.guids.Generate()
	}

	if m.GoType, err = optionalString(v, "goType"); err != nil {
		return nil, err
	}
	if m.GoType == "" {
		m.GoType = m.Name
	}

	if err := parseExperiment(v, &m.Experiment); err != nil {
		return nil, err
	}

	decls, err := parseVariables(v)
	if err != nil {
		return nil, err
	}
	m.Table = BuildTable(decls)

	return m, nil
}

// parseExperiment overlays the optional experiment block.
func parseExperiment(v cue.Value, e *ir.Experiment) error {
	ev := v.LookupPath(cue.ParsePath("experiment"))
	if !ev.Exists() {
		return nil
	}
	fields := []struct {
		name string
		dst  *float64
	}{
		{"startTime", &e.StartTime},
		{"stopTime", &e.StopTime},
		{"tolerance", &e.Tolerance},
		{"stepSize", &e.StepSize},
	}
	for _, f := range fields {
		fv := ev.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			continue
		}
		x, err := fv.Float64()
		if err != nil {
			return &CompileError{Field: "experiment." + f.name, Message: "must be a number", Pos: fv.Pos()}
		}
		*f.dst = x
	}
	return nil
}

// parseVariables extracts declarations in field order.
func parseVariables(v cue.Value) ([]ir.Declaration, error) {
	vars := v.LookupPath(cue.ParsePath("variables"))
	if !vars.Exists() {
		return nil, nil // a model without variables is legal
	}

	iter, err := vars.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var decls []ir.Declaration
	for iter.Next() {
		d, err := parseDeclaration(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func parseDeclaration(name string, v cue.Value) (ir.Declaration, error) {
	d := ir.Declaration{Name: norm.NFC.String(name)}
	path := "variables." + name

	var err error
	if d.Field, err = optionalString(v, "field"); err != nil {
		return d, err
	}
	if d.Field == "" {
		d.Field = GoFieldName(name)
	}

	causality, err := optionalString(v, "causality")
	if err != nil {
		return d, err
	}
	if d.Causality, err = ir.ParseCausality(causality); err != nil {
		return d, &CompileError{Field: path + ".causality", Message: err.Error(), Pos: v.Pos()}
	}

	kind, err := optionalString(v, "kind")
	if err != nil {
		return d, err
	}
	if d.Kind, err = ir.ParseKind(kind); err != nil {
		return d, &CompileError{Field: path + ".kind", Message: err.Error(), Pos: v.Pos()}
	}

	if rv := v.LookupPath(cue.ParsePath("vr")); rv.Exists() {
		n, err := rv.Int64()
		if err != nil || n < 0 || n > math.MaxUint32 {
			return d, &CompileError{Field: path + ".vr", Message: "must be an integer in [0, 4294967295]", Pos: rv.Pos()}
		}
		ref := ir.ValueReference(n)
		d.Reference = &ref
	}

	if d.Unit, err = optionalString(v, "unit"); err != nil {
		return d, err
	}
	if d.Description, err = optionalString(v, "description"); err != nil {
		return d, err
	}
	d.Description = norm.NFC.String(d.Description)

	if sv := v.LookupPath(cue.ParsePath("start")); sv.Exists() {
		start, err := parseStart(sv, d.Kind)
		if err != nil {
			return d, &CompileError{Field: path + ".start", Message: err.Error(), Pos: sv.Pos()}
		}
		d.Start = &start
	}

	return d, nil
}

// parseStart reads a start value. Numbers stay untyped until the kind is
// known; a declared kind converts them immediately.
func parseStart(v cue.Value, kind ir.Kind) (ir.Value, error) {
	var val ir.Value
	switch v.IncompleteKind() {
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return val, err
		}
		val = ir.BooleanValue(b)
	case cue.IntKind, cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		if err != nil {
			return val, err
		}
		val = ir.NumberValue(f)
	default:
		return val, fmt.Errorf("must be a number or bool, got %s", v.IncompleteKind())
	}
	if kind == ir.KindUnknown {
		return val, nil
	}
	return val.Convert(kind)
}

// optionalString returns the string at path, or "" when absent.
func optionalString(v cue.Value, path string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return "", nil
	}
	s, err := sv.String()
	if err != nil {
		return "", &CompileError{Field: path, Message: "must be a string", Pos: sv.Pos()}
	}
	return s, nil
}

// GoFieldName derives the exported Go field name for a variable name:
// "step_count" becomes "StepCount", "frequency" becomes "Frequency".
func GoFieldName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' || r == '-' || r == '.' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
