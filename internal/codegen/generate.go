package codegen

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dave/jennifer/jen"

	"github.com/roach88/fmigen/pkg/description"
	"github.com/roach88/fmigen/pkg/ir"
)

const (
	abiPath         = "github.com/roach88/fmigen/pkg/abi"
	descriptionPath = "github.com/roach88/fmigen/pkg/description"
	irPath          = "github.com/roach88/fmigen/pkg/ir"
	runtimePath     = "github.com/roach88/fmigen/pkg/runtime"
)

// Header is the first line of every generated file.
const Header = "Code generated by fmigen. DO NOT EDIT."

// accessorKind describes how one FMI kind is exposed by the runtime.
type accessorKind struct {
	kind   ir.Kind
	field  string // Definition field holding the accessor map
	goType string // value type on the runtime side
}

var accessorKinds = []accessorKind{
	{ir.KindReal, "Reals", "float64"},
	{ir.KindInteger, "Integers", "int32"},
	{ir.KindBoolean, "Booleans", "bool"},
}

var kindIdents = map[ir.Kind]string{
	ir.KindReal:    "KindReal",
	ir.KindInteger: "KindInteger",
	ir.KindBoolean: "KindBoolean",
}

var causalityIdents = map[ir.Causality]string{
	ir.CausalityOutput:      "CausalityOutput",
	ir.CausalityInput:       "CausalityInput",
	ir.CausalityParameter:   "CausalityParameter",
	ir.CausalityIndependent: "CausalityIndependent",
}

// Generate renders the plugin glue for a bound model: the description
// template, a runtime.Definition with typed accessors, and an init function
// registering it with the C ABI.
func Generate(b *Binding, tmpl description.Template) ([]byte, error) {
	m := b.Model
	for _, v := range m.Variables() {
		if _, ok := kindIdents[v.Kind]; !ok {
			return nil, fmt.Errorf("variable %s: %w", v.Name, description.ErrUnresolvedKind)
		}
		if _, ok := b.Fields[v.ValueReference]; !ok {
			return nil, fmt.Errorf("variable %s: %w", v.Name, ErrFieldNotFound)
		}
	}

	f := jen.NewFile(b.Package)
	f.HeaderComment(Header)
	f.ImportName(abiPath, "abi")
	f.ImportName(descriptionPath, "description")
	f.ImportName(irPath, "ir")
	f.ImportName(runtimePath, "runtime")

	f.Const().Id("modelDescriptionTemplate").Op("=").Lit(string(tmpl))
	f.Line()

	defn := jen.Dict{
		jen.Id("Metadata"): jen.Qual(irPath, "Metadata").Values(jen.Dict{
			jen.Id("Name"):        jen.Lit(m.Name),
			jen.Id("Description"): jen.Lit(m.Description),
			jen.Id("GUID"):        jen.Lit(m.GUID),
		}),
		jen.Id("Variables"): variablesTable(m),
		jen.Id("Template"):  jen.Qual(descriptionPath, "Template").Call(jen.Id("modelDescriptionTemplate")),
		jen.Id("New"):       jen.Id("newModel"),
	}
	for _, ak := range accessorKinds {
		if acc := accessors(b, ak); acc != nil {
			defn[jen.Id(ak.field)] = acc
		}
	}
	f.Var().Id("definition").Op("=").Op("&").Qual(runtimePath, "Definition").Values(defn)
	f.Line()

	f.Func().Id("newModel").Params().Qual(runtimePath, "Model").Block(newModelBody(b)...)
	f.Line()

	f.Func().Id("init").Params().Block(
		jen.Qual(abiPath, "Register").Call(jen.Id("definition")),
	)
	f.Line()

	f.Comment("main is required by -buildmode=c-shared.")
	f.Func().Id("main").Params().Block()

	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", GeneratedFile, err)
	}
	return buf.Bytes(), nil
}

// WriteFile generates the glue for b and writes it to dir/GeneratedFile.
func WriteFile(dir string, b *Binding, tmpl description.Template) (string, error) {
	src, err := Generate(b, tmpl)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, GeneratedFile)
	if err := os.WriteFile(path, src, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

func variablesTable(m *ir.Model) jen.Code {
	var entries []jen.Code
	for _, v := range m.Variables() {
		d := jen.Dict{
			jen.Id("Name"):           jen.Lit(v.Name),
			jen.Id("Field"):          jen.Lit(v.Field),
			jen.Id("Kind"):           jen.Qual(irPath, kindIdents[v.Kind]),
			jen.Id("Causality"):      jen.Qual(irPath, causalityIdents[v.Causality]),
			jen.Id("ValueReference"): jen.Lit(int(v.ValueReference)),
		}
		if v.Unit != "" {
			d[jen.Id("Unit")] = jen.Lit(v.Unit)
		}
		if v.Description != "" {
			d[jen.Id("Description")] = jen.Lit(v.Description)
		}
		entries = append(entries, jen.Line().Qual(irPath, "Variable").Values(d))
	}
	if len(entries) > 0 {
		entries = append(entries, jen.Line())
	}
	return jen.Qual(irPath, "NewTable").Call(entries...)
}

// accessors renders the accessor map of one kind, or nil when the model has
// no variables of that kind. Only parameters and inputs are writable.
func accessors(b *Binding, ak accessorKind) jen.Code {
	model := jen.Id("m").Assert(jen.Op("*").Id(b.Model.GoType))
	dict := jen.Dict{}
	for _, v := range b.Model.Variables() {
		if v.Kind != ak.kind {
			continue
		}
		field := b.Fields[v.ValueReference]

		get := jen.Func().Params(jen.Id("m").Qual(runtimePath, "Model")).Id(ak.goType).Block(
			jen.Return(convert(ak.goType, field.Type, model.Clone().Dot(field.Name))),
		)
		set := jen.Func().Params(
			jen.Id("m").Qual(runtimePath, "Model"),
			jen.Id("v").Id(ak.goType),
		).Block(
			model.Clone().Dot(field.Name).Op("=").Add(convert(field.Type, ak.goType, jen.Id("v"))),
		)
		dict[jen.Lit(int(v.ValueReference))] = jen.Values(jen.Dict{
			jen.Id("Get"): get,
			jen.Id("Set"): set,
		})
	}
	if len(dict) == 0 {
		return nil
	}
	return jen.Map(jen.Qual(irPath, "ValueReference")).
		Qual(runtimePath, "Accessor").Types(jen.Id(ak.goType)).
		Values(dict)
}

// convert wraps expr in a conversion to "to" unless it already has that type.
func convert(to, from string, expr *jen.Statement) *jen.Statement {
	if to == from {
		return expr
	}
	return jen.Id(to).Call(expr)
}

func newModelBody(b *Binding) []jen.Code {
	body := []jen.Code{jen.Id("m").Op(":=").Op("&").Id(b.Model.GoType).Values()}
	for _, v := range b.Model.Variables() {
		if v.Start == nil {
			continue
		}
		field := b.Fields[v.ValueReference]
		body = append(body, jen.Id("m").Dot(field.Name).Op("=").Add(startLiteral(*v.Start)))
	}
	return append(body, jen.Return(jen.Id("m")))
}

func startLiteral(v ir.Value) jen.Code {
	switch v.Kind {
	case ir.KindInteger:
		return jen.Lit(int(v.Integer))
	case ir.KindBoolean:
		return jen.Lit(v.Boolean)
	default:
		return jen.Lit(v.Real)
	}
}
