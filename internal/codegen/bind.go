// Package codegen binds compiled models to their Go struct and generates
// the plugin glue that registers them with the FMI runtime.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/roach88/fmigen/pkg/ir"
)

// GeneratedFile is the name of the file Generate output is written to.
const GeneratedFile = "fmi_generated.go"

// Binding errors.
var (
	ErrNotMain         = errors.New("model package must be package main")
	ErrTypeNotFound    = errors.New("model type not found")
	ErrNotStruct       = errors.New("model type is not a struct")
	ErrFieldNotFound   = errors.New("field not found")
	ErrUnexported      = errors.New("field is not exported")
	ErrUnsupportedType = errors.New("unsupported type")
	ErrKindMismatch    = errors.New("declared kind does not match field type")
	ErrNoDoStep        = errors.New("missing method DoStep(float64, float64) error")
)

// Field is the Go side of one bound variable.
type Field struct {
	Name string // struct field name
	Type string // field type as written in the model package, e.g. "float64" or "Hertz"
}

// Binding is a model resolved against its Go struct: every variable has a
// kind and every start value has that kind.
type Binding struct {
	Model   *ir.Model
	Package string
	Fields  map[ir.ValueReference]Field
}

// Bind loads the Go package in dir and binds m to its model type.
//
// Errors from a previously generated file are ignored; it is regenerated
// from the binding.
func Bind(ctx context.Context, dir string, m *ir.Model) (*Binding, error) {
	cfg := &packages.Config{
		Context: ctx,
		Dir:     dir,
		Mode:    packages.NeedName | packages.NeedTypes | packages.NeedFiles,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", dir, err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found in %s", dir)
	}

	pkg := pkgs[0]
	var errs []string
	for _, e := range pkg.Errors {
		if strings.Contains(e.Pos, GeneratedFile) {
			continue
		}
		errs = append(errs, e.Error())
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors: %s", strings.Join(errs, "; "))
	}
	if pkg.Types == nil {
		return nil, fmt.Errorf("type information not available for %s", filepath.Clean(dir))
	}
	return BindTypes(pkg.Types, m)
}

// BindTypes binds m to the type named m.GoType in pkg.
func BindTypes(pkg *types.Package, m *ir.Model) (*Binding, error) {
	if pkg.Name() != "main" {
		return nil, fmt.Errorf("%w, got %q", ErrNotMain, pkg.Name())
	}

	obj := pkg.Scope().Lookup(m.GoType)
	tn, ok := obj.(*types.TypeName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTypeNotFound, m.GoType)
	}
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, m.GoType)
	}
	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, m.GoType)
	}
	if !hasDoStep(named) {
		return nil, fmt.Errorf("*%s: %w", m.GoType, ErrNoDoStep)
	}

	fields := make(map[string]*types.Var, st.NumFields())
	for i := 0; i < st.NumFields(); i++ {
		f := st.Field(i)
		fields[f.Name()] = f
	}

	b := &Binding{Package: pkg.Name(), Fields: make(map[ir.ValueReference]Field)}
	qualifier := types.RelativeTo(pkg)

	table, err := m.Table.Map(func(v ir.Variable) (ir.Variable, error) {
		f, ok := fields[v.Field]
		if !ok {
			return v, fmt.Errorf("variable %s: %w: %s.%s", v.Name, ErrFieldNotFound, m.GoType, v.Field)
		}
		if !f.Exported() {
			return v, fmt.Errorf("variable %s: %w: %s", v.Name, ErrUnexported, v.Field)
		}

		kind, err := KindOf(f.Type())
		if err != nil {
			return v, fmt.Errorf("variable %s: %w", v.Name, err)
		}
		if v.Kind != ir.KindUnknown && v.Kind != kind {
			return v, fmt.Errorf("variable %s: %w: declared %s, field is %s",
				v.Name, ErrKindMismatch, v.Kind, types.TypeString(f.Type(), qualifier))
		}
		v.Kind = kind

		if v.Start != nil {
			start, err := v.Start.Convert(kind)
			if err != nil {
				return v, fmt.Errorf("variable %s: start: %w", v.Name, err)
			}
			v.Start = &start
		}

		b.Fields[v.ValueReference] = Field{Name: f.Name(), Type: types.TypeString(f.Type(), qualifier)}
		return v, nil
	})
	if err != nil {
		return nil, err
	}

	resolved := *m
	resolved.Table = table
	b.Model = &resolved
	return b, nil
}

// KindOf maps a Go field type to the FMI kind it is exposed as. Named types
// are classified by their underlying type.
//
// Integer fields must fit in int32 so every value reads back unchanged; int,
// int64 and wider unsigned types are rejected. Setting an out-of-range value
// on an int8, int16, uint8 or uint16 field keeps the low bits, as a Go
// conversion does.
func KindOf(t types.Type) (ir.Kind, error) {
	basic, ok := t.Underlying().(*types.Basic)
	if !ok {
		return ir.KindUnknown, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
	}
	switch basic.Kind() {
	case types.Float32, types.Float64:
		return ir.KindReal, nil
	case types.Int8, types.Int16, types.Int32, types.Uint8, types.Uint16:
		return ir.KindInteger, nil
	case types.Bool:
		return ir.KindBoolean, nil
	}
	return ir.KindUnknown, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

func hasDoStep(named *types.Named) bool {
	ms := types.NewMethodSet(types.NewPointer(named))
	sel := ms.Lookup(named.Obj().Pkg(), "DoStep")
	if sel == nil {
		return false
	}
	sig, ok := sel.Type().(*types.Signature)
	if !ok || sig.Params().Len() != 2 || sig.Results().Len() != 1 || sig.Variadic() {
		return false
	}
	f64 := types.Typ[types.Float64]
	return types.Identical(sig.Params().At(0).Type(), f64) &&
		types.Identical(sig.Params().At(1).Type(), f64) &&
		types.Identical(sig.Results().At(0).Type(), types.Universe.Lookup("error").Type())
}
