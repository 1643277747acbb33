package compiler

import "github.com/roach88/fmigen/pkg/ir"

// BuildTable allocates value references and returns the variable table.
//
// Ignore-causality declarations are dropped first. Explicit references are
// kept as declared; the remaining declarations are numbered sequentially, in
// order, from a base that is one past the largest explicit reference, or 0
// when nothing is explicit.
//
// The caller guarantees that explicit references are distinct and do not
// collide with the sequential range; BuildTable does not check. Validate
// reports violations.
func BuildTable(decls []ir.Declaration) *ir.Table {
	kept := make([]ir.Declaration, 0, len(decls))
	for _, d := range decls {
		if d.Causality != ir.CausalityIgnore {
			kept = append(kept, d)
		}
	}

	next := allocationBase(kept)
	vars := make([]ir.Variable, 0, len(kept))
	for _, d := range kept {
		vr := next
		if d.Reference != nil {
			vr = *d.Reference
		} else {
			next++
		}
		vars = append(vars, ir.Variable{
			Name:           d.Name,
			Field:          d.Field,
			Kind:           d.Kind,
			Causality:      d.Causality,
			ValueReference: vr,
			Unit:           d.Unit,
			Description:    d.Description,
			Start:          d.Start,
		})
	}

	return ir.NewTable(vars...)
}

func allocationBase(decls []ir.Declaration) ir.ValueReference {
	var (
		max      ir.ValueReference
		explicit bool
	)
	for _, d := range decls {
		if d.Reference == nil {
			continue
		}
		explicit = true
		if *d.Reference > max {
			max = *d.Reference
		}
	}
	if !explicit {
		return 0
	}
	return max + 1
}
