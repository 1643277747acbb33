package ir

// ValueReference is the numeric handle a host uses to address a variable.
type ValueReference uint32

// Declaration is a model field as declared by the user, before value
// references are allocated.
type Declaration struct {
	Name        string          `json:"name"`
	Field       string          `json:"field,omitempty"` // Go struct field; defaults to the exported name
	Kind        Kind            `json:"kind"`
	Causality   Causality       `json:"causality"`
	Reference   *ValueReference `json:"value_reference,omitempty"` // nil when unset
	Unit        string          `json:"unit,omitempty"`
	Description string          `json:"description,omitempty"`
	Start       *Value          `json:"start,omitempty"`
}

// Variable is an exported model variable with its allocated value reference.
type Variable struct {
	Name           string         `json:"name"`
	Field          string         `json:"field,omitempty"`
	Kind           Kind           `json:"kind"`
	Causality      Causality      `json:"causality"`
	ValueReference ValueReference `json:"value_reference"`
	Unit           string         `json:"unit,omitempty"`
	Description    string         `json:"description,omitempty"`
	Start          *Value         `json:"start,omitempty"`
}

// Variability is derived from the causality.
func (v Variable) Variability() Variability {
	return v.Causality.Variability()
}

// Table is the ordered set of exported variables of one model.
//
// The order is declaration order and is significant: output indices and the
// order of ScalarVariable elements both follow it.
type Table struct {
	vars   []Variable
	byRef  map[ValueReference]int
	byName map[string]int
}

// NewTable builds a table from variables in order. Ignore-causality entries
// are skipped. When two variables share a reference, lookups resolve to the
// first one.
func NewTable(vars ...Variable) *Table {
	t := &Table{
		vars:   make([]Variable, 0, len(vars)),
		byRef:  make(map[ValueReference]int, len(vars)),
		byName: make(map[string]int, len(vars)),
	}
	for _, v := range vars {
		if v.Causality == CausalityIgnore {
			continue
		}
		i := len(t.vars)
		t.vars = append(t.vars, v)
		if _, dup := t.byRef[v.ValueReference]; !dup {
			t.byRef[v.ValueReference] = i
		}
		if _, dup := t.byName[v.Name]; !dup {
			t.byName[v.Name] = i
		}
	}
	return t
}

// Len returns the number of variables.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.vars)
}

// Variables returns a copy of the variables in table order.
func (t *Table) Variables() []Variable {
	if t == nil {
		return nil
	}
	out := make([]Variable, len(t.vars))
	copy(out, t.vars)
	return out
}

// At returns the i-th variable (0-based).
func (t *Table) At(i int) Variable {
	return t.vars[i]
}

// ByValueReference looks up a variable by reference.
func (t *Table) ByValueReference(vr ValueReference) (Variable, bool) {
	if t == nil {
		return Variable{}, false
	}
	i, ok := t.byRef[vr]
	if !ok {
		return Variable{}, false
	}
	return t.vars[i], true
}

// IndexOf returns the 0-based table position of a reference.
func (t *Table) IndexOf(vr ValueReference) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.byRef[vr]
	return i, ok
}

// ByName looks up a variable by name.
func (t *Table) ByName(name string) (Variable, bool) {
	if t == nil {
		return Variable{}, false
	}
	i, ok := t.byName[name]
	if !ok {
		return Variable{}, false
	}
	return t.vars[i], true
}

// References returns every value reference in table order.
func (t *Table) References() []ValueReference {
	refs := make([]ValueReference, 0, t.Len())
	for _, v := range t.Variables() {
		refs = append(refs, v.ValueReference)
	}
	return refs
}

// Outputs returns the 1-based table indices of Output variables.
func (t *Table) Outputs() []int {
	var out []int
	for i, v := range t.Variables() {
		if v.Causality == CausalityOutput {
			out = append(out, i+1)
		}
	}
	return out
}

// Units returns the distinct non-empty units in first-seen order.
func (t *Table) Units() []string {
	seen := make(map[string]bool)
	var units []string
	for _, v := range t.Variables() {
		if v.Unit == "" || seen[v.Unit] {
			continue
		}
		seen[v.Unit] = true
		units = append(units, v.Unit)
	}
	return units
}

// Map returns a new table with fn applied to every variable. The binder uses
// it to install resolved kinds and converted start values.
func (t *Table) Map(fn func(Variable) (Variable, error)) (*Table, error) {
	vars := t.Variables()
	for i := range vars {
		v, err := fn(vars[i])
		if err != nil {
			return nil, err
		}
		vars[i] = v
	}
	return NewTable(vars...), nil
}
