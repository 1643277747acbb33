package ir

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the FMI scalar type of a variable.
type Kind int

const (
	// KindUnknown marks a variable whose type has not been resolved yet.
	// Synthesis and code generation reject it.
	KindUnknown Kind = iota
	KindReal
	KindInteger
	KindBoolean
)

var kindNames = map[Kind]string{
	KindReal:    "Real",
	KindInteger: "Integer",
	KindBoolean: "Boolean",
}

// String returns the FMI element name for the kind ("Real", "Integer",
// "Boolean"), or "unknown".
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Valid reports whether k is a resolved kind.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// ParseKind parses a kind name case-insensitively. The empty string parses
// to KindUnknown so that kinds can be inferred from the bound Go type later.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return KindUnknown, nil
	case "real", "float", "float64":
		return KindReal, nil
	case "integer", "int":
		return KindInteger, nil
	case "boolean", "bool":
		return KindBoolean, nil
	default:
		return KindUnknown, fmt.Errorf("unknown kind %q", s)
	}
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Causality is the role a variable plays in co-simulation.
type Causality int

const (
	// CausalityIgnore is the zero value: the field is not exported.
	CausalityIgnore Causality = iota
	CausalityOutput
	CausalityInput
	CausalityParameter
	CausalityIndependent
)

var causalityNames = map[Causality]string{
	CausalityIgnore:      "ignore",
	CausalityOutput:      "output",
	CausalityInput:       "input",
	CausalityParameter:   "parameter",
	CausalityIndependent: "independent",
}

// String returns the lower-case FMI attribute value.
func (c Causality) String() string {
	if name, ok := causalityNames[c]; ok {
		return name
	}
	return fmt.Sprintf("causality(%d)", int(c))
}

// ParseCausality parses a causality name. An empty string is Ignore.
func ParseCausality(s string) (Causality, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CausalityIgnore, nil
	}
	for c, name := range causalityNames {
		if name == s {
			return c, nil
		}
	}
	return CausalityIgnore, fmt.Errorf("unknown causality %q", s)
}

// Variability derives the FMI variability from the causality.
func (c Causality) Variability() Variability {
	if c == CausalityParameter {
		return VariabilityFixed
	}
	return VariabilityContinuous
}

// HasStart reports whether variables of this causality carry a start value
// in the model description.
func (c Causality) HasStart() bool {
	return c == CausalityParameter || c == CausalityInput
}

// MarshalJSON encodes the causality by name.
func (c Causality) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Variability is the FMI variability attribute.
type Variability string

const (
	VariabilityFixed      Variability = "fixed"
	VariabilityContinuous Variability = "continuous"
)
