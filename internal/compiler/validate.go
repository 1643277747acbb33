package compiler

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/roach88/fmigen/pkg/ir"
)

// Validation error codes (E100-E199)
const (
	ErrInvalidModelName    = "E101" // model name is not a C identifier
	ErrDuplicateVariable   = "E102" // two variables share a name
	ErrDuplicateReference  = "E103" // two variables share a value reference
	ErrInvalidGUID         = "E104" // guid is empty or malformed
	ErrInvalidExperiment   = "E105" // default experiment is inconsistent
	ErrStartNotAllowed     = "E106" // start value on output or independent
	ErrInvalidVariableName = "E107" // empty name or control characters
	ErrMultipleIndependent = "E108" // more than one independent variable
)

// ValidationError represents a model validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

var (
	identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	guidRe       = regexp.MustCompile(`^\{?[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}?$`)
)

// Validate checks a compiled model for problems the allocator and the
// synthesizer do not guard against. Returns all errors found (does not
// fail-fast).
func Validate(m *ir.Model) []ValidationError {
	var errs []ValidationError

	// E101: the name becomes modelIdentifier and the binary's file name
	if !identifierRe.MatchString(m.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("model name %q must be a C identifier", m.Name),
			Code:    ErrInvalidModelName,
		})
	}

	// E104
	if strings.TrimSpace(m.GUID) == "" || !guidRe.MatchString(m.GUID) {
		errs = append(errs, ValidationError{
			Field:   "guid",
			Message: fmt.Sprintf("guid %q is not a GUID", m.GUID),
			Code:    ErrInvalidGUID,
		})
	}

	errs = append(errs, validateExperiment(m.Experiment)...)

	names := make(map[string]bool)
	refs := make(map[ir.ValueReference]string)
	independent := 0
	for i, v := range m.Table.Variables() {
		field := fmt.Sprintf("variables[%d]", i)

		// E107
		if v.Name == "" || strings.IndexFunc(v.Name, unicode.IsControl) >= 0 {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("invalid variable name %q", v.Name),
				Code:    ErrInvalidVariableName,
			})
		}

		// E102
		if names[v.Name] {
			errs = append(errs, ValidationError{
				Field:   field + ".name",
				Message: fmt.Sprintf("duplicate variable name: %q", v.Name),
				Code:    ErrDuplicateVariable,
			})
		}
		names[v.Name] = true

		// E103
		if other, ok := refs[v.ValueReference]; ok {
			errs = append(errs, ValidationError{
				Field:   field + ".vr",
				Message: fmt.Sprintf("value reference %d used by both %q and %q", v.ValueReference, other, v.Name),
				Code:    ErrDuplicateReference,
			})
		} else {
			refs[v.ValueReference] = v.Name
		}

		// E106
		if v.Start != nil && !v.Causality.HasStart() {
			errs = append(errs, ValidationError{
				Field:   field + ".start",
				Message: fmt.Sprintf("%s variable %q cannot declare a start value", v.Causality, v.Name),
				Code:    ErrStartNotAllowed,
			})
		}

		if v.Causality == ir.CausalityIndependent {
			independent++
		}
	}

	// E108
	if independent > 1 {
		errs = append(errs, ValidationError{
			Field:   "variables",
			Message: fmt.Sprintf("%d independent variables declared, at most one allowed", independent),
			Code:    ErrMultipleIndependent,
		})
	}

	return errs
}

func validateExperiment(e ir.Experiment) []ValidationError {
	var errs []ValidationError
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: "experiment." + field, Message: msg, Code: ErrInvalidExperiment})
	}
	if e.StopTime < e.StartTime {
		add("stopTime", fmt.Sprintf("stop time %s precedes start time %s", ir.FormatReal(e.StopTime), ir.FormatReal(e.StartTime)))
	}
	if e.StepSize <= 0 {
		add("stepSize", "step size must be positive")
	}
	if e.Tolerance < 0 {
		add("tolerance", "tolerance must not be negative")
	}
	return errs
}
