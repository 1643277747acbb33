package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/fmigen/internal/compiler"
	"github.com/roach88/fmigen/pkg/ir"
)

// LoadMode controls how errors are handled during model loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the models compiled from a directory.
type LoadResult struct {
	Models    []*ir.Model
	CUEValue  cue.Value
	FileCount int
}

// Model returns the model with the given name. An empty name selects the
// only model of the directory.
func (r *LoadResult) Model(name string) (*ir.Model, error) {
	if name == "" {
		switch len(r.Models) {
		case 1:
			return r.Models[0], nil
		case 0:
			return nil, &LoadError{Code: ErrCodeNoModels, Message: "no models found"}
		}
		names := make([]string, len(r.Models))
		for i, m := range r.Models {
			names[i] = m.Name
		}
		return nil, &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("%d models found (%s); select one with --model", len(r.Models), strings.Join(names, ", ")),
		}
	}
	for _, m := range r.Models {
		if m.Name == name {
			return m, nil
		}
	}
	return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model %q not found", name)}
}

// LoadError represents an error that occurred during model loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadModels loads the CUE package in dir and compiles every model.<Name>
// entry, in declaration order.
func LoadModels(dir string, mode LoadMode, opts ...compiler.Option) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("model directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing model directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{CUEValue: value, FileCount: len(cueFiles)}

	modelsVal := value.LookupPath(cue.ParsePath("model"))
	if modelsVal.Exists() {
		iter, iterErr := modelsVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating models: %v", iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			for iter.Next() {
				m, compileErr := compiler.CompileModel(iter.Value(), opts...)
				if compileErr != nil {
					errs = append(errs, convertCompileError(compileErr, "model."+iter.Label()))
					if mode == LoadModeFailFast {
						return result, errs
					}
					continue
				}
				result.Models = append(result.Models, m)
			}
		}
	}

	if len(result.Models) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeNoModels, Message: "no models found in " + dir})
	}
	return result, errs
}

// FindCUEFiles returns the .cue files directly in dir. Subdirectories are
// separate packages and are not loaded.
func FindCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Field + ": " + compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// Error code constants, unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No CUE files found
	ErrCodeLoadFailed    = "E004" // CUE load failed
	ErrCodeNotFound      = "E005" // Path or model not found
	ErrCodeBuildFailed   = "E006" // CUE build failed
	ErrCodeWriteFailed   = "E007" // File write error
	ErrCodeNoModels      = "E008" // No model entries
	ErrCodeBindFailed    = "E009" // Go binding failed
	ErrCodeCompileFailed = "E010" // go build failed
	ErrCodePackageFailed = "E011" // Packaging failed
	ErrCodeQueryFailed   = "E012" // Plugin query failed
	ErrCodeLedger        = "E013" // Package ledger error
	ErrCodeConfig        = "E014" // Configuration error
	ErrCodeSynthesis     = "E015" // Model description synthesis failed

	// Model compile errors; validation codes E101-E108 come from the compiler.
	ErrCodeInvalidCausality  = "E110"
	ErrCodeInvalidKind       = "E111"
	ErrCodeInvalidReference  = "E112"
	ErrCodeInvalidStart      = "E113"
	ErrCodeInvalidExperiment = "E114"
	ErrCodeInvalidString     = "E115"
	ErrCodeCUE               = "E116"
)

var stringFields = map[string]bool{
	"description": true,
	"guid":        true,
	"goType":      true,
	"field":       true,
	"unit":        true,
}

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeCUE
	case strings.HasPrefix(field, "experiment."):
		return ErrCodeInvalidExperiment
	case strings.HasSuffix(field, ".causality"):
		return ErrCodeInvalidCausality
	case strings.HasSuffix(field, ".kind"):
		return ErrCodeInvalidKind
	case strings.HasSuffix(field, ".vr"):
		return ErrCodeInvalidReference
	case strings.HasSuffix(field, ".start"):
		return ErrCodeInvalidStart
	case stringFields[field]:
		return ErrCodeInvalidString
	default:
		return ErrCodeGeneric
	}
}
