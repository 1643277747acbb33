package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/fmigen/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Models []string                   `json:"models"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <model-dir>",
		Short: "Validate the CUE models of a directory",
		Long: `Compile every model.<Name> entry of the CUE package in <model-dir> and
check it: names, GUIDs, value references, start values and the default
experiment. Nothing is written.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	p, err := opts.openProject(cmd, dir)
	if err != nil {
		return err
	}

	res, loadErrs := LoadModels(dir, LoadModeCollectAll, compiler.WithExperiment(p.cfg.ModelExperiment()))
	if res == nil {
		var loadErr *LoadError
		if errors.As(loadErrs[0], &loadErr) {
			return p.out.Fail(ExitCommandError, loadErr.Code, loadErr.Message, nil)
		}
		return p.out.Fail(ExitCommandError, ErrCodeGeneric, "loading models", loadErrs[0])
	}
	p.out.VerboseLog("Found %d CUE file(s) in %s", res.FileCount, dir)

	result := ValidationResult{Models: []string{}}
	for _, err := range loadErrs {
		ve := compiler.ValidationError{Field: "load", Message: err.Error(), Code: ErrCodeGeneric}
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			ve.Code = loadErr.Code
			ve.Message = loadErr.Message
			if loadErr.Pos.IsValid() {
				ve.Line = loadErr.Pos.Line()
			}
		}
		result.Errors = append(result.Errors, ve)
	}
	for _, m := range res.Models {
		p.out.VerboseLog("Validating model: %s", m.Name)
		result.Models = append(result.Models, m.Name)
		result.Errors = append(result.Errors, compiler.Validate(m)...)
	}
	result.Valid = len(result.Errors) == 0

	if !result.Valid {
		if err := p.out.Error(result.Errors[0].Code, fmt.Sprintf("%d validation error(s)", len(result.Errors)), result.Errors); err != nil {
			return err
		}
		if p.out.Format != "json" {
			for _, ve := range result.Errors {
				fmt.Fprintf(p.out.Writer, "  %s\n", ve.Error())
			}
		}
		return NewExitError(ExitFailure, "validation failed")
	}

	return p.out.SuccessWith(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %d model(s) valid\n", len(result.Models))
		for _, name := range result.Models {
			fmt.Fprintf(w, "  %s\n", name)
		}
	})
}
