package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fmigen/pkg/description"
)

// DescribeOptions holds describe flags.
type DescribeOptions struct {
	Model  string
	Output string
}

// DescribeResult is the JSON payload of describe.
type DescribeResult struct {
	Model       string `json:"model"`
	GUID        string `json:"guid"`
	Output      string `json:"output,omitempty"`
	Description string `json:"description,omitempty"`
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{}

	cmd := &cobra.Command{
		Use:   "describe <model-dir>",
		Short: "Print the modelDescription.xml of a model",
		Long: `Synthesize the modelDescription.xml of a model with the start values
declared in CUE. Variables without a kind are resolved against the Go
struct first. The plugin's own description may differ where its constructor
sets other start values.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "model name (required when the directory defines several)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the description to a file")

	return cmd
}

func runDescribe(rootOpts *RootOptions, opts *DescribeOptions, dir string, cmd *cobra.Command) error {
	p, err := rootOpts.openProject(cmd, dir)
	if err != nil {
		return err
	}
	m, err := p.model(opts.Model)
	if err != nil {
		return err
	}
	if !resolved(m) {
		p.out.VerboseLog("Resolving variable kinds against %s", m.GoType)
		b, err := p.bind(cmd.Context(), m)
		if err != nil {
			return err
		}
		m = b.Model
	}

	tmpl, err := p.synthesize(m)
	if err != nil {
		return err
	}
	doc, err := tmpl.Render(description.Static(m))
	if err != nil {
		return p.out.Fail(ExitCommandError, ErrCodeSynthesis, "rendering model description", err)
	}

	result := DescribeResult{Model: m.Name, GUID: m.GUID}
	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, doc, 0o644); err != nil {
			return p.out.Fail(ExitCommandError, ErrCodeWriteFailed, "writing "+opts.Output, err)
		}
		result.Output = opts.Output
		return p.out.SuccessWith(result, func(w io.Writer) {
			fmt.Fprintf(w, "Wrote model description of %s to %s\n", m.Name, opts.Output)
		})
	}

	result.Description = string(doc)
	return p.out.SuccessWith(result, func(w io.Writer) {
		_, _ = w.Write(doc)
	})
}
