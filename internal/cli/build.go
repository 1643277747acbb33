package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/fmigen/internal/build"
)

// buildRunner runs go build; nil runs the real command.
var buildRunner build.Runner

// BuildOptions holds build flags.
type BuildOptions struct {
	PackageOptions
	Model string
}

// NewBuildCommand creates the build command.
func NewBuildCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BuildOptions{}

	cmd := &cobra.Command{
		Use:   "build <model-dir>",
		Short: "Generate, build and package a model",
		Long: `Run generate, build the model package with go build -buildmode=c-shared
and package the resulting library into an FMU. The library is written to
<out>/build/<platform>/ before packaging.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(rootOpts, opts, args[0], cmd)
		},
	}
	opts.register(cmd)
	cmd.Flags().StringVar(&opts.Model, "model", "", "model name (required when the directory defines several)")

	return cmd
}

func runBuild(rootOpts *RootOptions, opts *BuildOptions, dir string, cmd *cobra.Command) error {
	p, err := rootOpts.openProject(cmd, dir)
	if err != nil {
		return err
	}
	outDir, platform, _, err := opts.resolve(p.cfg)
	if err != nil {
		return p.out.Fail(ExitCommandError, ErrCodeConfig, "resolving platform", err)
	}

	b, _, err := p.generate(cmd.Context(), opts.Model)
	if err != nil {
		return err
	}

	builder := &build.GoBuilder{Go: p.cfg.Go, Run: buildRunner, Logger: p.log}
	p.out.VerboseLog("Building %s for %s", b.Model.Name, platform.ID)
	artifact, err := builder.Build(cmd.Context(), build.Request{
		Dir:      dir,
		OutDir:   filepath.Join(outDir, "build", platform.ID),
		Name:     b.Model.Name,
		Platform: platform,
	})
	if err != nil {
		return p.out.Fail(ExitCommandError, ErrCodeCompileFailed, "building "+b.Model.Name, err)
	}

	res, err := p.pack(cmd.Context(), &opts.PackageOptions, artifact)
	if err != nil {
		return err
	}
	return p.out.SuccessWith(res, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Built %s\n", artifact)
		printPackage(w, res)
	})
}
