// Package cli implements the fmigen command line.
package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/roach88/fmigen/internal/config"
	"github.com/roach88/fmigen/pkg/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // explicit configuration file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the fmigen CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "fmigen",
		Short:   "fmigen - FMI 2.0 co-simulation plugins from Go models",
		Long:    "Generate, build and package FMI 2.0 co-simulation units (FMUs) from Go model structs described in CUE.",
		Version: ir.GeneratorVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "configuration file (default: fmigen.yaml or fmigen.toml found from the model directory up)")

	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDescribeCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewBuildCommand(opts))
	cmd.AddCommand(NewPackageCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// formatter returns the output formatter of a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// logger returns a development logger on the command's stderr in verbose
// mode and a no-op logger otherwise.
func (o *RootOptions) logger(cmd *cobra.Command) *zap.Logger {
	if !o.Verbose {
		return zap.NewNop()
	}
	return newConsoleLogger(cmd.ErrOrStderr())
}

func newConsoleLogger(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), zap.DebugLevel))
}

// loadConfig reads the --config file, or the configuration found from dir
// upwards.
func (o *RootOptions) loadConfig(dir string) (*config.Config, error) {
	if o.Config != "" {
		return config.Load(o.Config)
	}
	return config.Find(dir)
}
