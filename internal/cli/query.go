package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/fmigen/internal/loader"
	"github.com/roach88/fmigen/internal/packager"
)

// NewQueryCommand creates the hidden query command. It loads a plugin
// into this process and prints packager.Metadata as JSON; package and
// build run it as a subprocess.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "query <artifact>",
		Short:         "Print the metadata of a built plugin",
		Hidden:        true,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := queryLibrary(args[0])
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), err)
				return WrapExitError(ExitCommandError, "query "+args[0], err)
			}
			return json.NewEncoder(cmd.OutOrStdout()).Encode(md)
		},
	}
}

func queryLibrary(path string) (*packager.Metadata, error) {
	lib, err := loader.Open(path)
	if err != nil {
		return nil, err
	}
	defer lib.Close()

	md := &packager.Metadata{MissingSymbols: lib.Missing(loader.RequiredSymbols)}
	if md.ModelName, err = lib.ModelName(); err != nil {
		return nil, err
	}
	if md.Description, err = lib.Describe(); err != nil {
		return nil, err
	}
	return md, nil
}
