package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roach88/fmigen/internal/config"
	"github.com/roach88/fmigen/internal/packager"
	"github.com/roach88/fmigen/internal/store"
	"github.com/roach88/fmigen/pkg/ir"
)

// newQuerier returns the querier that reads plugin metadata: this binary's
// hidden query command, run as a subprocess.
var newQuerier = func() (packager.Querier, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	return packager.ExecQuerier{Command: exe}, nil
}

// PackageOptions holds the flags shared by package and build.
type PackageOptions struct {
	Out      string
	Platform string
	DB       string
}

func (o *PackageOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.Out, "out", "", "output directory (default: out_dir from configuration, target/fmu)")
	cmd.Flags().StringVar(&o.Platform, "platform", "", "FMI platform: linux64, linux32, darwin64, win64, win32 (default: host)")
	cmd.Flags().StringVar(&o.DB, "db", "", "record the package in this SQLite ledger")
}

// resolve applies the flags over the configuration.
func (o *PackageOptions) resolve(cfg *config.Config) (outDir string, platform ir.Platform, db string, err error) {
	outDir, db = cfg.OutDir, cfg.DB
	if o.Out != "" {
		outDir = o.Out
	}
	if o.DB != "" {
		db = o.DB
	}
	if o.Platform != "" {
		platform, err = ir.ParsePlatform(o.Platform)
	} else {
		platform, err = cfg.TargetPlatform()
	}
	return outDir, platform, db, err
}

// PackageResult is the JSON payload of package and build.
type PackageResult struct {
	*packager.Result
	Artifact string `json:"artifact"`
	Seq      int64  `json:"seq,omitempty"`
	Recorded bool   `json:"recorded"`
}

// NewPackageCommand creates the package command.
func NewPackageCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PackageOptions{}

	cmd := &cobra.Command{
		Use:   "package <artifact>",
		Short: "Package a built plugin into an FMU",
		Long: `Query a built plugin for its model name and model description and
write <out>/<model>/ and <out>/<model>.fmu. The plugin is loaded in a
separate process.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPackage(rootOpts, opts, args[0], cmd)
		},
	}
	opts.register(cmd)

	return cmd
}

func runPackage(rootOpts *RootOptions, opts *PackageOptions, artifact string, cmd *cobra.Command) error {
	out := rootOpts.formatter(cmd)
	cfg, err := rootOpts.loadConfig(".")
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeConfig, "loading configuration", err)
	}
	p := &project{dir: ".", cfg: cfg, log: rootOpts.logger(cmd), out: out}

	res, err := p.pack(cmd.Context(), opts, artifact)
	if err != nil {
		return err
	}
	return out.SuccessWith(res, func(w io.Writer) { printPackage(w, res) })
}

// pack packages artifact and records it in the ledger when one is
// configured.
func (p *project) pack(ctx context.Context, opts *PackageOptions, artifact string) (*PackageResult, error) {
	outDir, platform, db, err := opts.resolve(p.cfg)
	if err != nil {
		return nil, p.out.Fail(ExitCommandError, ErrCodeConfig, "resolving platform", err)
	}
	q, err := newQuerier()
	if err != nil {
		return nil, p.out.Fail(ExitCommandError, ErrCodeQueryFailed, "locating query command", err)
	}

	pk := &packager.Packager{
		Querier:  q,
		OutDir:   outDir,
		Platform: platform,
		Logger:   p.log,
	}
	res, err := pk.Package(ctx, artifact)
	if err != nil {
		return nil, p.out.Fail(ExitCommandError, ErrCodePackageFailed, "packaging "+artifact, err)
	}

	result := &PackageResult{Result: res, Artifact: artifact}
	if db == "" {
		return result, nil
	}

	st, err := store.Open(db)
	if err != nil {
		return nil, p.out.Fail(ExitCommandError, ErrCodeLedger, "opening ledger", err)
	}
	defer st.Close()

	result.Seq, result.Recorded, err = st.RecordPackage(ctx, store.Package{
		ModelName:         res.ModelName,
		GUID:              res.GUID,
		Platform:          res.Platform,
		ArchivePath:       res.ArchivePath,
		SHA256:            res.SHA256,
		DescriptionSHA256: res.DescriptionSHA256,
		GeneratorVersion:  ir.GeneratorVersion,
		CreatedAt:         now(),
	})
	if err != nil {
		return nil, p.out.Fail(ExitCommandError, ErrCodeLedger, "recording package", err)
	}
	p.log.Debug("recorded package",
		zap.String("db", db),
		zap.Int64("seq", result.Seq),
		zap.Bool("new", result.Recorded))
	return result, nil
}

func printPackage(w io.Writer, res *PackageResult) {
	fmt.Fprintf(w, "✓ Packaged %s for %s\n\n", res.ModelName, res.Platform)
	fmt.Fprintf(w, "  archive:  %s\n", res.ArchivePath)
	fmt.Fprintf(w, "  sha256:   %s\n", res.SHA256)
	fmt.Fprintf(w, "  guid:     %s\n", res.GUID)
	for _, e := range res.Entries {
		fmt.Fprintf(w, "  entry:    %s\n", e)
	}
	if res.Seq != 0 {
		state := "already recorded"
		if res.Recorded {
			state = "recorded"
		}
		fmt.Fprintf(w, "  ledger:   #%d (%s)\n", res.Seq, state)
	}
}
