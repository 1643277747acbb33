package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/fmigen/internal/store"
)

// HistoryOptions holds history flags.
type HistoryOptions struct {
	DB       string
	Model    string
	Platform string
	Since    string
}

// where builds the ledger filter of the flags.
func (o *HistoryOptions) where() (store.Predicate, error) {
	var where store.And
	if o.Model != "" {
		where.Predicates = append(where.Predicates, store.Equals{Column: "model_name", Value: o.Model})
	}
	if o.Platform != "" {
		where.Predicates = append(where.Predicates, store.Equals{Column: "platform", Value: o.Platform})
	}
	if o.Since != "" {
		since, err := parseSince(o.Since)
		if err != nil {
			return nil, err
		}
		where.Predicates = append(where.Predicates, store.CreatedSince{Time: since})
	}
	return where, nil
}

// parseSince accepts an RFC 3339 time, a date, or a duration back from now.
func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return now().Add(-d), nil
	}
	return time.Time{}, fmt.Errorf("invalid --since %q: want an RFC 3339 time, a date or a duration", s)
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:           "history",
		Short:         "List packages recorded in the ledger",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite ledger (default: db from configuration)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "only list packages of this model")
	cmd.Flags().StringVar(&opts.Platform, "platform", "", "only list packages for this FMI platform")
	cmd.Flags().StringVar(&opts.Since, "since", "", "only list packages recorded since a time, date or duration ago (e.g. 24h)")

	return cmd
}

func runHistory(rootOpts *RootOptions, opts *HistoryOptions, cmd *cobra.Command) error {
	out := rootOpts.formatter(cmd)
	where, err := opts.where()
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeGeneric, "parsing filters", err)
	}
	db := opts.DB
	if db == "" {
		cfg, err := rootOpts.loadConfig(".")
		if err != nil {
			return out.Fail(ExitCommandError, ErrCodeConfig, "loading configuration", err)
		}
		db = cfg.DB
	}
	if db == "" {
		return out.Fail(ExitCommandError, ErrCodeLedger, "no ledger configured; pass --db or set db in fmigen.yaml", nil)
	}
	if _, err := os.Stat(db); err != nil {
		return out.Fail(ExitCommandError, ErrCodeNotFound, "ledger not found", err)
	}

	st, err := store.Open(db)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeLedger, "opening ledger", err)
	}
	defer st.Close()

	packages, err := st.FindPackages(cmd.Context(), where)
	if err != nil {
		return out.Fail(ExitCommandError, ErrCodeLedger, "listing packages", err)
	}

	return out.SuccessWith(packages, func(w io.Writer) {
		if len(packages) == 0 {
			fmt.Fprintln(w, "No packages recorded")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SEQ\tMODEL\tPLATFORM\tSHA256\tCREATED\tARCHIVE")
		for _, p := range packages {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
				p.Seq, p.ModelName, p.Platform, p.SHA256[:min(12, len(p.SHA256))],
				p.CreatedAt.Format(time.RFC3339), p.ArchivePath)
		}
		tw.Flush()
	})
}
