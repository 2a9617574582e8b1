package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whatid/internal/parser"
)

// MigrateOptions holds flags for the migrate command.
type MigrateOptions struct {
	*RootOptions
	Strict bool
}

// MigrateResult maps one legacy id to its canonical form.
type MigrateResult struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Changed bool   `json:"changed" yaml:"changed"`
}

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate [old-id]...",
		Short: "Rewrite legacy '#'-separated ids in the canonical form",
		Long: `Convert legacy identities such as "out=clf#rfc#n=3" to the canonical
form "clf=rfc(n=3)". Input that is not a legacy id is passed through
unchanged, unless --strict is given.

With no arguments, ids are read from stdin, one per line.

Examples:
  whatid migrate "rfc#n_estimators=100#max_depth=None"
  cat old_ids.txt | whatid migrate --strict`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on input that is not a legacy id")

	return cmd
}

func runMigrate(opts *MigrateOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ids, err := readIDs(args, cmd.InOrStdin())
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}

	results := make([]MigrateResult, 0, len(ids))
	for _, old := range ids {
		var migrated string
		if opts.Strict {
			c, err := parser.DecodeLegacy(old)
			if err != nil {
				return formatter.Fail(ExitFailure, err)
			}
			migrated, err = c.ID()
			if err != nil {
				return formatter.Fail(ExitFailure, err)
			}
		} else {
			migrated, err = parser.Migrate(old)
			if err != nil {
				return formatter.Fail(ExitFailure, err)
			}
		}
		results = append(results, MigrateResult{From: old, To: migrated, Changed: migrated != old})
	}

	if formatter.Structured() {
		return formatter.Success(results)
	}
	for _, r := range results {
		if !r.Changed {
			formatter.VerboseLog("Unchanged: %s", r.From)
		}
		fmt.Fprintln(formatter.Writer, r.To)
	}
	return nil
}
