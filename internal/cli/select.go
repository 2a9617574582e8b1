package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/whatid/internal/query"
	"github.com/roach88/whatid/internal/what"
)

// SelectOptions holds flags for the select command.
type SelectOptions struct {
	*RootOptions
	Where    string
	Sort     []string
	Columns  []string
	Table    bool
	Registry bool
}

// SelectResult is the filtered, ordered selection.
type SelectResult struct {
	IDs     []string `json:"ids" yaml:"ids"`
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`
	Rows    [][]any  `json:"rows,omitempty" yaml:"rows,omitempty"`
	SortBy  [][]any  `json:"sort_values,omitempty" yaml:"sort_values,omitempty"`
}

// NewSelectCommand creates the select command.
func NewSelectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SelectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "select [id]...",
		Short: "Filter, sort and tabulate identities by their parameters",
		Long: `Select identities with a CEL predicate, order them by parameter values
and optionally lay their parameters out as a table.

Predicates see id, name, out (strings) and params (a map). Sort and column
keys may be dotted paths into nested configurations. Ids come from the
arguments, from stdin (one per line), or from the registry with --registry.

Examples:
  whatid select --where 'name == "rfc" && params.n_estimators > 50' < ids.txt
  whatid select --sort base.depth --sort n_estimators --columns n_estimators,base.depth < ids.txt
  whatid select --db runs.db --registry --table`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelect(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Where, "where", "", "CEL predicate over id, name, out and params")
	cmd.Flags().StringArrayVar(&opts.Sort, "sort", nil, "sort by this parameter (repeatable, dotted paths allowed)")
	cmd.Flags().StringSliceVar(&opts.Columns, "columns", nil, "tabulate these parameters")
	cmd.Flags().BoolVar(&opts.Table, "table", false, "tabulate every top-level parameter")
	cmd.Flags().BoolVar(&opts.Registry, "registry", false, "select from the identities in the registry")

	return cmd
}

func runSelect(opts *SelectOptions, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ids, err := selectInput(opts, args, cmd)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	formatter.VerboseLog("Selecting from %d identities", len(ids))

	if opts.Where != "" {
		pred, err := query.Compile(opts.Where)
		if err != nil {
			return formatter.FailCode(ExitFailure, ErrCodeInvalidQuery, err)
		}
		formatter.VerboseLog("Filter: %s", pred)
		if ids, err = query.Filter(ids, opts.Where); err != nil {
			return formatter.Fail(ExitFailure, err)
		}
	}

	result := SelectResult{IDs: ids}
	if len(opts.Sort) > 0 {
		if result.IDs, result.SortBy, err = query.SortIDs(ids, opts.Sort...); err != nil {
			return formatter.Fail(ExitFailure, err)
		}
	}
	if result.IDs == nil {
		result.IDs = []string{}
	}

	if opts.Table || len(opts.Columns) > 0 {
		table, err := query.Columns(result.IDs, opts.Columns...)
		if err != nil {
			return formatter.Fail(ExitFailure, err)
		}
		result.Columns = table.Columns
		for _, row := range table.Rows {
			result.Rows = append(result.Rows, row.Values)
		}
	}

	if formatter.Structured() {
		result.Rows = nativeRows(result.Rows)
		result.SortBy = nativeRows(result.SortBy)
		return formatter.Success(result)
	}
	if result.Columns != nil {
		return outputSelectTable(formatter, result)
	}
	for _, id := range result.IDs {
		fmt.Fprintln(formatter.Writer, id)
	}
	return nil
}

func selectInput(opts *SelectOptions, args []string, cmd *cobra.Command) ([]string, error) {
	if !opts.Registry {
		return readIDs(args, cmd.InOrStdin())
	}
	st, err := openStore(opts.RootOptions)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	bindings, err := st.AllNicknames(context.Background())
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(bindings))
	for i, b := range bindings {
		ids[i] = b.ID
	}
	return append(ids, args...), nil
}

func outputSelectTable(formatter *OutputFormatter, result SelectResult) error {
	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%s\n", strings.Join(result.Columns, "\t"))
	for i, id := range result.IDs {
		cells := make([]string, len(result.Rows[i]))
		for j, v := range result.Rows[i] {
			cells[j] = cell(v)
		}
		fmt.Fprintf(tw, "%s\t%s\n", id, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

// cell renders a table value in identity syntax; missing values are blank.
func cell(v any) string {
	if v == nil {
		return ""
	}
	enc, err := what.Encode(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return enc
}

// nativeRows converts parameter values to plain Go values for encoding.
func nativeRows(rows [][]any) [][]any {
	for _, row := range rows {
		for j, v := range row {
			if val, err := what.ToValue(v); err == nil {
				row[j] = what.Native(val)
			}
		}
	}
	return rows
}
