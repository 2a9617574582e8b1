package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whatid/internal/source"
	"github.com/roach88/whatid/internal/what"
)

// EncodeOptions holds flags for the encode command.
type EncodeOptions struct {
	*RootOptions
	IncludeNonID bool
	Positional   bool
	Normalize    bool
}

// EncodeResult is one encoded configuration.
type EncodeResult struct {
	Path string `json:"path" yaml:"path"`
	Name string `json:"name" yaml:"name"`
	ID   string `json:"id" yaml:"id"`
	UUID string `json:"uuid" yaml:"uuid"`
}

// NewEncodeCommand creates the encode command.
func NewEncodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EncodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "encode <file>...",
		Short: "Print the identity of each configuration in YAML, CUE or HCL files",
		Long: `Load configurations from files and print their canonical identities.

Files are read by extension: .yaml, .yml and .json as YAML, .cue as CUE and
.hcl as HCL. Identities are printed in file order, one per line.

Examples:
  whatid encode experiment.yaml
  whatid encode --include-non-id --format json runs.cue`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEncode(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.IncludeNonID, "include-non-id", false, "include non-identity keys")
	cmd.Flags().BoolVar(&opts.Positional, "positional", false, "render values without keys (display only)")
	cmd.Flags().BoolVar(&opts.Normalize, "nfc", false, "NFC-normalize strings before quoting")

	return cmd
}

func runEncode(opts *EncodeOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var extra []what.IDOption
	if opts.IncludeNonID {
		extra = append(extra, what.IncludeNonID())
	}
	if opts.Normalize {
		extra = append(extra, what.NormalizeUnicode())
	}
	idOpts := opts.IDOptions(extra...)

	results := []EncodeResult{}
	for _, path := range paths {
		configs, err := source.Load(path)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		formatter.VerboseLog("Loaded %d configuration(s) from %s", len(configs), path)

		for _, c := range configs {
			var id string
			if opts.Positional {
				id, err = c.PositionalID(idOpts...)
			} else {
				id, err = c.ID(idOpts...)
			}
			if err != nil {
				return formatter.Fail(ExitFailure, fmt.Errorf("%s: %w", path, err))
			}
			results = append(results, EncodeResult{
				Path: path,
				Name: c.Name,
				ID:   id,
				UUID: what.IdentityUUID(id).String(),
			})
		}
	}

	if formatter.Structured() {
		return formatter.Success(results)
	}
	for _, r := range results {
		fmt.Fprintln(formatter.Writer, r.ID)
	}
	return nil
}
