package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whatid/internal/parser"
	"github.com/roach88/whatid/internal/what"
)

// DecodeOptions holds flags for the decode command.
type DecodeOptions struct {
	*RootOptions
	Legacy bool
	Tree   bool
}

// DecodeResult describes a decoded identity.
type DecodeResult struct {
	ID     string         `json:"id" yaml:"id"`
	Name   string         `json:"name" yaml:"name"`
	Out    string         `json:"out,omitempty" yaml:"out,omitempty"`
	UUID   string         `json:"uuid" yaml:"uuid"`
	Config map[string]any `json:"config" yaml:"config"`
	Tree   string         `json:"tree,omitempty" yaml:"tree,omitempty"`
}

// NewDecodeCommand creates the decode command.
func NewDecodeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecodeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decode <id>",
		Short: "Decode an identity string into its configuration",
		Long: `Parse an identity string and print its name, out label and parameters.

The identity is re-encoded canonically, so decode also normalizes ids
written by hand. With --db set, a registered nickname may be given instead
of an identity.

Exit codes:
  0 - Identity decoded
  1 - Malformed identity
  2 - Command error

Examples:
  whatid decode "clf=rfc(n_estimators=100,max_depth=None)"
  whatid decode --tree "svc(c=0.5,kernel='rbf')"
  whatid decode --legacy "out=clf#rfc#n=3"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Legacy, "legacy", false, "parse the legacy '#'-separated form")
	cmd.Flags().BoolVar(&opts.Tree, "tree", false, "print the syntax tree with byte offsets")

	return cmd
}

func runDecode(opts *DecodeOptions, arg string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	input, err := resolveID(ctx, opts.RootOptions, arg)
	if err != nil {
		return err
	}
	if input != arg {
		formatter.VerboseLog("Resolved nickname %s to %s", arg, input)
	}

	p := parser.Default()
	decode := parser.Decode
	if opts.Legacy {
		p = parser.DefaultLegacy()
		decode = parser.DecodeLegacy
	}

	c, err := decode(input)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	id, err := c.ID(opts.IDOptions()...)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	result := DecodeResult{
		ID:     id,
		Name:   c.Name,
		Out:    c.OutName,
		UUID:   what.IdentityUUID(id).String(),
		Config: c.ToMap(),
	}
	if opts.Tree {
		// Parse rejects the legacy out= prefix that DecodeLegacy strips; no tree then.
		tree, err := p.Parse(input)
		if err == nil {
			result.Tree = parser.DumpString(tree)
		}
	}

	if formatter.Structured() {
		return formatter.Success(result)
	}
	return outputDecodeText(formatter, c, result)
}

func outputDecodeText(formatter *OutputFormatter, c *what.Config, result DecodeResult) error {
	w := formatter.Writer
	fmt.Fprintf(w, "id:    %s\n", result.ID)
	fmt.Fprintf(w, "name:  %s\n", result.Name)
	if result.Out != "" {
		fmt.Fprintf(w, "out:   %s\n", result.Out)
	}
	fmt.Fprintf(w, "uuid:  %s\n", result.UUID)

	if keys := c.Keys(true); len(keys) > 0 {
		fmt.Fprintln(w, "params:")
		for _, k := range keys {
			enc, err := what.Encode(c.Params[k])
			if err != nil {
				return formatter.Fail(ExitFailure, err)
			}
			fmt.Fprintf(w, "  %s = %s\n", k, enc)
		}
	}

	if result.Tree != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, result.Tree)
	}
	return nil
}
