package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/whatid/internal/parser"
	"github.com/roach88/whatid/internal/what"
)

// HashResult holds the digests of a canonical identity.
type HashResult struct {
	ID     string `json:"id" yaml:"id"`
	Digest string `json:"sha256" yaml:"sha256"`
	UUID   string `json:"uuid" yaml:"uuid"`
}

// NewHashCommand creates the hash command.
func NewHashCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hash <id>",
		Short: "Print the SHA-256 digest and UUID of an identity",
		Long: `Canonicalize an identity and print its SHA-256 digest (the value
--max-length substitutes for long ids) and its name-based UUID.

Examples:
  whatid hash "rfc(n_estimators=100)"
  whatid hash --db runs.db baseline`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHash(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runHash(opts *RootOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	input, err := resolveID(context.Background(), opts, arg)
	if err != nil {
		return err
	}
	c, err := parser.Decode(input)
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}
	id, err := c.ID()
	if err != nil {
		return formatter.Fail(ExitFailure, err)
	}

	result := HashResult{ID: id, Digest: what.Digest(id), UUID: what.IdentityUUID(id).String()}
	if formatter.Structured() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s  %s\n%s\n", result.Digest, result.ID, result.UUID)
	return nil
}
