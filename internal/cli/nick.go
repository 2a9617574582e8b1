package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/whatid/internal/parser"
	"github.com/roach88/whatid/internal/source"
	"github.com/roach88/whatid/internal/store"
	"github.com/roach88/whatid/internal/what"
)

// NickOptions holds flags for the nick subcommands.
type NickOptions struct {
	*RootOptions
	From   string // add: configuration file instead of an id
	Index  int    // add: which configuration of From
	Save   bool   // add: keep the full configuration
	Config bool   // get: print the saved configuration
	ByID   bool   // rm: the argument is an identity
	Yes    bool   // reset: confirm
}

// NicknameResult is one registry binding.
type NicknameResult struct {
	Nickname string `json:"nickname" yaml:"nickname"`
	ID       string `json:"id" yaml:"id"`
	UUID     string `json:"uuid" yaml:"uuid"`
	Saved    bool   `json:"saved" yaml:"saved"`
	Config   string `json:"config,omitempty" yaml:"config,omitempty"`
}

// NewNickCommand creates the nick command and its subcommands.
func NewNickCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &NickOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "nick",
		Short: "Manage nicknames for identities",
		Long: `Manage the nickname registry: short, human-chosen names bound one-to-one
to identities. The registry lives in the SQLite database given by --db.

Exit codes:
  0 - Success
  1 - Conflict or unknown nickname
  2 - Command error (no database, unreadable file, etc.)`,
	}

	add := &cobra.Command{
		Use:   "add <nickname> [id]",
		Short: "Bind a nickname to an identity",
		Long: `Bind a nickname to an identity, or to the configuration loaded with --from.

Examples:
  whatid nick add --db runs.db baseline "rfc(n_estimators=100)"
  whatid nick add --db runs.db --from experiment.yaml --save baseline`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNickAdd(opts, args, cmd)
		},
	}
	add.Flags().StringVar(&opts.From, "from", "", "load the configuration from a YAML, CUE or HCL file")
	add.Flags().IntVar(&opts.Index, "index", 0, "which configuration of --from to bind")
	add.Flags().BoolVar(&opts.Save, "save", false, "store the full configuration with the binding")

	get := &cobra.Command{
		Use:           "get <nickname|uuid>",
		Short:         "Print the identity bound to a nickname or UUID",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNickGet(opts, args[0], cmd)
		},
	}
	get.Flags().BoolVar(&opts.Config, "config", false, "print the saved configuration, non-identity keys included")

	of := &cobra.Command{
		Use:           "of <id>",
		Short:         "Print the nickname of an identity, or the identity itself",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNickOf(opts, args[0], cmd)
		},
	}

	rm := &cobra.Command{
		Use:           "rm <nickname>",
		Short:         "Remove a binding",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNickRemove(opts, args[0], cmd)
		},
	}
	rm.Flags().BoolVar(&opts.ByID, "id", false, "the argument is an identity, not a nickname")

	ls := &cobra.Command{
		Use:           "ls",
		Short:         "List bindings ordered by nickname",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNickList(opts, cmd)
		},
	}

	reset := &cobra.Command{
		Use:           "reset",
		Short:         "Remove every binding",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNickReset(opts, cmd)
		},
	}
	reset.Flags().BoolVar(&opts.Yes, "yes", false, "confirm removal of every binding")

	cmd.AddCommand(add, get, of, rm, ls, reset)
	return cmd
}

func runNickAdd(opts *NickOptions, args []string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)
	nickname := args[0]

	var c *what.Config
	switch {
	case opts.From != "" && len(args) == 2:
		return NewExitError(ExitCommandError, "give either an id or --from, not both")
	case opts.From != "":
		configs, err := source.Load(opts.From)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		if opts.Index < 0 || opts.Index >= len(configs) {
			return NewExitError(ExitCommandError,
				fmt.Sprintf("--index %d out of range: %s has %d configuration(s)", opts.Index, opts.From, len(configs)))
		}
		c = configs[opts.Index]
	case len(args) == 2:
		var err error
		if c, err = parser.Decode(args[1]); err != nil {
			return formatter.Fail(ExitFailure, err)
		}
	default:
		return NewExitError(ExitCommandError, "missing id: give one or use --from")
	}

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.RegisterConfig(ctx, nickname, c, opts.Save); err != nil {
		if store.IsConflict(err) || errors.Is(err, store.ErrInvalidNickname) {
			return formatter.Fail(ExitFailure, err)
		}
		return formatter.FailCode(ExitCommandError, ErrCodeDatabase, err)
	}

	id, _ := c.ID()
	formatter.VerboseLog("Registered %s -> %s", nickname, id)
	if !formatter.Structured() {
		fmt.Fprintf(formatter.Writer, "%s\t%s\n", nickname, id)
		return nil
	}
	return formatter.Success(NicknameResult{
		Nickname: nickname,
		ID:       id,
		UUID:     what.IdentityUUID(id).String(),
		Saved:    opts.Save,
	})
}

func runNickGet(opts *NickOptions, key string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	var b store.Binding
	var ok bool
	if u, perr := uuid.Parse(key); perr == nil {
		b, ok, err = st.LookupUUID(ctx, u)
	} else {
		b.Nickname = key
		b.ID, ok, err = st.NicknameToID(ctx, key)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	if !ok {
		return formatter.FailCode(ExitFailure, ErrCodeNotFound, fmt.Errorf("%q is not registered", key))
	}

	result := NicknameResult{Nickname: b.Nickname, ID: b.ID, UUID: what.IdentityUUID(b.ID).String()}
	if opts.Config {
		c, saved, err := st.Config(ctx, b.Nickname)
		if err != nil {
			return formatter.Fail(ExitCommandError, err)
		}
		if !saved {
			return formatter.FailCode(ExitFailure, ErrCodeNotFound,
				fmt.Errorf("no configuration saved for %q", b.Nickname))
		}
		result.Saved = true
		if result.Config, err = c.ID(what.IncludeNonID()); err != nil {
			return formatter.Fail(ExitFailure, err)
		}
	}

	if formatter.Structured() {
		return formatter.Success(result)
	}
	if result.Config != "" {
		return formatter.Success(result.Config)
	}
	return formatter.Success(result.ID)
}

func runNickOf(opts *NickOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	name, err := st.NicknameOrID(context.Background(), id)
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	return formatter.Success(name)
}

func runNickRemove(opts *NickOptions, key string, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	var removed bool
	if opts.ByID {
		removed, err = st.RemoveID(ctx, key)
	} else {
		removed, err = st.RemoveNickname(ctx, key)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, err)
	}
	if !removed {
		return formatter.FailCode(ExitFailure, ErrCodeNotFound, fmt.Errorf("%q is not registered", key))
	}
	formatter.VerboseLog("Removed %s", key)
	return nil
}

func runNickList(opts *NickOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	bindings, err := st.AllNicknames(context.Background())
	if err != nil {
		return formatter.FailCode(ExitCommandError, ErrCodeDatabase, err)
	}

	results := make([]NicknameResult, len(bindings))
	for i, b := range bindings {
		results[i] = NicknameResult{Nickname: b.Nickname, ID: b.ID, UUID: b.UUID.String(), Saved: b.Saved}
	}
	if formatter.Structured() {
		return formatter.Success(results)
	}
	if len(results) == 0 {
		fmt.Fprintln(formatter.Writer, "No nicknames registered.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(formatter.Writer, "%s\t%s\n", r.Nickname, r.ID)
	}
	return nil
}

func runNickReset(opts *NickOptions, cmd *cobra.Command) error {
	if !opts.Yes {
		return NewExitError(ExitCommandError, "reset removes every binding: pass --yes to confirm")
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openStore(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Reset(context.Background()); err != nil {
		return formatter.FailCode(ExitCommandError, ErrCodeDatabase, err)
	}
	return nil
}
