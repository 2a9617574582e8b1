package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/whatid/internal/store"
)

// openStore opens the registry named by --db.
func openStore(opts *RootOptions) (*store.Store, error) {
	if opts.Database == "" {
		return nil, NewExitError(ExitCommandError, "no registry database: set --db or WHATID_DB")
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// resolveID returns arg, or the identity it names when a registry is
// configured and arg is a registered nickname.
func resolveID(ctx context.Context, opts *RootOptions, arg string) (string, error) {
	if opts.Database == "" {
		return arg, nil
	}
	st, err := openStore(opts)
	if err != nil {
		return "", err
	}
	defer st.Close()

	id, ok, err := st.NicknameToID(ctx, arg)
	if err != nil || !ok {
		// Anything that is not a valid nickname is taken as an identity.
		return arg, nil
	}
	return id, nil
}

// readIDs returns args, or one identity per non-blank line of r when args
// is empty.
func readIDs(args []string, r io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}
	var ids []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			ids = append(ids, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading identities: %w", err)
	}
	return ids, nil
}
