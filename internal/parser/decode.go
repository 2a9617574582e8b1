package parser

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roach88/whatid/internal/what"
)

// ErrAmbiguousOut is returned by DecodeLegacy when the out label is given
// both as a prefix and as a parameter.
var ErrAmbiguousOut = errors.New("whatid defines out ambiguously")

var (
	canonicalOnce sync.Once
	canonical     *Parser
	legacyOnce    sync.Once
	legacy        *Parser
)

// Default returns the shared canonical parser, built on first use.
func Default() *Parser {
	canonicalOnce.Do(func() { canonical = New() })
	return canonical
}

// DefaultLegacy returns the shared legacy parser, built on first use.
func DefaultLegacy() *Parser {
	legacyOnce.Do(func() { legacy = New(WithDialect(Legacy)) })
	return legacy
}

// Decode parses input and rebuilds the configuration it identifies.
func (p *Parser) Decode(input string) (*what.Config, error) {
	return p.DecodeWith(input, ValueVisitor{})
}

// DecodeWith parses input and reduces it with v. The visitor must produce a
// *what.Config for the top-level identity.
func (p *Parser) DecodeWith(input string, v Visitor) (*what.Config, error) {
	tree, err := p.Parse(input)
	if err != nil {
		return nil, err
	}
	out, err := Walk(v, tree)
	if err != nil {
		return nil, err
	}
	c, ok := out.(*what.Config)
	if !ok {
		return nil, fmt.Errorf("visitor returned %T for identity, want *what.Config", out)
	}
	return c, nil
}

// Decode parses a canonical identity with the shared parser.
func Decode(input string) (*what.Config, error) {
	return Default().Decode(input)
}

// MustDecode is like Decode but panics on error.
func MustDecode(input string) *what.Config {
	c, err := Decode(input)
	if err != nil {
		panic(err)
	}
	return c
}

// DecodeLegacy parses a '#'-separated identity. A leading out=label# is
// folded into the configuration as the "out" parameter; declaring out in
// both places is an error.
func DecodeLegacy(input string) (*what.Config, error) {
	body, out, offset := input, "", 0
	if rest, ok := strings.CutPrefix(input, "out="); ok {
		label, tail, found := strings.Cut(rest, "#")
		if !found {
			return nil, &MalformedIdentityError{Input: input, Pos: len(input), Message: "expected '#' after out label"}
		}
		out, body, offset = label, tail, len("out=")+len(label)+1
	}

	c, err := DefaultLegacy().Decode(body)
	if err != nil {
		var me *MalformedIdentityError
		if errors.As(err, &me) && offset > 0 {
			return nil, &MalformedIdentityError{Input: input, Pos: me.Pos + offset, Message: me.Message}
		}
		return nil, err
	}

	if offset > 0 {
		if prev, ok := c.Get("out"); ok {
			return nil, fmt.Errorf("%w (%q and %q)", ErrAmbiguousOut, out, describeOut(prev))
		}
		if err := c.Set("out", what.String(out)); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func describeOut(v any) string {
	if s, ok := v.(what.String); ok {
		return string(s)
	}
	return fmt.Sprint(v)
}

// Migrate rewrites a legacy identity in canonical form. Input that is not a
// legacy identity is returned unchanged.
func Migrate(input string) (string, error) {
	c, err := DecodeLegacy(input)
	if err != nil {
		if IsMalformedIdentity(err) {
			return input, nil
		}
		return "", err
	}
	return c.ID()
}
