package parser

import "fmt"

// Dialect selects the identity syntax a Parser accepts.
type Dialect int

const (
	// Canonical is name(k=v,...), the form produced by what.Config.ID.
	Canonical Dialect = iota

	// Legacy is name#k=v#k=v, with nested identities quoted in double quotes.
	Legacy
)

func (d Dialect) String() string {
	if d == Legacy {
		return "legacy"
	}
	return "canonical"
}

// DefaultMaxDepth bounds the nesting of containers and identities.
const DefaultMaxDepth = 512

// Parser turns identity strings into ASTs. A Parser holds no per-call state
// and is safe for concurrent use.
type Parser struct {
	dialect  Dialect
	maxDepth int
}

// Option configures a Parser.
type Option func(*Parser)

// WithDialect selects the accepted syntax.
func WithDialect(d Dialect) Option {
	return func(p *Parser) { p.dialect = d }
}

// WithMaxDepth bounds nesting; inputs nested deeper are malformed.
func WithMaxDepth(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// New creates a Parser. The zero configuration parses the canonical dialect.
func New(opts ...Option) *Parser {
	p := &Parser{dialect: Canonical, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Dialect reports the syntax this parser accepts.
func (p *Parser) Dialect() Dialect {
	return p.dialect
}

// Parse parses a complete identity. Trailing input is an error.
func (p *Parser) Parse(input string) (*WhatID, error) {
	toks, err := lex(input)
	if err != nil {
		return nil, err
	}
	s := &state{input: input, toks: toks, dialect: p.dialect, maxDepth: p.maxDepth}

	var id *WhatID
	if p.dialect == Legacy {
		id, err = s.legacyTop()
	} else {
		id, err = s.whatID()
	}
	if err != nil {
		return nil, err
	}
	if t := s.peek(); t.kind != tokEOF {
		return nil, s.errorf(t, "unexpected %s after identity", t.describe())
	}
	return id, nil
}

// state is the cursor of one Parse call.
type state struct {
	input    string
	toks     []token
	i        int
	depth    int
	maxDepth int
	dialect  Dialect
}

func (s *state) peek() token {
	return s.toks[s.i]
}

func (s *state) peekAt(n int) token {
	if s.i+n >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[s.i+n]
}

func (s *state) next() token {
	t := s.toks[s.i]
	if t.kind != tokEOF {
		s.i++
	}
	return t
}

func (s *state) expect(k tokenKind) (token, error) {
	t := s.peek()
	if t.kind != k {
		return t, s.errorf(t, "expected %s, found %s", k, t.describe())
	}
	return s.next(), nil
}

func (s *state) errorf(t token, format string, args ...any) error {
	return &MalformedIdentityError{Input: s.input, Pos: t.pos, Message: fmt.Sprintf(format, args...)}
}

func (s *state) enter(t token) error {
	s.depth++
	if s.depth > s.maxDepth {
		return s.errorf(t, "nesting deeper than %d levels", s.maxDepth)
	}
	return nil
}

func (s *state) leave() {
	s.depth--
}

// whatID parses [out=]name(kvs).
func (s *state) whatID() (*WhatID, error) {
	first, err := s.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if err := s.enter(first); err != nil {
		return nil, err
	}
	defer s.leave()

	id := &WhatID{At: first.pos, Name: first.text}
	if s.peek().kind == tokEquals {
		s.next()
		name, err := s.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		id.OutName, id.Name = first.text, name.text
	}
	if _, err := s.expect(tokLParen); err != nil {
		return nil, err
	}
	if s.peek().kind != tokRParen {
		if id.Params, err = s.kvs(tokComma); err != nil {
			return nil, err
		}
	}
	if _, err := s.expect(tokRParen); err != nil {
		return nil, err
	}
	return id, nil
}

// kvs parses one or more k=v separated by sep. Duplicate keys are rejected.
func (s *state) kvs(sep tokenKind) ([]*KV, error) {
	var out []*KV
	seen := map[string]bool{}
	for {
		key, err := s.expect(tokIdent)
		if err != nil {
			return nil, err
		}
		if seen[key.text] {
			return nil, s.errorf(key, "duplicate key %q", key.text)
		}
		seen[key.text] = true
		if _, err := s.expect(tokEquals); err != nil {
			return nil, err
		}
		v, err := s.value()
		if err != nil {
			return nil, err
		}
		out = append(out, &KV{At: key.pos, Key: key.text, Value: v})
		if s.peek().kind != sep {
			return out, nil
		}
		s.next()
	}
}

func (s *state) value() (Node, error) {
	t := s.peek()
	switch t.kind {
	case tokNumber:
		s.next()
		return &NumberLit{At: t.pos, Raw: t.text}, nil
	case tokString:
		s.next()
		return &StringLit{At: t.pos, Raw: t.text}, nil
	case tokLParen:
		elems, err := s.sequence(tokLParen, tokRParen)
		if err != nil {
			return nil, err
		}
		return &TupleLit{At: t.pos, Elems: elems}, nil
	case tokLBracket:
		elems, err := s.sequence(tokLBracket, tokRBracket)
		if err != nil {
			return nil, err
		}
		return &ListLit{At: t.pos, Elems: elems}, nil
	case tokLBrace:
		return s.braced()
	case tokDQuote:
		if s.dialect == Legacy {
			return s.legacyQuoted()
		}
	case tokIdent:
		return s.identValue()
	}
	return nil, s.errorf(t, "expected value, found %s", t.describe())
}

// identValue handles values that start with an identifier: keywords,
// set constructors and nested identities.
func (s *state) identValue() (Node, error) {
	t := s.peek()
	after := s.peekAt(1)

	switch {
	case t.text == "set" && after.kind == tokLParen && s.peekAt(2).kind == tokRParen:
		s.i += 3
		return &SetLit{At: t.pos}, nil
	case t.text == "frozenset" && after.kind == tokLParen:
		return s.frozenSet()
	case s.dialect == Canonical && (after.kind == tokLParen || after.kind == tokEquals):
		return s.whatID()
	case s.dialect == Legacy && after.kind == tokHash:
		return s.legacyID()
	}

	s.next()
	switch t.text {
	case "None":
		return &NoneLit{At: t.pos}, nil
	case "True":
		return &BoolLit{At: t.pos, Value: true}, nil
	case "False":
		return &BoolLit{At: t.pos, Value: false}, nil
	case "inf", "nan":
		return &NumberLit{At: t.pos, Raw: t.text}, nil
	}
	return nil, s.errorf(t, "unexpected identifier %q", t.text)
}

// frozenSet parses frozenset() or frozenset({elems}).
func (s *state) frozenSet() (Node, error) {
	start := s.next()
	s.next() // (
	set := &SetLit{At: start.pos, Frozen: true}
	if s.peek().kind == tokLBrace {
		elems, err := s.sequence(tokLBrace, tokRBrace)
		if err != nil {
			return nil, err
		}
		set.Elems = elems
	}
	if _, err := s.expect(tokRParen); err != nil {
		return nil, err
	}
	return set, nil
}

// sequence parses open [value (, value)*] close.
func (s *state) sequence(open, close tokenKind) ([]Node, error) {
	start, err := s.expect(open)
	if err != nil {
		return nil, err
	}
	if err := s.enter(start); err != nil {
		return nil, err
	}
	defer s.leave()

	elems := []Node{}
	if s.peek().kind == close {
		s.next()
		return elems, nil
	}
	for {
		v, err := s.value()
		if err != nil {
			return nil, err
		}
		elems = append(elems, v)
		if s.peek().kind != tokComma {
			break
		}
		s.next()
	}
	if _, err := s.expect(close); err != nil {
		return nil, err
	}
	return elems, nil
}

// braced parses {} as an empty dict, {k:v,...} as a dict and {v,...} as a
// set. The first element decides.
func (s *state) braced() (Node, error) {
	start := s.next()
	if err := s.enter(start); err != nil {
		return nil, err
	}
	defer s.leave()

	if s.peek().kind == tokRBrace {
		s.next()
		return &DictLit{At: start.pos}, nil
	}
	first, err := s.value()
	if err != nil {
		return nil, err
	}

	if s.peek().kind != tokColon {
		set := &SetLit{At: start.pos, Elems: []Node{first}}
		for s.peek().kind == tokComma {
			s.next()
			v, err := s.value()
			if err != nil {
				return nil, err
			}
			set.Elems = append(set.Elems, v)
		}
		if _, err := s.expect(tokRBrace); err != nil {
			return nil, err
		}
		return set, nil
	}

	dict := &DictLit{At: start.pos}
	key := first
	for {
		if _, err := s.expect(tokColon); err != nil {
			return nil, err
		}
		v, err := s.value()
		if err != nil {
			return nil, err
		}
		dict.Entries = append(dict.Entries, &DictEntry{Key: key, Value: v})
		if s.peek().kind != tokComma {
			break
		}
		s.next()
		if key, err = s.value(); err != nil {
			return nil, err
		}
	}
	if _, err := s.expect(tokRBrace); err != nil {
		return nil, err
	}
	return dict, nil
}
