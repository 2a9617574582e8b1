package parser

// The legacy dialect separates the name and each k=v with '#':
//
//	rfc#n_jobs=4#seed='a'
//	outer#inner="rfc#n_jobs=4"#seed=1
//
// Nested identities appear either double-quoted or bare; a bare nested
// identity consumes every k=v that follows it. Literal values share the
// canonical sub-grammar.

func (s *state) legacyTop() (*WhatID, error) {
	if s.peek().kind == tokDQuote {
		return s.legacyQuoted()
	}
	return s.legacyID()
}

// legacyID parses name#[kv(#kv)*].
func (s *state) legacyID() (*WhatID, error) {
	name, err := s.expect(tokIdent)
	if err != nil {
		return nil, err
	}
	if err := s.enter(name); err != nil {
		return nil, err
	}
	defer s.leave()

	if _, err := s.expect(tokHash); err != nil {
		return nil, err
	}
	id := &WhatID{At: name.pos, Name: name.text}
	if s.peek().kind == tokIdent && s.peekAt(1).kind == tokEquals {
		if id.Params, err = s.kvs(tokHash); err != nil {
			return nil, err
		}
	}
	return id, nil
}

// legacyQuoted parses "name#kvs".
func (s *state) legacyQuoted() (*WhatID, error) {
	if _, err := s.expect(tokDQuote); err != nil {
		return nil, err
	}
	id, err := s.legacyID()
	if err != nil {
		return nil, err
	}
	if _, err := s.expect(tokDQuote); err != nil {
		return nil, err
	}
	return id, nil
}
