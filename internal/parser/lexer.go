package parser

import (
	"fmt"
	"strings"
)

// tokenKind identifies a lexical token.
type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokNumber
	tokString
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokLBrace
	tokRBrace
	tokComma
	tokColon
	tokEquals
	tokHash
	tokDQuote
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of input",
	tokIdent:    "identifier",
	tokNumber:   "number",
	tokString:   "string",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokLBracket: "'['",
	tokRBracket: "']'",
	tokLBrace:   "'{'",
	tokRBrace:   "'}'",
	tokComma:    "','",
	tokColon:    "':'",
	tokEquals:   "'='",
	tokHash:     "'#'",
	tokDQuote:   "'\"'",
}

func (k tokenKind) String() string {
	return tokenNames[k]
}

// token is a lexeme with its byte offset. For strings, text is the raw body
// between the quotes.
type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) describe() string {
	switch t.kind {
	case tokIdent, tokNumber:
		return fmt.Sprintf("%s %q", t.kind, t.text)
	case tokString:
		return "string '" + t.text + "'"
	}
	return t.kind.String()
}

var punctuation = map[byte]tokenKind{
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBracket,
	']': tokRBracket,
	'{': tokLBrace,
	'}': tokRBrace,
	',': tokComma,
	':': tokColon,
	'=': tokEquals,
	'#': tokHash,
	'"': tokDQuote,
}

// lex splits input into tokens, skipping whitespace between them. The token
// slice always ends with tokEOF.
func lex(input string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case isSpace(c):
			i++
		case punctuation[c] != tokEOF:
			toks = append(toks, token{kind: punctuation[c], text: input[i : i+1], pos: i})
			i++
		case c == '\'':
			end, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, text: input[i+1 : end], pos: i})
			i = end + 1
		case c == '-' || isDigit(c):
			end, err := scanNumber(input, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokNumber, text: input[i:end], pos: i})
			i = end
		case isIdentStart(c):
			end := i + 1
			for end < len(input) && isIdentPart(input[end]) {
				end++
			}
			toks = append(toks, token{kind: tokIdent, text: input[i:end], pos: i})
			i = end
		default:
			return nil, &MalformedIdentityError{
				Input:   input,
				Pos:     i,
				Message: fmt.Sprintf("unexpected character %q", rune(c)),
			}
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(input)}), nil
}

// scanString returns the offset of the closing quote of the string opening
// at start. A backslash always escapes the byte after it.
func scanString(input string, start int) (int, error) {
	for i := start + 1; i < len(input); i++ {
		switch input[i] {
		case '\\':
			i++
		case '\'':
			return i, nil
		}
	}
	return 0, &MalformedIdentityError{Input: input, Pos: start, Message: "unterminated string"}
}

// scanNumber matches -?digits[.digits*][(e|E)[+-]digits], or -inf.
func scanNumber(input string, start int) (int, error) {
	i := start
	if input[i] == '-' {
		i++
		if strings.HasPrefix(input[i:], "inf") && !identContinues(input, i+3) {
			return i + 3, nil
		}
	}
	digits := i
	for i < len(input) && isDigit(input[i]) {
		i++
	}
	if i == digits {
		return 0, &MalformedIdentityError{Input: input, Pos: start, Message: "malformed number"}
	}
	if i < len(input) && input[i] == '.' {
		i++
		for i < len(input) && isDigit(input[i]) {
			i++
		}
	}
	if i < len(input) && (input[i] == 'e' || input[i] == 'E') {
		j := i + 1
		if j < len(input) && (input[j] == '+' || input[j] == '-') {
			j++
		}
		expDigits := j
		for j < len(input) && isDigit(input[j]) {
			j++
		}
		if j > expDigits {
			i = j
		}
	}
	if identContinues(input, i) {
		return 0, &MalformedIdentityError{Input: input, Pos: start, Message: "malformed number"}
	}
	return i, nil
}

func identContinues(input string, i int) bool {
	return i < len(input) && isIdentPart(input[i])
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c)
}
