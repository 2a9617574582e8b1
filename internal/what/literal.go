package what

import (
	"math"
	"strconv"
	"strings"
)

// FormatFloat renders f so that it parses back to the same float64.
// Infinities and NaN render as inf, -inf and nan. Finite values use the
// shortest round-trip digits, in positional form for decimal exponents in
// [-4, 16) and in exponent form otherwise; positional values always carry a
// decimal point.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	sci := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return sci
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// QuoteString wraps s in single quotes. Bare quotes are escaped and already
// escaped quotes are kept, so quoting is idempotent over \' and '. Any other
// backslash pair is copied verbatim. A trailing lone backslash would escape
// the closing quote and is rejected.
func QuoteString(s string) (string, error) {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			if i+1 == len(s) {
				err := newUnencodable("string %q ends with a lone backslash", s)
				err.Hint = `a trailing backslash would escape the closing quote; end the string with a \\ pair, which is kept verbatim, or drop it`
				return "", err
			}
			b.WriteByte(c)
			b.WriteByte(s[i+1])
			i++
		case '\'':
			b.WriteString(`\'`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('\'')
	return b.String(), nil
}

// UnquoteBody reverses QuoteString on the text between the quotes: \'
// becomes ' and every other backslash pair is kept verbatim.
func UnquoteBody(body string) string {
	if !strings.Contains(body, `\'`) {
		return body
	}
	var b strings.Builder
	b.Grow(len(body))
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '\\' && i+1 < len(body) {
			if body[i+1] != '\'' {
				b.WriteByte(c)
			}
			b.WriteByte(body[i+1])
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// IsIdentifier reports whether s matches [_A-Za-z][_A-Za-z0-9]*.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
