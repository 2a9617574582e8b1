package what

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"whole", 1, "1.0"},
		{"tenth", 0.1, "0.1"},
		{"pi", 3.14, "3.14"},
		{"negative", -2.5, "-2.5"},
		{"negative zero", math.Copysign(0, -1), "-0.0"},
		{"small positional", 0.0001, "0.0001"},
		{"small exponent", 0.00001, "1e-05"},
		{"large positional", 1e15, "1000000000000000.0"},
		{"large exponent", 1e16, "1e+16"},
		{"huge", 1.5e300, "1.5e+300"},
		{"many digits", 123456789.123, "123456789.123"},
		{"positive infinity", math.Inf(1), "inf"},
		{"negative infinity", math.Inf(-1), "-inf"},
		{"nan", math.NaN(), "nan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatFloat(tt.input))
		})
	}
}

func TestFormatFloatRoundTrips(t *testing.T) {
	for _, f := range []float64{0.1, 1.0 / 3.0, 2.5e-7, 6.02214076e23, -1e-300, 42} {
		s := FormatFloat(f)
		back, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err, s)
		assert.Equal(t, f, back, s)
	}
}

func TestQuoteString(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain", "hey", `'hey'`},
		{"empty", "", `''`},
		{"bare quote", "it's", `'it\'s'`},
		{"escaped quote kept", `it\'s`, `'it\'s'`},
		{"nested id", "C(d='hey')", `'C(d=\'hey\')'`},
		{"backslash pair kept", `a\\b`, `'a\\b'`},
		{"backslash letter kept", `a\nb`, `'a\nb'`},
		{"double quotes untouched", `say "hi"`, `'say "hi"'`},
		{"unicode", "café", `'café'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuoteString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestQuoteStringIsIdempotentOverEscapedQuotes(t *testing.T) {
	a, err := QuoteString(`don't`)
	require.NoError(t, err)
	b, err := QuoteString(`don\'t`)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestQuoteStringRejectsTrailingBackslash(t *testing.T) {
	_, err := QuoteString(`path\`)
	require.Error(t, err)
	assert.True(t, IsUnencodable(err))

	var werr *Error
	require.ErrorAs(t, err, &werr)
	assert.Contains(t, werr.Hint, "trailing backslash")

	_, err = MustNew("c", map[string]any{"dir": `C:\dir\`}).ID()
	assert.True(t, IsUnencodable(err))

	doubled := MustNew("c", map[string]any{"dir": `C:\dir\\`})
	assert.Equal(t, `c(dir='C:\dir\\')`, doubled.MustID())
}

func TestUnquoteBodyReversesQuote(t *testing.T) {
	for _, s := range []string{"hey", "it's", "C(d='hey')", `a\\b`, `tab\there`, "''"} {
		quoted, err := QuoteString(s)
		require.NoError(t, err)
		body := quoted[1 : len(quoted)-1]
		assert.Equal(t, s, UnquoteBody(body), quoted)
	}
}

func TestIsIdentifier(t *testing.T) {
	valid := []string{"a", "_", "rfc", "n_jobs", "A1", "_private", "x9_y"}
	invalid := []string{"", "1a", "a-b", "a b", "é", "a.b", "(x)"}

	for _, s := range valid {
		assert.True(t, IsIdentifier(s), s)
	}
	for _, s := range invalid {
		assert.False(t, IsIdentifier(s), s)
	}
}
