package what

import (
	"fmt"
	"strings"
)

// IDOption configures identity rendering.
type IDOption func(*idOptions)

type idOptions struct {
	includeNonID bool
	maxLength    int
	registry     *Registry
	normalize    bool
}

// IncludeNonID renders non-identity keys too.
func IncludeNonID() IDOption {
	return func(o *idOptions) { o.includeNonID = true }
}

// MaxLength replaces identities longer than n with their SHA-256 hex
// digest. n <= 0 disables the limit.
func MaxLength(n int) IDOption {
	return func(o *idOptions) { o.maxLength = n }
}

// WithRegistry encodes values with r instead of the default registry.
func WithRegistry(r *Registry) IDOption {
	return func(o *idOptions) { o.registry = r }
}

// NormalizeUnicode applies NFC normalization to string values before
// quoting, so canonically equivalent text yields the same identity.
func NormalizeUnicode() IDOption {
	return func(o *idOptions) { o.normalize = true }
}

func buildIDOptions(opts []IDOption) idOptions {
	var o idOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = DefaultRegistry()
	}
	return o
}

type renderOptions struct {
	includeNonID bool
	positional   bool
}

// ID returns the canonical identity string:
//
//	[out=]name(k1=v1,k2=v2)
func (c *Config) ID(opts ...IDOption) (string, error) {
	o := buildIDOptions(opts)
	e := o.registry.Encoder()
	e.normalize = o.normalize
	s, err := c.render(e, renderOptions{includeNonID: o.includeNonID})
	if err != nil {
		return "", err
	}
	if o.maxLength > 0 && len(s) > o.maxLength {
		return Digest(s), nil
	}
	return s, nil
}

// MustID is like ID but panics on error.
// Use only in tests or when inputs are known to be valid.
func (c *Config) MustID(opts ...IDOption) string {
	id, err := c.ID(opts...)
	if err != nil {
		panic(err)
	}
	return id
}

// PositionalID renders values without keys, in key order:
//
//	[out=]name(v1,v2)
//
// It is lossy and meant for display only.
func (c *Config) PositionalID(opts ...IDOption) (string, error) {
	o := buildIDOptions(opts)
	e := o.registry.Encoder()
	e.normalize = o.normalize
	s, err := c.render(e, renderOptions{includeNonID: o.includeNonID, positional: true})
	if err != nil {
		return "", err
	}
	if o.maxLength > 0 && len(s) > o.maxLength {
		return Digest(s), nil
	}
	return s, nil
}

// String returns the identity, or a description of why it has none.
func (c *Config) String() string {
	id, err := c.ID()
	if err != nil {
		return fmt.Sprintf("%s(<%v>)", c.Name, err)
	}
	return id
}

func (c *Config) render(e *Encoder, o renderOptions) (string, error) {
	if err := c.checkOrdering(); err != nil {
		return "", err
	}
	keys := c.orderedKeys(o.includeNonID)
	parts := make([]string, len(keys))
	for i, k := range keys {
		v, err := e.Encode(c.Params[k])
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", c.Name, k, err)
		}
		if o.positional {
			parts[i] = v
		} else {
			parts[i] = c.synonym(k) + "=" + v
		}
	}

	var b strings.Builder
	if c.OutName != "" {
		b.WriteString(c.OutName)
		b.WriteByte('=')
	}
	b.WriteString(c.synonym(c.Name))
	b.WriteString(joinWrapped("(", parts, ")"))
	return b.String(), nil
}

func (c *Config) synonym(k string) string {
	if s, ok := c.synonyms[k]; ok {
		return s
	}
	return k
}
