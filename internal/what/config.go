package what

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Config is a named set of parameters with a canonical identity string.
//
// Params may hold any value the encoder chain accepts: scalars, strings,
// containers, nested *Config values, Whatable or Deferred values. Keys
// marked non-identity stay in Params and take part in Equal, but are left
// out of the ID unless IncludeNonID is given.
type Config struct {
	Name    string
	Params  map[string]any
	OutName string

	nonID    map[string]struct{}
	prefix   []string
	postfix  []string
	synonyms map[string]string
}

// Option configures a Config built by New.
type Option func(*Config) error

// WithNonIDKeys marks keys as excluded from the identity string.
func WithNonIDKeys(keys ...string) Option {
	return func(c *Config) error {
		for _, k := range keys {
			c.addNonID(k)
		}
		return nil
	}
}

// WithNonIDKeysFrom marks non-identity keys given in a loosely typed form:
// nil, a single string, a slice of strings or of any holding strings, or a
// map keyed by strings. Anything else is a NON_IDENTITY_KEYS_TYPE error.
func WithNonIDKeysFrom(keys any) Option {
	return func(c *Config) error {
		names, err := stringsFrom(keys)
		if err != nil {
			return err
		}
		for _, k := range names {
			c.addNonID(k)
		}
		return nil
	}
}

func stringsFrom(keys any) ([]string, error) {
	switch v := keys.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	}
	rv := reflect.ValueOf(keys)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s, ok := rv.Index(i).Interface().(string)
			if !ok {
				return nil, nonIDTypeError(keys)
			}
			out = append(out, s)
		}
		return out, nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, nonIDTypeError(keys)
		}
		out := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			out = append(out, k.String())
		}
		sort.Strings(out)
		return out, nil
	}
	return nil, nonIDTypeError(keys)
}

func nonIDTypeError(v any) *Error {
	return &Error{
		Code:    ErrCodeNonIdentityKeysType,
		Message: fmt.Sprintf("non-identity keys must be nil or a collection of strings, got %T", v),
	}
}

// WithOutName sets the label rendered as out=name(...).
func WithOutName(name string) Option {
	return func(c *Config) error {
		c.OutName = name
		return nil
	}
}

// WithPrefixKeys renders the given keys first, in the given order.
func WithPrefixKeys(keys ...string) Option {
	return func(c *Config) error {
		c.prefix = append(c.prefix, keys...)
		return nil
	}
}

// WithPostfixKeys renders the given keys last, in the given order.
func WithPostfixKeys(keys ...string) Option {
	return func(c *Config) error {
		c.postfix = append(c.postfix, keys...)
		return nil
	}
}

// WithSynonyms renames keys, and the name itself, when rendering.
func WithSynonyms(synonyms map[string]string) Option {
	return func(c *Config) error {
		if c.synonyms == nil {
			c.synonyms = make(map[string]string, len(synonyms))
		}
		maps.Copy(c.synonyms, synonyms)
		return nil
	}
}

// New builds a Config. The params map is copied.
func New(name string, params map[string]any, opts ...Option) (*Config, error) {
	if !IsIdentifier(name) {
		return nil, &Error{
			Code:    ErrCodeInvalidIdentifier,
			Message: fmt.Sprintf("name %q is not an identifier", name),
		}
	}
	c := &Config{Name: name, Params: make(map[string]any, len(params))}
	for k, v := range params {
		if !IsIdentifier(k) {
			return nil, &Error{
				Code:    ErrCodeInvalidIdentifier,
				Message: fmt.Sprintf("parameter key %q is not an identifier", k),
				Key:     k,
			}
		}
		c.Params[k] = v
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.OutName != "" && !IsIdentifier(c.OutName) {
		return nil, &Error{
			Code:    ErrCodeInvalidIdentifier,
			Message: fmt.Sprintf("out name %q is not an identifier", c.OutName),
		}
	}
	if err := c.checkOrdering(); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNew is like New but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustNew(name string, params map[string]any, opts ...Option) *Config {
	c, err := New(name, params, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Config) checkOrdering() error {
	for _, k := range c.prefix {
		if slices.Contains(c.postfix, k) {
			return &Error{
				Code:    ErrCodeAmbiguousKeyOrdering,
				Message: "key listed as both prefix and postfix",
				Key:     k,
			}
		}
	}
	return nil
}

func (c *Config) addNonID(k string) {
	if c.nonID == nil {
		c.nonID = make(map[string]struct{})
	}
	c.nonID[k] = struct{}{}
}

// IsNonID reports whether key is excluded from the identity string.
func (c *Config) IsNonID(key string) bool {
	_, ok := c.nonID[key]
	return ok
}

// NonIDKeys returns the non-identity keys, sorted.
func (c *Config) NonIDKeys() []string {
	keys := slices.Collect(maps.Keys(c.nonID))
	sort.Strings(keys)
	return keys
}

// Set stores a parameter.
func (c *Config) Set(key string, v any) error {
	if !IsIdentifier(key) {
		return &Error{
			Code:    ErrCodeInvalidIdentifier,
			Message: fmt.Sprintf("parameter key %q is not an identifier", key),
			Key:     key,
		}
	}
	if c.Params == nil {
		c.Params = make(map[string]any)
	}
	c.Params[key] = v
	return nil
}

// Get returns a parameter and whether it is present.
func (c *Config) Get(key string) (any, bool) {
	v, ok := c.Params[key]
	return v, ok
}

// Keys returns parameter keys in rendering order.
func (c *Config) Keys(includeNonID bool) []string {
	return c.orderedKeys(includeNonID)
}

// Values returns parameter values in rendering order.
func (c *Config) Values(includeNonID bool) []any {
	keys := c.orderedKeys(includeNonID)
	vals := make([]any, len(keys))
	for i, k := range keys {
		vals[i] = c.Params[k]
	}
	return vals
}

// orderedKeys sorts keys, then moves prefix keys to the front and postfix
// keys to the back in their configured order. Absent keys are skipped.
func (c *Config) orderedKeys(includeNonID bool) []string {
	keys := make([]string, 0, len(c.Params))
	for k := range c.Params {
		if !includeNonID && c.IsNonID(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(c.prefix) == 0 && len(c.postfix) == 0 {
		return keys
	}

	present := func(k string) bool {
		_, ok := slices.BinarySearch(keys, k)
		return ok
	}
	ordered := make([]string, 0, len(keys))
	for _, k := range c.prefix {
		if present(k) && !slices.Contains(ordered, k) {
			ordered = append(ordered, k)
		}
	}
	for _, k := range keys {
		if !slices.Contains(c.prefix, k) && !slices.Contains(c.postfix, k) {
			ordered = append(ordered, k)
		}
	}
	for _, k := range c.postfix {
		if present(k) && !slices.Contains(ordered, k) {
			ordered = append(ordered, k)
		}
	}
	return ordered
}

// Lookup resolves a path of keys. Each hop descends into a nested Config,
// a Whatable, a mapping (string or integer keys) or a sequence (integer
// index).
func (c *Config) Lookup(path ...string) (any, error) {
	if len(path) == 0 {
		return nil, newKeyNotFound("", "empty lookup path")
	}
	var cur any = c
	for i, seg := range path {
		next, ok := lookupStep(cur, seg)
		if !ok {
			return nil, newKeyNotFound(strings.Join(path[:i+1], "."), "%q does not resolve in %s", seg, describe(cur))
		}
		cur = next
	}
	return cur, nil
}

func lookupStep(cur any, seg string) (any, bool) {
	switch v := cur.(type) {
	case *Config:
		if v == nil {
			return nil, false
		}
		x, ok := v.Params[seg]
		return x, ok
	case Whatable:
		return lookupStep(v.What(), seg)
	case Map:
		if x, ok := v.Get(String(seg)); ok {
			return x, true
		}
		if n, err := strconv.ParseInt(seg, 10, 64); err == nil {
			return v.Get(Int(n))
		}
		return nil, false
	case map[string]any:
		x, ok := v[seg]
		return x, ok
	}

	rv := reflect.ValueOf(cur)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(seg)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return rv.Index(i).Interface(), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		x := rv.MapIndex(reflect.ValueOf(seg).Convert(rv.Type().Key()))
		if !x.IsValid() {
			return nil, false
		}
		return x.Interface(), true
	}
	return nil, false
}

func describe(v any) string {
	if c, ok := v.(*Config); ok && c != nil {
		return "configuration " + c.Name
	}
	return fmt.Sprintf("%T", v)
}

// Copy duplicates the configuration. A shallow copy shares parameter
// values; a deep copy also duplicates nested configurations and
// containers.
func (c *Config) Copy(deep bool) *Config {
	out := &Config{
		Name:     c.Name,
		OutName:  c.OutName,
		Params:   make(map[string]any, len(c.Params)),
		nonID:    maps.Clone(c.nonID),
		prefix:   slices.Clone(c.prefix),
		postfix:  slices.Clone(c.postfix),
		synonyms: maps.Clone(c.synonyms),
	}
	for k, v := range c.Params {
		if deep {
			v = deepCopy(v)
		}
		out.Params[k] = v
	}
	return out
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case *Config:
		if val == nil {
			return val
		}
		return val.Copy(true)
	case List:
		return List(copyValues(val))
	case Tuple:
		return Tuple(copyValues(val))
	case Set:
		return Set(copyValues(val))
	case FrozenSet:
		return FrozenSet(copyValues(val))
	case Map:
		out := make(Map, len(val))
		for i, e := range val {
			out[i] = Entry{Key: deepCopy(e.Key).(Value), Value: deepCopy(e.Value).(Value)}
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, x := range val {
			out[k] = deepCopy(x)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, x := range val {
			out[i] = deepCopy(x)
		}
		return out
	}
	return v
}

func copyValues(vals []Value) []Value {
	out := make([]Value, len(vals))
	for i, v := range vals {
		out[i] = deepCopy(v).(Value)
	}
	return out
}

// Equal reports whether both configurations have the same name, out name
// and full parameter mapping, non-identity keys included.
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Name != other.Name || c.OutName != other.OutName || len(c.Params) != len(other.Params) {
		return false
	}
	for k, v := range c.Params {
		o, ok := other.Params[k]
		if !ok || !EqualValues(v, o) {
			return false
		}
	}
	return true
}
