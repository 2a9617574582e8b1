package what

import (
	"fmt"
	"math"
	"reflect"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Names of the default handlers, in chain order.
const (
	HandlerConfig   = "config"
	HandlerWhatable = "whatable"
	HandlerOpaque   = "opaque"
	HandlerComputed = "computed"
	HandlerScalar   = "scalar"
	HandlerPointer  = "pointer"
	HandlerString   = "string"
	HandlerTuple    = "tuple"
	HandlerList     = "list"
	HandlerMap      = "map"
	HandlerSet      = "set"
	HandlerPartial  = "partial"
	HandlerFunction = "function"
	HandlerType     = "type"
	HandlerObject   = "object"
	HandlerFallback = "fallback"
)

// DefaultHandlers returns a fresh copy of the default chain. Specific
// handlers come first and catch-alls last.
func DefaultHandlers() []Handler {
	return []Handler{
		{Name: HandlerConfig, Encode: encodeConfig},
		{Name: HandlerWhatable, Encode: encodeWhatable},
		{Name: HandlerOpaque, Encode: rejectOpaque},
		{Name: HandlerComputed, Encode: rejectComputed},
		{Name: HandlerScalar, Encode: encodeScalar},
		{Name: HandlerPointer, Encode: encodePointer},
		{Name: HandlerString, Encode: encodeString},
		{Name: HandlerTuple, Encode: encodeTuple},
		{Name: HandlerList, Encode: encodeList},
		{Name: HandlerMap, Encode: encodeMap},
		{Name: HandlerSet, Encode: encodeSet},
		{Name: HandlerPartial, Encode: encodePartial},
		{Name: HandlerFunction, Encode: encodeFunction},
		{Name: HandlerType, Encode: encodeType},
		{Name: HandlerObject, Encode: encodeObject},
		{Name: HandlerFallback, Encode: encodeFallback},
	}
}

func encodeConfig(e *Encoder, v any) (string, bool, error) {
	switch c := v.(type) {
	case *Config:
		if c == nil {
			return "None", true, nil
		}
		s, err := c.render(e, renderOptions{})
		return s, true, err
	case Config:
		s, err := c.render(e, renderOptions{})
		return s, true, err
	}
	return "", false, nil
}

func encodeWhatable(e *Encoder, v any) (string, bool, error) {
	w, ok := v.(Whatable)
	if !ok {
		return "", false, nil
	}
	c := w.What()
	if c == nil {
		return "", true, newUnencodable("%T.What() did not return a configuration", v)
	}
	s, err := c.render(e, renderOptions{})
	return s, true, err
}

func rejectOpaque(_ *Encoder, v any) (string, bool, error) {
	if v == nil {
		return "", false, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.UnsafePointer:
		return "", true, newUnencodable("opaque value of type %T", v)
	case reflect.Func:
		if rv.IsNil() || runtime.FuncForPC(rv.Pointer()) == nil {
			return "", true, newUnencodable("function of type %T cannot be introspected", v)
		}
	}
	return "", false, nil
}

func rejectComputed(_ *Encoder, v any) (string, bool, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return "", false, nil
	}
	name := runtime.FuncForPC(rv.Pointer()).Name()
	if strings.HasSuffix(name, "-fm") {
		return "", true, newUnencodable("method value %s is bound to receiver state", strings.TrimSuffix(name, "-fm"))
	}
	return "", false, nil
}

func encodeScalar(_ *Encoder, v any) (string, bool, error) {
	switch val := v.(type) {
	case nil, Null:
		return "None", true, nil
	case Bool:
		return formatBool(bool(val)), true, nil
	case Int:
		return strconv.FormatInt(int64(val), 10), true, nil
	case Float:
		return FormatFloat(float64(val)), true, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return formatBool(rv.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			// Decodes as a float, so render it as one.
			return FormatFloat(float64(u)), true, nil
		}
		return strconv.FormatUint(u, 10), true, nil
	case reflect.Float32, reflect.Float64:
		return FormatFloat(rv.Float()), true, nil
	}
	return "", false, nil
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

// encodePointer renders nil pointers as None and dereferences the rest.
// Pointers to structs are left to the object handler so that methods on
// the pointer receiver stay visible.
func encodePointer(e *Encoder, v any) (string, bool, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer {
		return "", false, nil
	}
	if rv.IsNil() {
		return "None", true, nil
	}
	if rv.Elem().Kind() == reflect.Struct {
		return "", false, nil
	}
	s, err := e.Encode(rv.Elem().Interface())
	return s, true, err
}

func encodeString(e *Encoder, v any) (string, bool, error) {
	switch val := v.(type) {
	case String:
		s, err := e.quote(string(val))
		return s, true, err
	case string:
		s, err := e.quote(val)
		return s, true, err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		s, err := e.quote(rv.String())
		return s, true, err
	}
	return "", false, nil
}

func encodeTuple(e *Encoder, v any) (string, bool, error) {
	if t, ok := v.(Tuple); ok {
		parts, err := e.encodeAll(valuesToAny(t))
		if err != nil {
			return "", true, err
		}
		return joinWrapped("(", parts, ")"), true, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Array {
		return "", false, nil
	}
	parts, err := e.encodeAll(reflectElems(rv))
	if err != nil {
		return "", true, err
	}
	return named(rv.Type(), joinWrapped("(", parts, ")")), true, nil
}

func encodeList(e *Encoder, v any) (string, bool, error) {
	switch l := v.(type) {
	case List:
		parts, err := e.encodeAll(valuesToAny(l))
		if err != nil {
			return "", true, err
		}
		return joinWrapped("[", parts, "]"), true, nil
	case Map, Set, FrozenSet, OrderedMap:
		return "", false, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return "", false, nil
	}
	parts, err := e.encodeAll(reflectElems(rv))
	if err != nil {
		return "", true, err
	}
	return named(rv.Type(), joinWrapped("[", parts, "]")), true, nil
}

type encodedEntry struct {
	key   string
	value string
}

func encodeMap(e *Encoder, v any) (string, bool, error) {
	switch m := v.(type) {
	case Map:
		entries := make([]encodedEntry, len(m))
		for i, kv := range m {
			ent, err := encodeEntry(e, kv.Key, kv.Value)
			if err != nil {
				return "", true, err
			}
			entries[i] = ent
		}
		return sortedMapBody(entries), true, nil
	case OrderedMap:
		parts := make([]string, len(m))
		for i, kv := range m {
			ent, err := encodeEntry(e, kv.Key, kv.Value)
			if err != nil {
				return "", true, err
			}
			parts[i] = "(" + ent.key + "," + ent.value + ")"
		}
		return "OrderedMap(seq=" + joinWrapped("[", parts, "]") + ")", true, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || isSetShaped(rv.Type()) {
		return "", false, nil
	}
	entries := make([]encodedEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		ent, err := encodeEntry(e, iter.Key().Interface(), iter.Value().Interface())
		if err != nil {
			return "", true, err
		}
		entries = append(entries, ent)
	}
	return named(rv.Type(), sortedMapBody(entries)), true, nil
}

func encodeEntry(e *Encoder, k, v any) (encodedEntry, error) {
	ks, err := e.Encode(k)
	if err != nil {
		return encodedEntry{}, fmt.Errorf("map key: %w", err)
	}
	vs, err := e.Encode(v)
	if err != nil {
		return encodedEntry{}, fmt.Errorf("map[%s]: %w", ks, err)
	}
	return encodedEntry{key: ks, value: vs}, nil
}

// sortedMapBody orders entries by encoded key, then encoded value.
func sortedMapBody(entries []encodedEntry) string {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].key != entries[j].key {
			return entries[i].key < entries[j].key
		}
		return entries[i].value < entries[j].value
	})
	parts := make([]string, len(entries))
	for i, ent := range entries {
		parts[i] = ent.key + ":" + ent.value
	}
	return joinWrapped("{", parts, "}")
}

func encodeSet(e *Encoder, v any) (string, bool, error) {
	switch s := v.(type) {
	case Set:
		parts, err := sortedEncoded(e, valuesToAny(s))
		if err != nil {
			return "", true, err
		}
		return setBody(parts), true, nil
	case FrozenSet:
		parts, err := sortedEncoded(e, valuesToAny(s))
		if err != nil {
			return "", true, err
		}
		if len(parts) == 0 {
			return "frozenset()", true, nil
		}
		return "frozenset(" + joinWrapped("{", parts, "}") + ")", true, nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || !isSetShaped(rv.Type()) {
		return "", false, nil
	}
	keys := rv.MapKeys()
	elems := make([]any, len(keys))
	for i, k := range keys {
		elems[i] = k.Interface()
	}
	parts, err := sortedEncoded(e, elems)
	if err != nil {
		return "", true, err
	}
	return named(rv.Type(), setBody(parts)), true, nil
}

func setBody(parts []string) string {
	if len(parts) == 0 {
		return "set()"
	}
	return joinWrapped("{", dedupeSorted(parts), "}")
}

func dedupeSorted(parts []string) []string {
	out := parts[:0:0]
	for i, p := range parts {
		if i == 0 || p != parts[i-1] {
			out = append(out, p)
		}
	}
	return out
}

func encodePartial(e *Encoder, v any) (string, bool, error) {
	d, ok := v.(Deferred)
	if !ok {
		return "", false, nil
	}
	name, bound := d.Deferred()
	s, err := e.RenderAsConfig(name, bound)
	return s, true, err
}

func encodeFunction(e *Encoder, v any) (string, bool, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func {
		return "", false, nil
	}
	s, err := e.RenderAsConfig(funcName(rv), nil)
	return s, true, err
}

// funcName returns the unqualified name of a function, or lambda for
// closures and anything else without a usable name.
func funcName(rv reflect.Value) string {
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return "lambda"
	}
	fn := runtime.FuncForPC(rv.Pointer())
	if fn == nil {
		return "lambda"
	}
	full := fn.Name()
	if i := strings.IndexByte(full, '['); i >= 0 {
		full = full[:i]
	}
	full = strings.TrimSuffix(full, "-fm")
	segs := strings.Split(full[strings.LastIndexByte(full, '/')+1:], ".")
	last := segs[len(segs)-1]
	if isClosureSegment(last) {
		return "lambda"
	}
	if !IsIdentifier(last) {
		return "lambda"
	}
	return last
}

func isClosureSegment(seg string) bool {
	digits := strings.TrimPrefix(seg, "func")
	if digits == "" {
		return false
	}
	_, err := strconv.Atoi(digits)
	return err == nil
}

func encodeType(e *Encoder, v any) (string, bool, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		return "", false, nil
	}
	s, err := e.RenderAsConfig(typeName(t), nil)
	return s, true, err
}

// encodeObject harvests the exported fields of a struct without a textual
// form into a nested configuration. The what struct tag renames a field,
// skips it with "-", or marks it non-identity with ",nonid".
func encodeObject(e *Encoder, v any) (string, bool, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct || hasTextualForm(v) {
		return "", false, nil
	}
	c, err := harvest(rv)
	if err != nil {
		return "", true, err
	}
	s, err := c.render(e, renderOptions{})
	return s, true, err
}

func harvest(rv reflect.Value) (*Config, error) {
	t := rv.Type()
	c := &Config{Name: typeName(t), Params: make(map[string]any)}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key, nonID, skip := parseFieldTag(f)
		if skip {
			continue
		}
		if !IsIdentifier(key) {
			return nil, &Error{
				Code:    ErrCodeInvalidIdentifier,
				Message: fmt.Sprintf("field %s.%s maps to invalid key %q", t.Name(), f.Name, key),
				Key:     key,
			}
		}
		c.Params[key] = rv.Field(i).Interface()
		if nonID {
			c.addNonID(key)
		}
	}
	return c, nil
}

func parseFieldTag(f reflect.StructField) (key string, nonID, skip bool) {
	tag, ok := f.Tag.Lookup("what")
	if !ok {
		return f.Name, false, false
	}
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	for _, o := range strings.Split(opts, ",") {
		if o == "nonid" {
			nonID = true
		}
	}
	return name, nonID, false
}

func hasTextualForm(v any) bool {
	_, ok := textualForm(v)
	return ok
}

// textualForm calls String or Error on v. A struct value whose pointer
// carries the method is called through an addressable copy.
func textualForm(v any) (string, bool) {
	switch val := v.(type) {
	case fmt.Stringer:
		return val.String(), true
	case error:
		return val.Error(), true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Struct {
		return "", false
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	switch val := ptr.Interface().(type) {
	case fmt.Stringer:
		return val.String(), true
	case error:
		return val.Error(), true
	}
	return "", false
}

func encodeFallback(_ *Encoder, v any) (string, bool, error) {
	if s, ok := textualForm(v); ok {
		return s, true, nil
	}
	return fmt.Sprint(v), true, nil
}

// HashHandler returns a handler for bulk values that renders the values
// accepted by match as TypeName(hash='<digest>'). The digest comes from
// hasher; the contents are never embedded.
func HashHandler(name string, match func(v any) bool, hasher func(v any) (string, error)) Handler {
	return Handler{
		Name: name,
		Encode: func(e *Encoder, v any) (string, bool, error) {
			if !match(v) {
				return "", false, nil
			}
			digest, err := hasher(v)
			if err != nil {
				return "", true, newUnencodable("hashing %T: %v", v, err)
			}
			s, err := e.RenderAsConfig(typeName(reflect.TypeOf(v)), map[string]any{"hash": digest})
			return s, true, err
		},
	}
}

func typeName(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "None"
	}
	name := t.Name()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return t.Kind().String()
	}
	return name
}

// named wraps a container rendering as TypeName(seq=...) for defined types.
func named(t reflect.Type, body string) string {
	if t.Name() == "" {
		return body
	}
	return typeName(t) + "(seq=" + body + ")"
}

func valuesToAny(vals []Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func reflectElems(rv reflect.Value) []any {
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}
