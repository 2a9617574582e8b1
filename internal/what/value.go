package what

import (
	"fmt"
	"math"
	"reflect"
)

// Value is a sealed interface over the shapes an encoded value can take.
// Only Null, Bool, Int, Float, String, List, Tuple, Set, FrozenSet, Map and
// *Config implement it.
type Value interface {
	whatValue() // sealed
}

// Null is the None marker. It is distinct from an absent key.
type Null struct{}

func (Null) whatValue() {}

// Bool renders as True or False.
type Bool bool

func (Bool) whatValue() {}

// Int is an integer value. Integers render without decoration.
type Int int64

func (Int) whatValue() {}

// Float is a floating point value, including the infinities and NaN.
type Float float64

func (Float) whatValue() {}

// String is a text value. It renders single-quoted.
type String string

func (String) whatValue() {}

// List is an ordered sequence, rendered [e1,e2].
type List []Value

func (List) whatValue() {}

// Tuple is a fixed sequence, rendered (e1,e2).
type Tuple []Value

func (Tuple) whatValue() {}

// Set is an unordered collection of distinct values, rendered {e1,e2}
// with elements sorted by their encoding, or set() when empty.
type Set []Value

func (Set) whatValue() {}

// FrozenSet is the immutable set variant, rendered frozenset({e1,e2}).
type FrozenSet []Value

func (FrozenSet) whatValue() {}

// Map is a mapping with arbitrary value keys, rendered {k1:v1,k2:v2} with
// entries sorted by encoded key.
type Map []Entry

func (Map) whatValue() {}

// Entry is a single key/value pair of a Map.
type Entry struct {
	Key   Value
	Value Value
}

func (*Config) whatValue() {}

// KV is a single entry of an OrderedMap.
type KV struct {
	Key   any
	Value any
}

// OrderedMap is a mapping that keeps insertion order. It renders as
// OrderedMap(seq=[(k1,v1),(k2,v2)]).
type OrderedMap []KV

// Whatable is implemented by values that know their own configuration.
type Whatable interface {
	What() *Config
}

// Deferred is implemented by calls with some arguments bound ahead of time.
// They render as the nested configuration name(bound...).
type Deferred interface {
	Deferred() (name string, bound map[string]any)
}

// Partial is a ready-made Deferred.
type Partial struct {
	Name string
	Args map[string]any
}

// Deferred implements the Deferred interface.
func (p Partial) Deferred() (string, map[string]any) {
	return p.Name, p.Args
}

// Bind returns a Partial named after fn with args bound.
// Anonymous functions are named lambda.
func Bind(fn any, args map[string]any) Partial {
	return Partial{Name: funcName(reflect.ValueOf(fn)), Args: args}
}

// NewSet builds a Set, dropping duplicate elements.
func NewSet(elems ...Value) Set {
	return Set(dedupe(elems))
}

// NewFrozenSet builds a FrozenSet, dropping duplicate elements.
func NewFrozenSet(elems ...Value) FrozenSet {
	return FrozenSet(dedupe(elems))
}

func dedupe(elems []Value) []Value {
	out := make([]Value, 0, len(elems))
	for _, e := range elems {
		if !containsValue(out, e) {
			out = append(out, e)
		}
	}
	return out
}

func containsValue(vals []Value, v Value) bool {
	for _, x := range vals {
		if valueEqual(x, v) {
			return true
		}
	}
	return false
}

// Get returns the value stored under key.
func (m Map) Get(key Value) (Value, bool) {
	for _, e := range m {
		if valueEqual(e.Key, key) {
			return e.Value, true
		}
	}
	return nil, false
}

// ToValue converts a Go value into the sealed Value form. Named container
// types become a nested configuration TypeName(seq=...), as the encoder
// renders them.
func ToValue(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case *Config:
		if val == nil {
			return Null{}, nil
		}
		return val, nil
	case Config:
		return &val, nil
	case Value:
		return val, nil
	case Whatable:
		c := val.What()
		if c == nil {
			return nil, newUnencodable("%T.What() returned nil", v)
		}
		return c, nil
	case Deferred:
		name, bound := val.Deferred()
		return &Config{Name: name, Params: bound}, nil
	case OrderedMap:
		items := make(List, len(val))
		for i, kv := range val {
			k, err := ToValue(kv.Key)
			if err != nil {
				return nil, err
			}
			x, err := ToValue(kv.Value)
			if err != nil {
				return nil, err
			}
			items[i] = Tuple{k, x}
		}
		return &Config{Name: "OrderedMap", Params: map[string]any{"seq": items}}, nil
	}
	return reflectToValue(reflect.ValueOf(v))
}

func reflectToValue(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Float(float64(u)), nil
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return ToValue(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			e, err := ToValue(rv.Index(i).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = e
		}
		var base Value = List(elems)
		if rv.Kind() == reflect.Array {
			base = Tuple(elems)
		}
		return wrapNamed(rv.Type(), base), nil
	case reflect.Map:
		keys := rv.MapKeys()
		if isSetShaped(rv.Type()) {
			elems := make([]Value, 0, len(keys))
			for _, k := range keys {
				e, err := ToValue(k.Interface())
				if err != nil {
					return nil, err
				}
				elems = append(elems, e)
			}
			return wrapNamed(rv.Type(), NewSet(elems...)), nil
		}
		m := make(Map, 0, len(keys))
		for _, k := range keys {
			kv, err := ToValue(k.Interface())
			if err != nil {
				return nil, err
			}
			vv, err := ToValue(rv.MapIndex(k).Interface())
			if err != nil {
				return nil, fmt.Errorf("[%v]: %w", k.Interface(), err)
			}
			m = append(m, Entry{Key: kv, Value: vv})
		}
		return wrapNamed(rv.Type(), m), nil
	case reflect.Struct:
		if !hasTextualForm(rv.Interface()) {
			return harvest(rv)
		}
	case reflect.Invalid:
		return Null{}, nil
	}
	return nil, newUnencodable("no value form for %s", rv.Type())
}

// wrapNamed turns a value of a defined container type into TypeName(seq=...).
func wrapNamed(t reflect.Type, base Value) Value {
	if t.Name() == "" {
		return base
	}
	return &Config{Name: typeName(t), Params: map[string]any{"seq": base}}
}

func isSetShaped(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem().Kind() == reflect.Struct && t.Elem().NumField() == 0
}

// Native converts a sealed Value into plain Go values: nil, bool, int64,
// float64, string, []any and map[string]any. Sets become []any. Map keys
// that are not strings are keyed by their encoding. Nested configurations
// become the map of their parameters.
func Native(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case List:
		return nativeSlice(val)
	case Tuple:
		return nativeSlice(val)
	case Set:
		return nativeSlice(val)
	case FrozenSet:
		return nativeSlice(val)
	case Map:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[mapKeyString(e.Key)] = Native(e.Value)
		}
		return out
	case *Config:
		if val == nil {
			return nil
		}
		out := make(map[string]any, len(val.Params))
		for k, p := range val.Params {
			pv, err := ToValue(p)
			if err != nil {
				out[k] = p
				continue
			}
			out[k] = Native(pv)
		}
		return out
	}
	return nil
}

func nativeSlice(vals []Value) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = Native(v)
	}
	return out
}

func mapKeyString(k Value) string {
	if s, ok := k.(String); ok {
		return string(s)
	}
	enc, err := Encode(k)
	if err != nil {
		return fmt.Sprint(Native(k))
	}
	return enc
}

// EqualValues reports whether a and b are structurally equal once converted
// to Values. Int and Float compare numerically, NaN never equals anything,
// sets and maps ignore order. Values with no Value form fall back to
// reflect.DeepEqual.
func EqualValues(a, b any) bool {
	va, errA := ToValue(a)
	vb, errB := ToValue(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return valueEqual(va, vb)
}

func valueEqual(a, b Value) bool {
	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		switch y := b.(type) {
		case Int:
			return x == y
		case Float:
			return float64(x) == float64(y)
		}
		return false
	case Float:
		switch y := b.(type) {
		case Float:
			return x == y
		case Int:
			return float64(x) == float64(y)
		}
		return false
	case String:
		y, ok := b.(String)
		return ok && x == y
	case List:
		y, ok := b.(List)
		return ok && seqEqual(x, y)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && seqEqual(x, y)
	case Set:
		y, ok := b.(Set)
		return ok && bagEqual(x, y)
	case FrozenSet:
		y, ok := b.(FrozenSet)
		return ok && bagEqual(x, y)
	case Map:
		y, ok := b.(Map)
		if !ok || len(x) != len(y) {
			return false
		}
		for _, e := range x {
			other, found := y.Get(e.Key)
			if !found || !valueEqual(e.Value, other) {
				return false
			}
		}
		return true
	case *Config:
		y, ok := b.(*Config)
		return ok && x.Equal(y)
	}
	return false
}

func seqEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !valueEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func bagEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for _, e := range a {
		if !containsValue(b, e) {
			return false
		}
	}
	return true
}
