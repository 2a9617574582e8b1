package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/roach88/whatid/internal/what"
)

// Visitor reduces an AST bottom-up. Walk reduces children first and passes
// their results to the parent's method.
type Visitor interface {
	None(n *NoneLit) (any, error)
	Bool(n *BoolLit) (any, error)
	Number(n *NumberLit) (any, error)
	String(n *StringLit) (any, error)
	Tuple(n *TupleLit, elems []any) (any, error)
	List(n *ListLit, elems []any) (any, error)
	Set(n *SetLit, elems []any) (any, error)
	Dict(n *DictLit, keys, values []any) (any, error)
	WhatID(n *WhatID, params map[string]any) (any, error)
}

// Walk reduces n with v.
func Walk(v Visitor, n Node) (any, error) {
	switch n := n.(type) {
	case *NoneLit:
		return v.None(n)
	case *BoolLit:
		return v.Bool(n)
	case *NumberLit:
		return v.Number(n)
	case *StringLit:
		return v.String(n)
	case *TupleLit:
		elems, err := walkAll(v, n.Elems)
		if err != nil {
			return nil, err
		}
		return v.Tuple(n, elems)
	case *ListLit:
		elems, err := walkAll(v, n.Elems)
		if err != nil {
			return nil, err
		}
		return v.List(n, elems)
	case *SetLit:
		elems, err := walkAll(v, n.Elems)
		if err != nil {
			return nil, err
		}
		return v.Set(n, elems)
	case *DictLit:
		keys := make([]any, len(n.Entries))
		values := make([]any, len(n.Entries))
		for i, e := range n.Entries {
			var err error
			if keys[i], err = Walk(v, e.Key); err != nil {
				return nil, err
			}
			if values[i], err = Walk(v, e.Value); err != nil {
				return nil, err
			}
		}
		return v.Dict(n, keys, values)
	case *WhatID:
		params := make(map[string]any, len(n.Params))
		for _, kv := range n.Params {
			val, err := Walk(v, kv.Value)
			if err != nil {
				return nil, err
			}
			params[kv.Key] = val
		}
		return v.WhatID(n, params)
	case *KV:
		return Walk(v, n.Value)
	}
	return nil, fmt.Errorf("walk: unknown node %T", n)
}

func walkAll(v Visitor, nodes []Node) ([]any, error) {
	out := make([]any, len(nodes))
	for i, n := range nodes {
		val, err := Walk(v, n)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

// ValueVisitor rebuilds what values: nested identities become *what.Config,
// literals become what.Value. Integers that do not fit int64 become floats.
type ValueVisitor struct{}

var _ Visitor = ValueVisitor{}

func (ValueVisitor) None(*NoneLit) (any, error) {
	return what.Null{}, nil
}

func (ValueVisitor) Bool(n *BoolLit) (any, error) {
	return what.Bool(n.Value), nil
}

func (ValueVisitor) Number(n *NumberLit) (any, error) {
	switch n.Raw {
	case "inf":
		return what.Float(math.Inf(1)), nil
	case "-inf":
		return what.Float(math.Inf(-1)), nil
	case "nan":
		return what.Float(math.NaN()), nil
	}
	if !strings.ContainsAny(n.Raw, ".eE") {
		if i, err := strconv.ParseInt(n.Raw, 10, 64); err == nil {
			return what.Int(i), nil
		}
	}
	f, err := strconv.ParseFloat(n.Raw, 64)
	if err != nil && !isRangeErr(err) {
		return nil, fmt.Errorf("number %q at offset %d: %w", n.Raw, n.At, err)
	}
	return what.Float(f), nil
}

func isRangeErr(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

func (ValueVisitor) String(n *StringLit) (any, error) {
	return what.String(what.UnquoteBody(n.Raw)), nil
}

func (ValueVisitor) Tuple(n *TupleLit, elems []any) (any, error) {
	vals, err := toValues("tuple", n.At, elems)
	if err != nil {
		return nil, err
	}
	return what.Tuple(vals), nil
}

func (ValueVisitor) List(n *ListLit, elems []any) (any, error) {
	vals, err := toValues("list", n.At, elems)
	if err != nil {
		return nil, err
	}
	return what.List(vals), nil
}

func (ValueVisitor) Set(n *SetLit, elems []any) (any, error) {
	vals, err := toValues("set", n.At, elems)
	if err != nil {
		return nil, err
	}
	if n.Frozen {
		return what.NewFrozenSet(vals...), nil
	}
	return what.NewSet(vals...), nil
}

// Dict keeps the last value for repeated keys.
func (ValueVisitor) Dict(n *DictLit, keys, values []any) (any, error) {
	ks, err := toValues("dict key", n.At, keys)
	if err != nil {
		return nil, err
	}
	vs, err := toValues("dict value", n.At, values)
	if err != nil {
		return nil, err
	}
	m := what.Map{}
	for i, key := range ks {
		replaced := false
		for j := range m {
			if what.EqualValues(m[j].Key, key) {
				m[j].Value = vs[i]
				replaced = true
				break
			}
		}
		if !replaced {
			m = append(m, what.Entry{Key: key, Value: vs[i]})
		}
	}
	return m, nil
}

func (ValueVisitor) WhatID(n *WhatID, params map[string]any) (any, error) {
	c, err := what.New(n.Name, params, what.WithOutName(n.OutName))
	if err != nil {
		return nil, fmt.Errorf("identity %s at offset %d: %w", n.Name, n.At, err)
	}
	return c, nil
}

// toValues accepts what.Value elements and plain Go values that ToValue
// understands, so visitors embedding ValueVisitor may return either.
func toValues(kind string, at int, elems []any) ([]what.Value, error) {
	out := make([]what.Value, len(elems))
	for i, e := range elems {
		if v, ok := e.(what.Value); ok {
			out[i] = v
			continue
		}
		v, err := what.ToValue(e)
		if err != nil {
			return nil, fmt.Errorf("%s element %d at offset %d: %w", kind, i, at, err)
		}
		out[i] = v
	}
	return out, nil
}
