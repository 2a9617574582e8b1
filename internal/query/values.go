// Package query selects and orders identity strings by their parameters.
package query

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/whatid/internal/parser"
	"github.com/roach88/whatid/internal/what"
)

// Values returns the value at each key of c, in key order. A key may be a
// dotted path ("model.depth") that descends into nested configurations.
func Values(c *what.Config, keys ...string) ([]any, error) {
	out := make([]any, len(keys))
	for i, k := range keys {
		v, err := c.Lookup(strings.Split(k, ".")...)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// SortIDs orders ids by the values found at keys, returning the sorted ids
// and the values they were sorted by. The sort is stable. Numbers compare
// numerically and strings lexically; across kinds None < bool < number <
// string < anything else.
func SortIDs(ids []string, keys ...string) ([]string, [][]any, error) {
	configs, err := decodeAll(ids)
	if err != nil {
		return nil, nil, err
	}

	type row struct {
		id     string
		values []any
	}
	rows := make([]row, len(ids))
	for i, id := range ids {
		vals, err := Values(configs[i], keys...)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", id, err)
		}
		rows[i] = row{id: id, values: vals}
	}

	slices.SortStableFunc(rows, func(a, b row) int {
		for i := range a.values {
			if c := Compare(a.values[i], b.values[i]); c != 0 {
				return c
			}
		}
		return 0
	})

	sorted := make([]string, len(rows))
	values := make([][]any, len(rows))
	for i, r := range rows {
		sorted[i] = r.id
		values[i] = r.values
	}
	return sorted, values, nil
}

// Compare orders two parameter values. See SortIDs for the ordering.
func Compare(a, b any) int {
	av, aerr := what.ToValue(a)
	bv, berr := what.ToValue(b)
	if aerr != nil || berr != nil {
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	if c := cmp.Compare(rank(av), rank(bv)); c != 0 {
		return c
	}
	switch x := av.(type) {
	case what.Null:
		return 0
	case what.Bool:
		return cmp.Compare(boolInt(bool(x)), boolInt(bool(bv.(what.Bool))))
	case what.Int:
		if y, ok := bv.(what.Int); ok {
			return cmp.Compare(x, y)
		}
		return compareNumbers(number(av), number(bv))
	case what.Float:
		return compareNumbers(number(av), number(bv))
	case what.String:
		return cmp.Compare(string(x), string(bv.(what.String)))
	}
	as, _ := what.Encode(av)
	bs, _ := what.Encode(bv)
	return cmp.Compare(as, bs)
}

func rank(v what.Value) int {
	switch v.(type) {
	case what.Null:
		return 0
	case what.Bool:
		return 1
	case what.Int, what.Float:
		return 2
	case what.String:
		return 3
	}
	return 4
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func number(v what.Value) float64 {
	if i, ok := v.(what.Int); ok {
		return float64(i)
	}
	return float64(v.(what.Float))
}

// compareNumbers sorts NaN after every other number.
func compareNumbers(a, b float64) int {
	switch an, bn := math.IsNaN(a), math.IsNaN(b); {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}
	return cmp.Compare(a, b)
}

// decodeAll parses each distinct id once.
func decodeAll(ids []string) ([]*what.Config, error) {
	cache := make(map[string]*what.Config, len(ids))
	out := make([]*what.Config, len(ids))
	for i, id := range ids {
		c, ok := cache[id]
		if !ok {
			var err error
			if c, err = parser.Decode(id); err != nil {
				return nil, err
			}
			cache[id] = c
		}
		out[i] = c
	}
	return out, nil
}
