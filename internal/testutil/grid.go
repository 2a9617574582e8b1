package testutil

import (
	"testing"

	"github.com/roach88/whatid/internal/what"
)

// Axis is one swept parameter of a Grid.
type Axis struct {
	Key    string
	Values []any
}

// Sweep is shorthand for an Axis literal.
func Sweep(key string, values ...any) Axis {
	return Axis{Key: key, Values: values}
}

// Grid returns the canonical ids of every combination of the axes, each
// merged over base. The last axis varies fastest.
func Grid(t testing.TB, name string, base map[string]any, axes ...Axis) []string {
	t.Helper()

	combos := []map[string]any{{}}
	for _, ax := range axes {
		next := make([]map[string]any, 0, len(combos)*len(ax.Values))
		for _, combo := range combos {
			for _, v := range ax.Values {
				m := make(map[string]any, len(combo)+1)
				for k, cv := range combo {
					m[k] = cv
				}
				m[ax.Key] = v
				next = append(next, m)
			}
		}
		combos = next
	}

	ids := make([]string, 0, len(combos))
	for _, combo := range combos {
		params := make(map[string]any, len(base)+len(combo))
		for k, v := range base {
			params[k] = v
		}
		for k, v := range combo {
			params[k] = v
		}
		c, err := what.New(name, params)
		if err != nil {
			t.Fatalf("grid %s%v: %v", name, combo, err)
		}
		id, err := c.ID()
		if err != nil {
			t.Fatalf("grid %s%v: %v", name, combo, err)
		}
		ids = append(ids, id)
	}
	return ids
}
