package query

import (
	"slices"

	"github.com/roach88/whatid/internal/what"
)

// Table lays out parameter values of many identities as columns.
type Table struct {
	Columns []string
	Rows    []Row
}

// Row holds one identity and its value per column. Missing values are nil.
type Row struct {
	ID     string
	Values []any
}

// Columns extracts the values at keys from each id. With no keys, the
// columns are every top-level parameter seen in any id, sorted.
func Columns(ids []string, keys ...string) (*Table, error) {
	configs, err := decodeAll(ids)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		keys = unionKeys(configs)
	}

	t := &Table{Columns: keys, Rows: make([]Row, len(ids))}
	for i, id := range ids {
		vals := make([]any, len(keys))
		for j, k := range keys {
			v, err := Values(configs[i], k)
			if err != nil {
				if what.IsKeyNotFound(err) {
					continue
				}
				return nil, err
			}
			vals[j] = v[0]
		}
		t.Rows[i] = Row{ID: id, Values: vals}
	}
	return t, nil
}

func unionKeys(configs []*what.Config) []string {
	seen := map[string]bool{}
	var keys []string
	for _, c := range configs {
		for _, k := range c.Keys(true) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}
