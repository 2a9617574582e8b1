package source

import (
	"fmt"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/whatid/internal/what"
)

// LoadCUE evaluates a CUE file. The file's value is either one configuration
// or a struct or list of them; struct fields keep their declaration order.
func LoadCUE(path string) ([]*what.Config, error) {
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: filepath.Dir(path)}
	instances := load.Instances([]string{"./" + filepath.Base(path)}, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Path: path, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Path: path, Message: "loading CUE", Err: inst.Err}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, cueError(path, value, "building CUE value", err)
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(path, value, "CUE value is not concrete", err)
	}

	if value.LookupPath(cue.ParsePath(what.MapKeyName)).Exists() {
		c, err := cueConfig(value)
		if err != nil {
			return nil, cueError(path, value, "decoding configuration", err)
		}
		return []*what.Config{c}, nil
	}

	var out []*what.Config
	switch value.Kind() {
	case cue.StructKind:
		iter, err := value.Fields()
		if err != nil {
			return nil, cueError(path, value, "iterating fields", err)
		}
		for iter.Next() {
			c, err := cueConfig(iter.Value())
			if err != nil {
				return nil, cueError(path, iter.Value(), iter.Label(), err)
			}
			out = append(out, c)
		}
	case cue.ListKind:
		iter, err := value.List()
		if err != nil {
			return nil, cueError(path, value, "iterating list", err)
		}
		for i := 0; iter.Next(); i++ {
			c, err := cueConfig(iter.Value())
			if err != nil {
				return nil, cueError(path, iter.Value(), fmt.Sprintf("item %d", i), err)
			}
			out = append(out, c)
		}
	default:
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("expected a struct or list, got %v", value.Kind())}
	}
	return out, nil
}

func cueError(path string, v cue.Value, msg string, err error) *LoadError {
	line := 0
	if pos := v.Pos(); pos.IsValid() {
		line = pos.Line()
	}
	return &LoadError{Path: path, Line: line, Message: msg, Err: err}
}

func cueConfig(v cue.Value) (*what.Config, error) {
	doc, err := cueToGo(v)
	if err != nil {
		return nil, err
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a struct, got %v", v.Kind())
	}
	return what.FromMap(m)
}

// cueToGo converts a concrete CUE value into plain Go values.
func cueToGo(v cue.Value) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		return v.Int64()
	case cue.FloatKind, cue.NumberKind:
		return v.Float64()
	case cue.StringKind:
		return v.String()
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, err
		}
		out := []any{}
		for iter.Next() {
			x, err := cueToGo(iter.Value())
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, err
		}
		out := map[string]any{}
		for iter.Next() {
			x, err := cueToGo(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("%s: %w", iter.Label(), err)
			}
			out[iter.Label()] = x
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported CUE kind %v", v.Kind())
}
