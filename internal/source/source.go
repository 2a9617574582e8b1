// Package source loads configurations from files in the dictionary form
// produced by what.Config.ToMap.
//
// A document is either a single configuration
//
//	whatami_name: rfc
//	whatami_conf: {n_estimators: 100}
//
// or a list or mapping whose values are configurations. YAML streams may hold
// several documents. HCL files use configuration blocks instead; see LoadHCL.
package source

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/whatid/internal/what"
)

// Format identifies a source file syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
	FormatHCL  Format = "hcl"
)

// FormatOf picks a format from the file extension. JSON is read as YAML.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	case ".hcl":
		return FormatHCL, nil
	}
	return "", &LoadError{Path: path, Message: fmt.Sprintf("unsupported file extension %q", filepath.Ext(path))}
}

// LoadError reports a file that could not be turned into configurations.
type LoadError struct {
	Path string
	// Line is 1-based; 0 when the position is unknown.
	Line    int
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	loc := e.Path
	if e.Line > 0 {
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", loc, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", loc, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Load reads every configuration in the file at path.
func Load(path string) ([]*what.Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	var configs []*what.Config
	switch format {
	case FormatYAML:
		f, err := os.Open(path)
		if err != nil {
			return nil, &LoadError{Path: path, Message: "open", Err: err}
		}
		defer f.Close()
		configs, err = LoadYAML(f, path)
		if err != nil {
			return nil, err
		}
	case FormatCUE:
		if configs, err = LoadCUE(path); err != nil {
			return nil, err
		}
	case FormatHCL:
		if configs, err = LoadHCL(path); err != nil {
			return nil, err
		}
	}

	slog.Debug("configurations loaded", "path", path, "format", format, "count", len(configs))
	return configs, nil
}

// fromDocument turns one decoded document into configurations.
func fromDocument(doc any) ([]*what.Config, error) {
	switch d := doc.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if _, ok := d[what.MapKeyName]; ok {
			c, err := what.FromMap(d)
			if err != nil {
				return nil, err
			}
			return []*what.Config{c}, nil
		}
		keys := slices.Sorted(maps.Keys(d))
		out := make([]*what.Config, 0, len(keys))
		for _, k := range keys {
			m, ok := d[k].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%s: expected a configuration mapping, got %T", k, d[k])
			}
			c, err := what.FromMap(m)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out = append(out, c)
		}
		return out, nil
	case []any:
		var out []*what.Config
		for i, item := range d {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("item %d: expected a mapping, got %T", i, item)
			}
			c, err := what.FromMap(m)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out = append(out, c)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected a mapping or a list, got %T", doc)
}
