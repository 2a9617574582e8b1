package source

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/whatid/internal/what"
)

// LoadYAML reads a YAML stream of one or more documents. name labels errors.
func LoadYAML(r io.Reader, name string) ([]*what.Config, error) {
	dec := yaml.NewDecoder(r)
	var out []*what.Config
	for i := 1; ; i++ {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return nil, &LoadError{Path: name, Message: fmt.Sprintf("document %d", i), Err: err}
		}

		var doc any
		if err := node.Decode(&doc); err != nil {
			return nil, &LoadError{Path: name, Line: node.Line, Message: fmt.Sprintf("document %d", i), Err: err}
		}
		configs, err := fromDocument(doc)
		if err != nil {
			return nil, &LoadError{Path: name, Line: node.Line, Message: fmt.Sprintf("document %d", i), Err: err}
		}
		out = append(out, configs...)
	}
}

// WriteYAML writes each configuration as its own document.
func WriteYAML(w io.Writer, configs ...*what.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	for _, c := range configs {
		if err := enc.Encode(c.ToMap()); err != nil {
			return fmt.Errorf("encode %s: %w", c.Name, err)
		}
	}
	return enc.Close()
}
