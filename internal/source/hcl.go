package source

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/roach88/whatid/internal/what"
)

// hclFile is the top level of an HCL source:
//
//	configuration "rfc" {
//	  out_name     = "clf"
//	  non_id_keys  = ["n_jobs"]
//	  n_estimators = 100
//	  n_jobs       = 4
//
//	  param "base" "tree" {
//	    depth = 3
//	  }
//	}
//
// Every other attribute is a parameter. A param block binds a nested
// configuration to a key; it takes the same attributes.
type hclFile struct {
	Configurations []*hclConfiguration `hcl:"configuration,block"`
}

type hclConfiguration struct {
	Name      string      `hcl:"name,label"`
	OutName   string      `hcl:"out_name,optional"`
	NonIDKeys []string    `hcl:"non_id_keys,optional"`
	Params    []*hclParam `hcl:"param,block"`
	Rest      hcl.Body    `hcl:",remain"`
}

type hclParam struct {
	Key       string      `hcl:"key,label"`
	Name      string      `hcl:"name,label"`
	OutName   string      `hcl:"out_name,optional"`
	NonIDKeys []string    `hcl:"non_id_keys,optional"`
	Params    []*hclParam `hcl:"param,block"`
	Rest      hcl.Body    `hcl:",remain"`
}

// LoadHCL parses configuration blocks from an HCL file, in file order.
func LoadHCL(path string) ([]*what.Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, hclError(path, "parsing HCL", diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return nil, hclError(path, "decoding HCL", diags)
	}

	out := make([]*what.Config, 0, len(parsed.Configurations))
	for _, block := range parsed.Configurations {
		c, diags := buildHCLConfig(block.Name, block.OutName, block.NonIDKeys, block.Params, block.Rest)
		if diags.HasErrors() {
			return nil, hclError(path, fmt.Sprintf("configuration %q", block.Name), diags)
		}
		out = append(out, c)
	}
	return out, nil
}

func buildHCLConfig(name, outName string, nonID []string, nested []*hclParam, rest hcl.Body) (*what.Config, hcl.Diagnostics) {
	attrs, diags := rest.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}

	params := make(map[string]any, len(attrs)+len(nested))
	for key, attr := range attrs {
		val, valDiags := attr.Expr.Value(nil)
		diags = append(diags, valDiags...)
		if valDiags.HasErrors() {
			continue
		}
		goVal, err := ctyToGo(val)
		if err != nil {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported value",
				Detail:   fmt.Sprintf("parameter %q: %v", key, err),
				Subject:  attr.Expr.Range().Ptr(),
			})
			continue
		}
		params[key] = goVal
	}
	for _, p := range nested {
		if _, dup := params[p.Key]; dup {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate parameter",
				Detail:   fmt.Sprintf("parameter %q is set both as an attribute and a param block", p.Key),
			})
			continue
		}
		c, childDiags := buildHCLConfig(p.Name, p.OutName, p.NonIDKeys, p.Params, p.Rest)
		diags = append(diags, childDiags...)
		if childDiags.HasErrors() {
			continue
		}
		params[p.Key] = c
	}
	if diags.HasErrors() {
		return nil, diags
	}

	c, err := what.New(name, params, what.WithOutName(outName), what.WithNonIDKeys(nonID...))
	if err != nil {
		return nil, append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Invalid configuration",
			Detail:   err.Error(),
		})
	}
	return c, diags
}

func hclError(path, msg string, diags hcl.Diagnostics) *LoadError {
	line := 0
	for _, d := range diags {
		if d.Subject != nil {
			line = d.Subject.Start.Line
			break
		}
	}
	return &LoadError{Path: path, Line: line, Message: msg, Err: diags}
}

// ctyToGo converts a known cty value into plain Go values. Whole numbers
// that fit int64 stay integers.
func ctyToGo(val cty.Value) (any, error) {
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		if val.AsBigFloat().IsInt() {
			var i int64
			if err := gocty.FromCtyValue(val, &i); err == nil {
				return i, nil
			}
		}
		f, _ := val.AsBigFloat().Float64()
		return f, nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			x, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = x
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			x, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, x)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported type %s", ty.FriendlyName())
}
