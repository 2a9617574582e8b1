package query

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/roach88/whatid/internal/what"
)

var (
	envOnce sync.Once
	env     *cel.Env
	envErr  error
)

// celEnv declares the variables visible to filter expressions:
//
//	id      string             the identity string as given
//	name    string             the configuration name
//	out     string             the out label, "" when absent
//	params  map(string, dyn)   every parameter, non-identity ones included
func celEnv() (*cel.Env, error) {
	envOnce.Do(func() {
		env, envErr = cel.NewEnv(
			cel.Variable("id", cel.StringType),
			cel.Variable("name", cel.StringType),
			cel.Variable("out", cel.StringType),
			cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
			cel.CrossTypeNumericComparisons(true),
		)
	})
	return env, envErr
}

// Predicate is a compiled filter expression. It is safe for concurrent use.
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile checks expr and prepares it for evaluation. The expression must
// produce a bool.
func Compile(expr string) (*Predicate, error) {
	e, err := celEnv()
	if err != nil {
		return nil, fmt.Errorf("filter environment: %w", err)
	}
	ast, iss := e.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expr, iss.Err())
	}
	if t := ast.OutputType(); !t.IsExactType(cel.BoolType) && !t.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("filter %q has type %s, want bool", expr, t)
	}
	prg, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program filter %q: %w", expr, err)
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// String returns the source expression.
func (p *Predicate) String() string {
	return p.expr
}

// Match evaluates the predicate against c. id is exposed to the expression
// as-is and may be empty.
func (p *Predicate) Match(id string, c *what.Config) (bool, error) {
	out, _, err := p.prg.Eval(map[string]any{
		"id":     id,
		"name":   c.Name,
		"out":    c.OutName,
		"params": what.Native(c),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate %q: %w", p.expr, err)
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("filter %q produced %T, want bool", p.expr, out.Value())
	}
	return b, nil
}

// Filter returns the ids whose configuration satisfies expr, in input order.
func Filter(ids []string, expr string) ([]string, error) {
	p, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	configs, err := decodeAll(ids)
	if err != nil {
		return nil, err
	}
	var out []string
	for i, id := range ids {
		ok, err := p.Match(id, configs[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", id, err)
		}
		if ok {
			out = append(out, id)
		}
	}
	return out, nil
}
