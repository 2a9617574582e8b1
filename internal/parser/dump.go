package parser

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the tree rooted at n, one node per
// line with its byte offset.
func Dump(w io.Writer, n Node) error {
	d := &dumper{w: w}
	d.node(n, 0)
	return d.err
}

// DumpString is Dump into a string.
func DumpString(n Node) string {
	var b strings.Builder
	_ = Dump(&b, n)
	return b.String()
}

type dumper struct {
	w   io.Writer
	err error
}

func (d *dumper) line(depth int, format string, args ...any) {
	if d.err != nil {
		return
	}
	_, d.err = fmt.Fprintf(d.w, "%s%s\n", strings.Repeat("  ", depth), fmt.Sprintf(format, args...))
}

func (d *dumper) node(n Node, depth int) {
	switch n := n.(type) {
	case *WhatID:
		if n.OutName != "" {
			d.line(depth, "WhatID %s out=%s @%d", n.Name, n.OutName, n.At)
		} else {
			d.line(depth, "WhatID %s @%d", n.Name, n.At)
		}
		for _, kv := range n.Params {
			d.node(kv, depth+1)
		}
	case *KV:
		d.line(depth, "KV %s @%d", n.Key, n.At)
		d.node(n.Value, depth+1)
	case *NoneLit:
		d.line(depth, "None @%d", n.At)
	case *BoolLit:
		d.line(depth, "Bool %t @%d", n.Value, n.At)
	case *NumberLit:
		d.line(depth, "Number %s @%d", n.Raw, n.At)
	case *StringLit:
		d.line(depth, "String '%s' @%d", n.Raw, n.At)
	case *TupleLit:
		d.line(depth, "Tuple @%d", n.At)
		d.nodes(n.Elems, depth+1)
	case *ListLit:
		d.line(depth, "List @%d", n.At)
		d.nodes(n.Elems, depth+1)
	case *SetLit:
		kind := "Set"
		if n.Frozen {
			kind = "FrozenSet"
		}
		d.line(depth, "%s @%d", kind, n.At)
		d.nodes(n.Elems, depth+1)
	case *DictLit:
		d.line(depth, "Dict @%d", n.At)
		for _, e := range n.Entries {
			d.line(depth+1, "Entry")
			d.node(e.Key, depth+2)
			d.node(e.Value, depth+2)
		}
	}
}

func (d *dumper) nodes(ns []Node, depth int) {
	for _, n := range ns {
		d.node(n, depth)
	}
}
