package parser

// Node is an element of a parsed identity. The set of implementations is
// closed: *WhatID, *KV, *NoneLit, *BoolLit, *NumberLit, *StringLit,
// *TupleLit, *ListLit, *SetLit, *DictLit.
type Node interface {
	// Pos returns the byte offset where the node starts in the input.
	Pos() int
	node()
}

// WhatID is a named configuration: [out=]name(k=v,...).
type WhatID struct {
	At      int
	OutName string
	Name    string
	Params  []*KV
}

// KV is one key=value parameter of a WhatID.
type KV struct {
	At    int
	Key   string
	Value Node
}

// NoneLit is the None literal.
type NoneLit struct {
	At int
}

// BoolLit is True or False.
type BoolLit struct {
	At    int
	Value bool
}

// NumberLit keeps the number as written; the visitor decides int or float.
type NumberLit struct {
	At  int
	Raw string
}

// StringLit holds the body between the quotes with escapes intact.
type StringLit struct {
	At  int
	Raw string
}

// TupleLit is (a,b,...).
type TupleLit struct {
	At    int
	Elems []Node
}

// ListLit is [a,b,...].
type ListLit struct {
	At    int
	Elems []Node
}

// SetLit is {a,...}, set() or frozenset({a,...}).
type SetLit struct {
	At     int
	Frozen bool
	Elems  []Node
}

// DictLit is {k:v,...}. An empty pair of braces is an empty DictLit.
type DictLit struct {
	At      int
	Entries []*DictEntry
}

// DictEntry is one k:v pair of a DictLit.
type DictEntry struct {
	Key   Node
	Value Node
}

func (n *WhatID) Pos() int    { return n.At }
func (n *KV) Pos() int        { return n.At }
func (n *NoneLit) Pos() int   { return n.At }
func (n *BoolLit) Pos() int   { return n.At }
func (n *NumberLit) Pos() int { return n.At }
func (n *StringLit) Pos() int { return n.At }
func (n *TupleLit) Pos() int  { return n.At }
func (n *ListLit) Pos() int   { return n.At }
func (n *SetLit) Pos() int    { return n.At }
func (n *DictLit) Pos() int   { return n.At }

func (*WhatID) node()    {}
func (*KV) node()        {}
func (*NoneLit) node()   {}
func (*BoolLit) node()   {}
func (*NumberLit) node() {}
func (*StringLit) node() {}
func (*TupleLit) node()  {}
func (*ListLit) node()   {}
func (*SetLit) node()    {}
func (*DictLit) node()   {}
