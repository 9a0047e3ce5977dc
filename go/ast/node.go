package ast

import (
	"fmt"
	"math/big"
	"strings"
)

type Kind int

const (
	BV Kind = iota
	VARIABLE
	NOT
	NEG
	ADD
	SUB
	MUL
	AND
	OR
	XOR
	SHL
	LSHR
	EQ
	NE
	ULT
	UGT
	EXTRACT
	CONCAT
	ZX
	ITE
)

var kindNames = map[Kind]string{
	BV:       "bv",
	VARIABLE: "var",
	NOT:      "bvnot",
	NEG:      "bvneg",
	ADD:      "bvadd",
	SUB:      "bvsub",
	MUL:      "bvmul",
	AND:      "bvand",
	OR:       "bvor",
	XOR:      "bvxor",
	SHL:      "bvshl",
	LSHR:     "bvlshr",
	EQ:       "=",
	NE:       "distinct",
	ULT:      "bvult",
	UGT:      "bvugt",
	EXTRACT:  "extract",
	CONCAT:   "concat",
	ZX:       "zero_extend",
	ITE:      "ite",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is an immutable bit-vector formula. Nodes are shared freely between contexts.
type Node struct {
	kind     Kind
	size     uint
	value    *big.Int
	variable *Variable
	high     uint
	low      uint
	children []*Node

	symbolized bool
}

func (n *Node) Kind() Kind          { return n.kind }
func (n *Node) BitSize() uint       { return n.size }
func (n *Node) Children() []*Node   { return n.children }
func (n *Node) Variable() *Variable { return n.variable }

// Symbolized reports whether any variable appears below n.
func (n *Node) Symbolized() bool {
	return n != nil && n.symbolized
}

// Value returns the constant held by a BV node, or nil.
func (n *Node) Value() *big.Int {
	if n.kind != BV {
		return nil
	}
	return new(big.Int).Set(n.value)
}

// Equal compares two formulas structurally.
func (n *Node) Equal(o *Node) bool {
	if n == o {
		return true
	}
	if n == nil || o == nil || n.kind != o.kind || n.size != o.size || len(n.children) != len(o.children) {
		return false
	}
	switch n.kind {
	case BV:
		if n.value.Cmp(o.value) != 0 {
			return false
		}
	case VARIABLE:
		if n.variable.ID != o.variable.ID {
			return false
		}
	case EXTRACT:
		if n.high != o.high || n.low != o.low {
			return false
		}
	}
	for i := range n.children {
		if !n.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

// Variables returns the ids of every variable referenced by n, in first-seen order.
func Variables(n *Node) []uint {
	var ids []uint
	seen := make(map[uint]bool)
	var walk func(*Node)
	walk = func(n *Node) {
		if n == nil || !n.symbolized {
			return
		}
		if n.kind == VARIABLE && !seen[n.variable.ID] {
			seen[n.variable.ID] = true
			ids = append(ids, n.variable.ID)
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	walk(n)
	return ids
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.kind {
	case BV:
		return fmt.Sprintf("(_ bv%s %d)", n.value.String(), n.size)
	case VARIABLE:
		return n.variable.Name()
	case EXTRACT:
		return fmt.Sprintf("((_ extract %d %d) %s)", n.high, n.low, n.children[0])
	case ZX:
		return fmt.Sprintf("((_ zero_extend %d) %s)", n.size-n.children[0].size, n.children[0])
	}
	parts := make([]string, 0, len(n.children)+1)
	parts = append(parts, n.kind.String())
	for _, c := range n.children {
		parts = append(parts, c.String())
	}
	return "(" + strings.Join(parts, " ") + ")"
}
