package ast

import (
	"fmt"
	"math/big"

	"github.com/benbjohnson/immutable"
	"github.com/pkg/errors"
)

// Variable is a free symbol of a formula.
type Variable struct {
	ID      uint
	Size    uint
	Alias   string
	Comment string
}

func (v *Variable) Name() string {
	if v.Alias != "" {
		return v.Alias
	}
	return fmt.Sprintf("SymVar_%d", v.ID)
}

// uintComparer compares uint keys. Implements immutable.Comparer.
type uintComparer struct{}

func (c *uintComparer) Compare(a, b interface{}) int {
	if i, j := a.(uint), b.(uint); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

// Context builds formulas and owns the variable table and the concrete model of each variable.
// Its tables are persistent maps, so Clone is cheap and the copy never observes later changes.
type Context struct {
	vars    *immutable.SortedMap // uint -> *Variable
	values  *immutable.SortedMap // uint -> *big.Int
	nextID  uint
	folding bool
}

func NewContext() *Context {
	return &Context{
		vars:   immutable.NewSortedMap(&uintComparer{}),
		values: immutable.NewSortedMap(&uintComparer{}),
	}
}

// Clone returns an independent context with the same variables and values.
func (c *Context) Clone() *Context {
	other := *c
	return &other
}

// SetConstantFolding makes constructors collapse formulas without variables to constants.
func (c *Context) SetConstantFolding(enabled bool) { c.folding = enabled }
func (c *Context) ConstantFolding() bool           { return c.folding }

// NewVariable registers a fresh variable of size bits whose current concrete value is value.
func (c *Context) NewVariable(size uint, alias, comment string, value *big.Int) (*Variable, error) {
	if size == 0 {
		return nil, errors.New("variable size cannot be zero")
	}
	v := &Variable{ID: c.nextID, Size: size, Alias: alias, Comment: comment}
	c.nextID++
	c.vars = c.vars.Set(v.ID, v)
	if value == nil {
		value = new(big.Int)
	}
	c.values = c.values.Set(v.ID, truncate(value, size))
	return v, nil
}

func (c *Context) Variable(id uint) (*Variable, bool) {
	if v, ok := c.vars.Get(id); ok {
		return v.(*Variable), true
	}
	return nil, false
}

func (c *Context) VariableByName(name string) (*Variable, bool) {
	itr := c.vars.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		if v.(*Variable).Name() == name {
			return v.(*Variable), true
		}
	}
	return nil, false
}

// Variables returns every registered variable ordered by id.
func (c *Context) Variables() []*Variable {
	ret := make([]*Variable, 0, c.vars.Len())
	itr := c.vars.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		ret = append(ret, v.(*Variable))
	}
	return ret
}

func (c *Context) VariableValue(id uint) (*big.Int, bool) {
	if v, ok := c.values.Get(id); ok {
		return new(big.Int).Set(v.(*big.Int)), true
	}
	return nil, false
}

func (c *Context) SetVariableValue(id uint, value *big.Int) error {
	v, ok := c.Variable(id)
	if !ok {
		return errors.Errorf("unknown variable %d", id)
	}
	c.values = c.values.Set(id, truncate(value, v.Size))
	return nil
}

// Evaluate computes n against the context's model.
func (c *Context) Evaluate(n *Node) (*big.Int, error) {
	return Eval(n, c.VariableValue)
}

func (c *Context) fold(n *Node) *Node {
	if !c.folding || n.symbolized || n.kind == BV {
		return n
	}
	if v, err := Eval(n, nil); err == nil {
		return c.bv(v, n.size)
	}
	return n
}

func (c *Context) bv(v *big.Int, size uint) *Node {
	return &Node{kind: BV, size: size, value: truncate(v, size)}
}

func (c *Context) BV(v uint64, size uint) *Node {
	return c.bv(new(big.Int).SetUint64(v), size)
}

func (c *Context) BigBV(v *big.Int, size uint) *Node {
	return c.bv(v, size)
}

func (c *Context) Var(v *Variable) *Node {
	return &Node{kind: VARIABLE, size: v.Size, variable: v, symbolized: true}
}

func (c *Context) node(kind Kind, size uint, children ...*Node) *Node {
	n := &Node{kind: kind, size: size, children: children}
	for _, child := range children {
		n.symbolized = n.symbolized || child.symbolized
	}
	return c.fold(n)
}

func (c *Context) unary(kind Kind, a *Node) *Node {
	return c.node(kind, a.size, a)
}

func (c *Context) binary(kind Kind, a, b *Node) *Node {
	if a.size != b.size {
		panic(fmt.Sprintf("%s: size mismatch %d != %d", kind, a.size, b.size))
	}
	switch kind {
	case EQ, NE, ULT, UGT:
		return c.node(kind, 1, a, b)
	}
	return c.node(kind, a.size, a, b)
}

func (c *Context) Not(a *Node) *Node     { return c.unary(NOT, a) }
func (c *Context) Neg(a *Node) *Node     { return c.unary(NEG, a) }
func (c *Context) Add(a, b *Node) *Node  { return c.binary(ADD, a, b) }
func (c *Context) Sub(a, b *Node) *Node  { return c.binary(SUB, a, b) }
func (c *Context) Mul(a, b *Node) *Node  { return c.binary(MUL, a, b) }
func (c *Context) And(a, b *Node) *Node  { return c.binary(AND, a, b) }
func (c *Context) Or(a, b *Node) *Node   { return c.binary(OR, a, b) }
func (c *Context) Xor(a, b *Node) *Node  { return c.binary(XOR, a, b) }
func (c *Context) Shl(a, b *Node) *Node  { return c.binary(SHL, a, b) }
func (c *Context) Lshr(a, b *Node) *Node { return c.binary(LSHR, a, b) }
func (c *Context) Eq(a, b *Node) *Node   { return c.binary(EQ, a, b) }
func (c *Context) Ne(a, b *Node) *Node   { return c.binary(NE, a, b) }
func (c *Context) Ult(a, b *Node) *Node  { return c.binary(ULT, a, b) }
func (c *Context) Ugt(a, b *Node) *Node  { return c.binary(UGT, a, b) }

// Extract returns bits [high, low] of n, looking through concatenations and extensions.
func (c *Context) Extract(high, low uint, n *Node) *Node {
	if high < low || high >= n.size {
		panic(fmt.Sprintf("extract [%d..%d] out of %d bits", high, low, n.size))
	}
	if low == 0 && high == n.size-1 {
		return n
	}
	switch n.kind {
	case EXTRACT:
		return c.Extract(high+n.low, low+n.low, n.children[0])
	case CONCAT:
		// children are ordered most significant first
		pos := uint(0)
		for i := len(n.children) - 1; i >= 0; i-- {
			child := n.children[i]
			if low >= pos && high < pos+child.size {
				return c.Extract(high-pos, low-pos, child)
			}
			pos += child.size
		}
	case ZX:
		inner := n.children[0]
		if high < inner.size {
			return c.Extract(high, low, inner)
		} else if low >= inner.size {
			return c.BV(0, high-low+1)
		}
	}
	return c.fold(&Node{kind: EXTRACT, size: high - low + 1, high: high, low: low, children: []*Node{n}, symbolized: n.symbolized})
}

// Concat joins nodes, most significant first.
func (c *Context) Concat(nodes ...*Node) *Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	flat := make([]*Node, 0, len(nodes))
	size := uint(0)
	for _, n := range nodes {
		if n.kind == CONCAT {
			flat = append(flat, n.children...)
		} else {
			flat = append(flat, n)
		}
		size += n.size
	}
	return c.node(CONCAT, size, flat...)
}

func (c *Context) ZeroExt(extra uint, n *Node) *Node {
	if extra == 0 {
		return n
	}
	return c.node(ZX, n.size+extra, n)
}

func (c *Context) Ite(cond, a, b *Node) *Node {
	if cond.size != 1 || a.size != b.size {
		panic("ite: bad operand sizes")
	}
	return c.node(ITE, a.size, cond, a, b)
}
