package symbolic

import (
	"github.com/benbjohnson/immutable"
	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/ast"
	"github.com/snapcorn/snapcorn/go/models"
)

var ErrWidthMismatch = errors.New("expression width does not match destination")

// regComparer compares register ids. Implements immutable.Comparer.
type regComparer struct{}

func (c *regComparer) Compare(a, b interface{}) int {
	if i, j := a.(models.RegID), b.(models.RegID); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

// uint64Comparer compares two 64-bit unsigned integers. Implements immutable.Comparer.
type uint64Comparer struct{}

func (c *uint64Comparer) Compare(a, b interface{}) int {
	if i, j := a.(uint64), b.(uint64); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

// uintComparer compares expression ids. Implements immutable.Comparer.
type uintComparer struct{}

func (c *uintComparer) Compare(a, b interface{}) int {
	if i, j := a.(uint), b.(uint); i < j {
		return -1
	} else if i > j {
		return 1
	}
	return 0
}

// Engine maps registers and memory bytes to symbolic expressions.
// A register or byte without an entry holds its concrete value.
type Engine struct {
	// parent register id -> *Expression, full parent width
	regs *immutable.SortedMap
	// byte address -> *Expression, 8 bits wide
	mem *immutable.SortedMap
	// expression id -> *Expression
	exprs *immutable.SortedMap

	constraints *immutable.List
	nextID      uint
	enabled     bool
}

func NewEngine() *Engine {
	return &Engine{
		regs:        immutable.NewSortedMap(&regComparer{}),
		mem:         immutable.NewSortedMap(&uint64Comparer{}),
		exprs:       immutable.NewSortedMap(&uintComparer{}),
		constraints: immutable.NewList(),
		enabled:     true,
	}
}

// Clone returns an independent engine. Every table is persistent, so this is a
// struct copy and neither engine observes the other's later changes.
func (e *Engine) Clone() *Engine {
	other := *e
	return &other
}

func (e *Engine) Enable(enabled bool) { e.enabled = enabled }
func (e *Engine) IsEnabled() bool     { return e.enabled }

// NewExpression records a volatile expression.
func (e *Engine) NewExpression(node *ast.Node, comment string) *Expression {
	return e.record(&Expression{Node: node, Origin: ORIGIN_VOLATILE, Comment: comment})
}

func (e *Engine) record(expr *Expression) *Expression {
	expr.ID = e.nextID
	e.nextID++
	e.exprs = e.exprs.Set(expr.ID, expr)
	return expr
}

func (e *Engine) Expression(id uint) (*Expression, bool) {
	if v, ok := e.exprs.Get(id); ok {
		return v.(*Expression), true
	}
	return nil, false
}

// Len returns how many expressions were recorded.
func (e *Engine) Len() int {
	return e.exprs.Len()
}

// AssignRegister binds node to the parent register reg and returns the new expression.
func (e *Engine) AssignRegister(reg models.Register, node *ast.Node, comment string) (*Expression, error) {
	if !reg.IsParent() {
		return nil, errors.Errorf("%s is not a parent register", reg)
	}
	if node.BitSize() != reg.BitSize() {
		return nil, errors.Wrapf(ErrWidthMismatch, "%d-bit expression to %s", node.BitSize(), reg)
	}
	expr := e.record(&Expression{Node: node, Origin: ORIGIN_REG, Register: reg, Comment: comment})
	e.regs = e.regs.Set(reg.ID, expr)
	return expr, nil
}

// Register returns the expression bound to the parent of reg.
func (e *Engine) Register(reg models.Register) (*Expression, bool) {
	if v, ok := e.regs.Get(reg.Parent); ok {
		return v.(*Expression), true
	}
	return nil, false
}

func (e *Engine) ConcretizeRegister(reg models.Register) {
	e.regs = e.regs.Delete(reg.Parent)
}

func (e *Engine) ConcretizeAllRegisters() {
	e.regs = immutable.NewSortedMap(&regComparer{})
}

// AssignMemoryByte binds an 8-bit node to addr.
func (e *Engine) AssignMemoryByte(addr uint64, node *ast.Node, comment string) (*Expression, error) {
	if node.BitSize() != models.BYTE_SIZE_BIT {
		return nil, errors.Wrapf(ErrWidthMismatch, "%d-bit expression to byte %#x", node.BitSize(), addr)
	}
	expr := e.record(&Expression{Node: node, Origin: ORIGIN_MEM, Address: addr, Comment: comment})
	e.mem = e.mem.Set(addr, expr)
	return expr, nil
}

func (e *Engine) MemoryByte(addr uint64) (*Expression, bool) {
	if v, ok := e.mem.Get(addr); ok {
		return v.(*Expression), true
	}
	return nil, false
}

// ConcretizeMemory drops the expressions of size bytes starting at addr.
func (e *Engine) ConcretizeMemory(addr uint64, size uint64) {
	for i := uint64(0); i < size; i++ {
		e.mem = e.mem.Delete(addr + i)
	}
}

func (e *Engine) ConcretizeAllMemory() {
	e.mem = immutable.NewSortedMap(&uint64Comparer{})
}

// IsMemorySymbolized reports whether any byte of [addr, addr+size) holds a symbolized expression.
func (e *Engine) IsMemorySymbolized(addr uint64, size uint64) bool {
	for i := uint64(0); i < size; i++ {
		if expr, ok := e.MemoryByte(addr + i); ok && expr.IsSymbolized() {
			return true
		}
	}
	return false
}

// SymbolicRegisters returns the bound expression of every parent register.
func (e *Engine) SymbolicRegisters() map[models.RegID]*Expression {
	ret := make(map[models.RegID]*Expression, e.regs.Len())
	itr := e.regs.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		ret[k.(models.RegID)] = v.(*Expression)
	}
	return ret
}

// SymbolicMemory returns the bound expression of every byte.
func (e *Engine) SymbolicMemory() map[uint64]*Expression {
	ret := make(map[uint64]*Expression, e.mem.Len())
	itr := e.mem.Iterator()
	for !itr.Done() {
		k, v := itr.Next()
		ret[k.(uint64)] = v.(*Expression)
	}
	return ret
}

func (e *Engine) AddPathConstraint(pc PathConstraint) {
	e.constraints = e.constraints.Append(pc)
}

// PathConstraints returns the constraints in the order they were added.
func (e *Engine) PathConstraints() []PathConstraint {
	ret := make([]PathConstraint, e.constraints.Len())
	for i := range ret {
		ret[i] = e.constraints.Get(i).(PathConstraint)
	}
	return ret
}

func (e *Engine) ClearPathConstraints() {
	e.constraints = immutable.NewList()
}
