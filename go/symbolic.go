package snapcorn

import (
	"encoding/binary"
	"math/big"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/ast"
	"github.com/snapcorn/snapcorn/go/engine/symbolic"
	"github.com/snapcorn/snapcorn/go/models"
)

// ConvertRegisterToSymbolicVariable replaces the content of reg with a fresh variable
// whose model value is the register's current concrete value.
func (m *Machine) ConvertRegisterToSymbolicVariable(reg models.Register, alias string) (*ast.Variable, error) {
	val, err := m.GetConcreteRegisterValueBig(reg)
	if err != nil {
		return nil, err
	}
	v, err := m.ast.NewVariable(reg.BitSize(), alias, "register "+reg.Name, val)
	if err != nil {
		return nil, err
	}
	if _, err := m.assignRegister(reg, m.ast.Var(v), "symbolized "+reg.Name, true); err != nil {
		return nil, err
	}
	m.log.Debug("symbolized register", "reg", reg.Name, "var", v.Name())
	return v, nil
}

// ConvertMemoryToSymbolicVariable replaces the content of mem with a fresh variable.
func (m *Machine) ConvertMemoryToSymbolicVariable(mem models.MemoryAccess, alias string) (*ast.Variable, error) {
	val, err := m.GetConcreteMemoryValue(mem)
	if err != nil {
		return nil, err
	}
	v, err := m.ast.NewVariable(mem.BitSize(), alias, "memory "+mem.String(), val)
	if err != nil {
		return nil, err
	}
	if err := m.assignMemory(mem, m.ast.Var(v), "symbolized "+mem.String(), true); err != nil {
		return nil, err
	}
	m.log.Debug("symbolized memory", "mem", mem.String(), "var", v.Name())
	return v, nil
}

// GetRegisterAst returns the formula of reg: a slice of its parent's expression,
// or a constant when the parent is concrete.
func (m *Machine) GetRegisterAst(reg models.Register) (*ast.Node, error) {
	if expr, ok := m.symbolic.Register(reg); ok {
		return m.ast.Extract(reg.High, reg.Low, expr.Node), nil
	}
	val, err := m.GetConcreteRegisterValueBig(reg)
	if err != nil {
		return nil, err
	}
	return m.ast.BigBV(val, reg.BitSize()), nil
}

// GetMemoryAst returns the formula of mem, built byte by byte.
func (m *Machine) GetMemoryAst(mem models.MemoryAccess) (*ast.Node, error) {
	data, err := m.GetConcreteMemoryArea(mem.Address(), int(mem.Size()))
	if err != nil {
		return nil, err
	}
	// most significant byte first
	parts := make([]*ast.Node, len(data))
	for i := range data {
		idx := m.byteIndex(i, len(data))
		addr := mem.Address() + uint64(idx)
		if expr, ok := m.symbolic.MemoryByte(addr); ok {
			parts[i] = expr.Node
		} else {
			parts[i] = m.ast.BV(uint64(data[idx]), models.BYTE_SIZE_BIT)
		}
	}
	return m.ast.Concat(parts...), nil
}

// byteIndex maps the i-th most significant byte of a size-byte value to its offset in memory.
func (m *Machine) byteIndex(i, size int) int {
	if m.Arch().Order == binary.BigEndian {
		return i
	}
	return size - 1 - i
}

func (m *Machine) GetSymbolicRegister(reg models.Register) (*symbolic.Expression, bool) {
	return m.symbolic.Register(reg)
}

func (m *Machine) GetSymbolicMemory(addr uint64) (*symbolic.Expression, bool) {
	return m.symbolic.MemoryByte(addr)
}

func (m *Machine) IsRegisterSymbolized(reg models.Register) bool {
	if _, ok := m.symbolic.Register(reg); !ok {
		return false
	}
	node, err := m.GetRegisterAst(reg)
	return err == nil && node.Symbolized()
}

func (m *Machine) IsMemorySymbolized(mem models.MemoryAccess) bool {
	return m.symbolic.IsMemorySymbolized(mem.Address(), uint64(mem.Size()))
}

// AssignSymbolicExpressionToRegister makes node the content of reg. Writing a sub-register
// rebuilds the parent's formula around node. The concrete register takes node's value.
func (m *Machine) AssignSymbolicExpressionToRegister(node *ast.Node, reg models.Register, comment string) (*symbolic.Expression, error) {
	return m.assignRegister(reg, node, comment, false)
}

func (m *Machine) assignRegister(reg models.Register, node *ast.Node, comment string, force bool) (*symbolic.Expression, error) {
	if node.BitSize() != reg.BitSize() {
		return nil, errors.Wrapf(symbolic.ErrWidthMismatch, "%d-bit expression to %s", node.BitSize(), reg)
	}
	val, err := m.ast.Evaluate(node)
	if err != nil {
		return nil, err
	}
	if !reg.Mutable {
		return nil, errors.Wrapf(models.ErrImmutableRegister, "%s", reg)
	}
	parent := m.ParentRegister(reg)
	full := node
	if !reg.IsParent() {
		cur, err := m.GetRegisterAst(parent)
		if err != nil {
			return nil, err
		}
		var parts []*ast.Node
		if reg.High < parent.High {
			parts = append(parts, m.ast.Extract(parent.High, reg.High+1, cur))
		}
		parts = append(parts, node)
		if reg.Low > 0 {
			parts = append(parts, m.ast.Extract(reg.Low-1, 0, cur))
		}
		full = m.ast.Concat(parts...)
	}
	if err := m.SetConcreteRegisterValueBig(reg, val); err != nil {
		return nil, err
	}
	if !m.symbolic.IsEnabled() {
		return nil, nil
	}
	if !force && m.IsModeEnabled(models.MODE_ONLY_ON_SYMBOLIZED) && !full.Symbolized() {
		m.symbolic.ConcretizeRegister(parent)
		return nil, nil
	}
	return m.symbolic.AssignRegister(parent, full, comment)
}

// AssignSymbolicExpressionToMemory makes node the content of mem, one byte expression per address.
func (m *Machine) AssignSymbolicExpressionToMemory(node *ast.Node, mem models.MemoryAccess, comment string) error {
	return m.assignMemory(mem, node, comment, false)
}

func (m *Machine) assignMemory(mem models.MemoryAccess, node *ast.Node, comment string, force bool) error {
	if node.BitSize() != mem.BitSize() {
		return errors.Wrapf(symbolic.ErrWidthMismatch, "%d-bit expression to %s", node.BitSize(), mem)
	}
	val, err := m.ast.Evaluate(node)
	if err != nil {
		return err
	}
	if err := m.SetConcreteMemoryValue(mem, val); err != nil {
		return err
	}
	if !m.symbolic.IsEnabled() {
		return nil
	}
	size := int(mem.Size())
	for i := 0; i < size; i++ {
		// i-th most significant byte
		high := uint(size-i)*models.BYTE_SIZE_BIT - 1
		b := m.ast.Extract(high, high-models.BYTE_SIZE_BIT+1, node)
		addr := mem.Address() + uint64(m.byteIndex(i, size))
		if !force && m.IsModeEnabled(models.MODE_ONLY_ON_SYMBOLIZED) && !b.Symbolized() {
			m.symbolic.ConcretizeMemory(addr, 1)
			continue
		}
		if _, err := m.symbolic.AssignMemoryByte(addr, b, comment); err != nil {
			return err
		}
	}
	return nil
}

func (m *Machine) ConcretizeRegister(reg models.Register) {
	m.symbolic.ConcretizeRegister(reg)
}

func (m *Machine) ConcretizeMemory(mem models.MemoryAccess) {
	m.symbolic.ConcretizeMemory(mem.Address(), uint64(mem.Size()))
}

func (m *Machine) ConcretizeAllRegisters() { m.symbolic.ConcretizeAllRegisters() }
func (m *Machine) ConcretizeAllMemory()    { m.symbolic.ConcretizeAllMemory() }

// Evaluate computes node against the current model of every variable.
func (m *Machine) Evaluate(node *ast.Node) (*big.Int, error) {
	return m.ast.Evaluate(node)
}

// SetVariableValue changes the model value of a variable. Concrete state is not touched.
func (m *Machine) SetVariableValue(v *ast.Variable, val *big.Int) error {
	return m.ast.SetVariableValue(v.ID, val)
}
