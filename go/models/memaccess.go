package models

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/ast"
)

// 64-bit golden ratio
const goldenRatio64 = 0x9e3779b97f4a7c13

// MemoryAccess is an addressed bit-vector operand, optionally carrying the
// registers, immediates and formula its address was computed from.
type MemoryAccess struct {
	address    uint64
	bits       BitRange
	pcRelative uint64

	base    Register
	index   Register
	segment Register

	scale        Immediate
	displacement Immediate

	leaAst *ast.Node
}

// NewMemoryAccess fails with ErrInvalidSize unless size (in bytes) is a legal access width.
func NewMemoryAccess(address uint64, size uint) (MemoryAccess, error) {
	if size == 0 {
		return MemoryAccess{}, errors.Wrapf(ErrInvalidSize, "[@0x%x]: size cannot be zero", address)
	}
	if !IsLegalSize(size) {
		return MemoryAccess{}, errors.Wrapf(ErrInvalidSize, "[@0x%x]: size %d must be aligned", address, size)
	}
	return MemoryAccess{address: address, bits: SizeRange(size)}, nil
}

func (m MemoryAccess) Address() uint64         { return m.address }
func (m MemoryAccess) BitRange() BitRange      { return m.bits }
func (m MemoryAccess) PcRelative() uint64      { return m.pcRelative }
func (m MemoryAccess) Base() Register          { return m.base }
func (m MemoryAccess) Index() Register         { return m.index }
func (m MemoryAccess) Segment() Register       { return m.segment }
func (m MemoryAccess) Scale() Immediate        { return m.scale }
func (m MemoryAccess) Displacement() Immediate { return m.displacement }
func (m MemoryAccess) LeaAst() *ast.Node       { return m.leaAst }

func (m MemoryAccess) BitSize() uint {
	if m.bits == (BitRange{}) {
		return 0
	}
	return m.bits.BitSize()
}

func (m MemoryAccess) Size() uint {
	return m.BitSize() / BYTE_SIZE_BIT
}

func (m MemoryAccess) Type() OperandType {
	return OP_MEM
}

// End returns the first address past the access. It wraps to 0 for an access
// ending at the top of the address space.
func (m MemoryAccess) End() uint64 {
	return m.address + uint64(m.Size())
}

func (m *MemoryAccess) SetAddress(addr uint64)      { m.address = addr }
func (m *MemoryAccess) SetPcRelative(addr uint64)   { m.pcRelative = addr }
func (m *MemoryAccess) SetBase(r Register)          { m.base = r }
func (m *MemoryAccess) SetIndex(r Register)         { m.index = r }
func (m *MemoryAccess) SetSegment(r Register)       { m.segment = r }
func (m *MemoryAccess) SetScale(i Immediate)        { m.scale = i }
func (m *MemoryAccess) SetDisplacement(i Immediate) { m.displacement = i }
func (m *MemoryAccess) SetLeaAst(n *ast.Node)       { m.leaAst = n }

// Overlaps reports whether the two accesses touch at least one common byte.
func (m MemoryAccess) Overlaps(o MemoryAccess) bool {
	return o.address-m.address < uint64(m.Size()) || m.address-o.address < uint64(o.Size())
}

// Equal compares every addressing component, not only the effective address.
// The address formula is not compared.
func (m MemoryAccess) Equal(o MemoryAccess) bool {
	return m.address == o.address &&
		m.Size() == o.Size() &&
		m.base.Equal(o.base) &&
		m.index.Equal(o.index) &&
		m.scale.Equal(o.scale) &&
		m.displacement.Equal(o.displacement) &&
		m.segment.Equal(o.segment) &&
		m.pcRelative == o.pcRelative
}

// Key mixes address and size into the value Less orders by.
// It does not follow address order.
func (m MemoryAccess) Key() uint64 {
	var seed uint64
	seed ^= m.address + goldenRatio64 + (seed << 6) + (seed >> 2)
	seed ^= uint64(m.Size()) + goldenRatio64 + (seed << 6) + (seed >> 2)
	return seed
}

func (m MemoryAccess) Less(o MemoryAccess) bool {
	return m.Key() < o.Key()
}

// Compare is a three-way Less that breaks Key collisions by address then size,
// so distinct (address, size) pairs never compare equal.
func (m MemoryAccess) Compare(o MemoryAccess) int {
	ka, kb := m.Key(), o.Key()
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	case m.address < o.address:
		return -1
	case m.address > o.address:
		return 1
	case m.Size() < o.Size():
		return -1
	case m.Size() > o.Size():
		return 1
	}
	return 0
}

func (m MemoryAccess) String() string {
	return fmt.Sprintf("[@0x%x]:%d %s", m.address, m.BitSize(), m.bits)
}

// MemoryAccessComparer orders MemoryAccess keys. Implements immutable.Comparer.
type MemoryAccessComparer struct{}

func (c *MemoryAccessComparer) Compare(a, b interface{}) int {
	return a.(MemoryAccess).Compare(b.(MemoryAccess))
}
