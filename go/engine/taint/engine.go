package taint

import (
	"github.com/benbjohnson/immutable"

	"github.com/snapcorn/snapcorn/go/models"
)

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

// Engine tracks taint per parent register and per memory byte.
// Operations return the resulting taint of their destination.
// A disabled engine keeps its sets but ignores every update.
type Engine struct {
	regs    *immutable.SortedMap // models.RegID -> struct{}
	mem     *immutable.SortedMap // uint64 -> struct{}
	enabled bool
}

func NewEngine() *Engine {
	return &Engine{
		regs:    immutable.NewSortedMap(&regComparer{}),
		mem:     immutable.NewSortedMap(&uint64Comparer{}),
		enabled: true,
	}
}

// Clone returns an independent engine sharing the persistent sets.
func (e *Engine) Clone() *Engine {
	other := *e
	return &other
}

func (e *Engine) Enable(enabled bool) { e.enabled = enabled }
func (e *Engine) IsEnabled() bool     { return e.enabled }

func (e *Engine) IsRegisterTainted(reg models.Register) bool {
	_, ok := e.regs.Get(reg.Parent)
	return ok
}

// IsMemoryTainted reports whether any byte of mem is tainted.
func (e *Engine) IsMemoryTainted(mem models.MemoryAccess) bool {
	return e.isRangeTainted(mem.Address(), uint64(mem.Size()))
}

func (e *Engine) IsAddressTainted(addr uint64) bool {
	_, ok := e.mem.Get(addr)
	return ok
}

func (e *Engine) isRangeTainted(addr, size uint64) bool {
	for i := uint64(0); i < size; i++ {
		if e.IsAddressTainted(addr + i) {
			return true
		}
	}
	return false
}

func (e *Engine) SetTaintRegister(reg models.Register, flag bool) bool {
	if !e.enabled {
		return e.IsRegisterTainted(reg)
	}
	if flag {
		e.regs = e.regs.Set(reg.Parent, struct{}{})
	} else {
		e.regs = e.regs.Delete(reg.Parent)
	}
	return flag
}

func (e *Engine) setRange(addr, size uint64, flag bool) {
	for i := uint64(0); i < size; i++ {
		if flag {
			e.mem = e.mem.Set(addr+i, struct{}{})
		} else {
			e.mem = e.mem.Delete(addr + i)
		}
	}
}

func (e *Engine) SetTaintMemory(mem models.MemoryAccess, flag bool) bool {
	if !e.enabled {
		return e.IsMemoryTainted(mem)
	}
	e.setRange(mem.Address(), uint64(mem.Size()), flag)
	return flag
}

func (e *Engine) TaintRegister(reg models.Register) bool     { return e.SetTaintRegister(reg, true) }
func (e *Engine) UntaintRegister(reg models.Register) bool   { return e.SetTaintRegister(reg, false) }
func (e *Engine) TaintMemory(mem models.MemoryAccess) bool   { return e.SetTaintMemory(mem, true) }
func (e *Engine) UntaintMemory(mem models.MemoryAccess) bool { return e.SetTaintMemory(mem, false) }

// Union rules: the destination stays tainted and picks up the source's taint.

func (e *Engine) UnionRegisterRegister(dst, src models.Register) bool {
	return e.SetTaintRegister(dst, e.IsRegisterTainted(dst) || e.IsRegisterTainted(src))
}

func (e *Engine) UnionRegisterMemory(dst models.Register, src models.MemoryAccess) bool {
	return e.SetTaintRegister(dst, e.IsRegisterTainted(dst) || e.IsMemoryTainted(src))
}

func (e *Engine) UnionRegisterImmediate(dst models.Register) bool {
	return e.IsRegisterTainted(dst)
}

func (e *Engine) UnionMemoryRegister(dst models.MemoryAccess, src models.Register) bool {
	if e.IsRegisterTainted(src) {
		return e.SetTaintMemory(dst, true)
	}
	return e.IsMemoryTainted(dst)
}

func (e *Engine) UnionMemoryMemory(dst, src models.MemoryAccess) bool {
	if e.IsMemoryTainted(src) {
		return e.SetTaintMemory(dst, true)
	}
	return e.IsMemoryTainted(dst)
}

func (e *Engine) UnionMemoryImmediate(dst models.MemoryAccess) bool {
	return e.IsMemoryTainted(dst)
}

// Assignment rules: the destination takes exactly the source's taint.

func (e *Engine) AssignRegisterRegister(dst, src models.Register) bool {
	return e.SetTaintRegister(dst, e.IsRegisterTainted(src))
}

func (e *Engine) AssignRegisterMemory(dst models.Register, src models.MemoryAccess) bool {
	return e.SetTaintRegister(dst, e.IsMemoryTainted(src))
}

func (e *Engine) AssignRegisterImmediate(dst models.Register) bool {
	return e.SetTaintRegister(dst, false)
}

func (e *Engine) AssignMemoryRegister(dst models.MemoryAccess, src models.Register) bool {
	return e.SetTaintMemory(dst, e.IsRegisterTainted(src))
}

// AssignMemoryMemory copies taint byte by byte. Bytes past the end of src are untainted.
func (e *Engine) AssignMemoryMemory(dst, src models.MemoryAccess) bool {
	if !e.enabled {
		return e.IsMemoryTainted(dst)
	}
	tainted := make([]bool, dst.Size())
	for i := range tainted {
		tainted[i] = uint(i) < src.Size() && e.IsAddressTainted(src.Address()+uint64(i))
	}
	var ret bool
	for i, flag := range tainted {
		e.setRange(dst.Address()+uint64(i), 1, flag)
		ret = ret || flag
	}
	return ret
}

func (e *Engine) AssignMemoryImmediate(dst models.MemoryAccess) bool {
	return e.SetTaintMemory(dst, false)
}

// TaintedRegisters returns the tainted parent register ids in ascending order.
func (e *Engine) TaintedRegisters() []models.RegID {
	ret := make([]models.RegID, 0, e.regs.Len())
	itr := e.regs.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		ret = append(ret, k.(models.RegID))
	}
	return ret
}

// TaintedMemory returns the tainted byte addresses in ascending order.
func (e *Engine) TaintedMemory() []uint64 {
	ret := make([]uint64, 0, e.mem.Len())
	itr := e.mem.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		ret = append(ret, k.(uint64))
	}
	return ret
}
