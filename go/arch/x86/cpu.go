package x86

import (
	"github.com/snapcorn/snapcorn/go/models/cpu"
)

var _ cpu.Cpu = (*Cpu)(nil)

// Cpu is the 32-bit x86 register file and memory image.
type Cpu struct {
	*cpu.Regs
	*cpu.Mem
}

func New() *Cpu {
	return &Cpu{
		Regs: cpu.NewRegs(Arch),
		Mem:  cpu.NewMem(Arch.Bits, Arch.Order),
	}
}

func (c *Cpu) SetHooks(h *cpu.Hooks) {
	c.Regs.SetHooks(h)
	c.Mem.SetHooks(h)
	if h != nil {
		h.Attach(c)
	}
}

// Clone is the copy constructor: registers and every mapping are copied, hooks are not.
func (c *Cpu) Clone() *Cpu {
	return &Cpu{Regs: c.Regs.Clone(), Mem: c.Mem.Clone()}
}

func (c *Cpu) Eflags() (uint64, error) {
	return ReadEflags(c)
}

func (c *Cpu) SetEflags(val uint64) error {
	return WriteEflags(c, val)
}
