package x86_64

import (
	"github.com/snapcorn/snapcorn/go/arch/x86"
	"github.com/snapcorn/snapcorn/go/models/cpu"
)

var _ cpu.Cpu = (*Cpu)(nil)

// Cpu is the x86_64 register file and memory image.
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

func (c *Cpu) Rflags() (uint64, error) {
	return x86.ReadEflags(c)
}

func (c *Cpu) SetRflags(val uint64) error {
	return x86.WriteEflags(c, val)
}
