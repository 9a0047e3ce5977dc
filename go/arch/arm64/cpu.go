package arm64

import (
	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/models/cpu"
)

var _ cpu.Cpu = (*Cpu)(nil)

// Cpu is the AArch64 register file and memory image.
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

var nzcvBits = []struct {
	name string
	bit  uint
}{{"n", 31}, {"z", 30}, {"c", 29}, {"v", 28}}

// Nzcv composes the condition flags as the NZCV system register lays them out.
func (c *Cpu) Nzcv() (uint64, error) {
	var val uint64
	for _, f := range nzcvBits {
		r, err := Arch.RegisterByName(f.name)
		if err != nil {
			return 0, err
		}
		bit, err := c.RegRead(r)
		if err != nil {
			return 0, errors.Wrap(err, "Nzcv")
		}
		val |= bit << f.bit
	}
	return val, nil
}

func (c *Cpu) SetNzcv(val uint64) error {
	for _, f := range nzcvBits {
		r, err := Arch.RegisterByName(f.name)
		if err != nil {
			return err
		}
		if err := c.RegWrite(r, val>>f.bit&1); err != nil {
			return errors.Wrap(err, "SetNzcv")
		}
	}
	return nil
}
